package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lite-lake/dnssync/internal/application/orchestrator"
	"github.com/lite-lake/dnssync/internal/domain/entity"
)

var title = cases.Title(language.English)

func renderPlans(w io.Writer, plans []orchestrator.TargetPlan) {
	changes := 0
	for _, p := range plans {
		fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("Target %s (%s)", p.TargetName, p.TargetID)))
		if p.Error != "" {
			fmt.Fprintf(w, "  %s %s\n", ErrorStyle.Render("error:"), p.Error)
			continue
		}
		if p.Actions.IsEmpty() {
			fmt.Fprintf(w, "  %s\n", HelpStyle.Render(fmt.Sprintf("in sync (%d desired records)", p.RecordCount)))
			continue
		}
		for _, ch := range p.Actions.Ordered() {
			fmt.Fprintf(w, "  %s\n", changeStyle(ch.Type).Render(ch.String()))
		}
		changes += p.Actions.Len()
		fmt.Fprintf(w, "  %d to update, %d to create, %d to delete\n",
			len(p.Actions.Updates), len(p.Actions.Creates), len(p.Actions.Deletes))
	}
	if changes == 0 {
		fmt.Fprintln(w, "No changes detected.")
	}
}

func renderResult(w io.Writer, r orchestrator.TargetResult) {
	e := r.Entry
	line := fmt.Sprintf("%s %s: created %d, updated %d, deleted %d",
		stateStyle(r.State).Render(string(r.State)), r.TargetName, e.Created, e.Updated, e.Deleted)
	fmt.Fprintln(w, line)
	for _, op := range e.FailedOperations {
		fmt.Fprintf(w, "    %s %s %s %s: %s\n", ErrorStyle.Render("✗"), op.Kind, op.Record.Type, op.Record.Name, op.Reason)
	}
	if r.Error != "" && len(e.FailedOperations) == 0 {
		fmt.Fprintf(w, "    %s\n", r.Error)
	}
}

func renderSummary(w io.Writer, s *orchestrator.Summary) {
	for _, r := range s.Success {
		renderResult(w, r)
	}
	for _, r := range s.Failed {
		renderResult(w, r)
	}
	fmt.Fprintf(w, "\n%d succeeded, %d failed\n", len(s.Success), len(s.Failed))
}

func renderProviders(w io.Writer, providers []entity.ProviderConfig) {
	if len(providers) == 0 {
		fmt.Fprintln(w, "No providers configured.")
		return
	}
	names := make(map[string]string, len(providers))
	for _, p := range providers {
		names[p.ID] = p.Name
	}

	t := newTable("ID", "NAME", "TYPE", "ROLE", "ZONES", "SOURCES")
	for _, p := range providers {
		sources := make([]string, 0, len(p.SourceProviderIDs))
		for _, id := range p.SourceProviderIDs {
			if n, ok := names[id]; ok {
				sources = append(sources, n)
			} else {
				sources = append(sources, id+"?")
			}
		}
		zones := "*"
		if hints := p.ZoneHints(); len(hints) > 0 {
			zones = strings.Join(hints, ",")
		}
		t.Row(p.ID, p.Name, string(p.VendorType), title.String(string(p.Role)), zones, dashIfEmpty(strings.Join(sources, ",")))
	}
	fmt.Fprintln(w, t.Render())
}

func renderHistory(w io.Writer, history entity.History, limit int) {
	if len(history) == 0 {
		fmt.Fprintln(w, "No sync history.")
		return
	}
	t := newTable("TIME", "TARGET", "SOURCES", "STATUS", "RECORDS", "C/U/D", "ERROR")
	for i, e := range history {
		if limit > 0 && i >= limit {
			break
		}
		t.Row(e.Timestamp.Local().Format(time.DateTime), e.TargetName, strings.Join(e.SourceNames, ","),
			string(e.Status), fmt.Sprint(e.RecordCount), fmt.Sprintf("%d/%d/%d", e.Created, e.Updated, e.Deleted), dashIfEmpty(e.Error))
	}
	fmt.Fprintln(w, t.Render())
}

func renderRecords(w io.Writer, records []entity.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No records.")
		return
	}
	t := newTable("ZONE", "TYPE", "NAME", "TTL", "CONTENT")
	for _, r := range records {
		content := r.Content
		if r.Proxied != nil && *r.Proxied {
			content += " (proxied)"
		}
		t.Row(r.ZoneName, string(r.Type), r.Name, fmt.Sprint(r.TTL), content)
	}
	fmt.Fprintln(w, t.Render())
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(HelpStyle).
		Headers(headers...)
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
