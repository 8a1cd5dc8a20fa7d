package service

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/domain/valueobject"
)

var (
	optsDefault = valueobject.DefaultSyncOptions()
	optsAll     = valueobject.SyncOptions{OverwriteAll: true, DeleteExtra: true}
	optsNone    = valueobject.SyncOptions{}
)

func TestDiff_CreateIntoEmptyTarget(t *testing.T) {
	desired := []entity.Record{{Type: entity.RecordTypeA, Name: "app.example.com", Content: "1.2.3.4", TTL: 300}}

	actions := Diff(desired, nil, optsDefault)

	if len(actions.Creates) != 1 || len(actions.Updates) != 0 || len(actions.Deletes) != 0 {
		t.Fatalf("expected one create, got %+v", actions)
	}
	if actions.Creates[0].Record.Content != "1.2.3.4" {
		t.Errorf("unexpected create: %+v", actions.Creates[0])
	}
}

func TestDiff_UpdateCarriesExistingID(t *testing.T) {
	existing := []entity.Record{{ID: "rec-9", Type: entity.RecordTypeA, Name: "app.example.com", Content: "9.9.9.9", TTL: 600, ZoneName: "example.com"}}
	desired := []entity.Record{{Type: entity.RecordTypeA, Name: "App.Example.com", Content: "1.2.3.4", TTL: 300}}

	actions := Diff(desired, existing, optsDefault)

	if len(actions.Updates) != 1 || len(actions.Creates) != 0 {
		t.Fatalf("expected one update, got %+v", actions)
	}
	u := actions.Updates[0]
	if u.Record.ID != "rec-9" || u.Record.Content != "1.2.3.4" || u.Record.TTL != 300 {
		t.Errorf("unexpected update record: %+v", u.Record)
	}
	if u.Record.ZoneName != "example.com" {
		t.Errorf("update should inherit the existing zone, got %q", u.Record.ZoneName)
	}
	if u.Existing == nil || u.Existing.Content != "9.9.9.9" {
		t.Errorf("update should keep the old state: %+v", u.Existing)
	}
}

func TestDiff_DeleteExtra(t *testing.T) {
	desired := []entity.Record{{Type: entity.RecordTypeA, Name: "app.example.com", Content: "1.2.3.4", TTL: 300}}
	existing := []entity.Record{
		{ID: "1", Type: entity.RecordTypeA, Name: "app.example.com", Content: "1.2.3.4", TTL: 300},
		{ID: "2", Type: entity.RecordTypeTXT, Name: "old.example.com", Content: "x", TTL: 300},
		{ID: "3", Type: entity.RecordTypeNS, Name: "example.com", Content: "ns1.example.net", TTL: 300},
		{ID: "4", Type: entity.RecordTypeSOA, Name: "example.com", Content: "ns1 hostmaster 1 2 3 4 5", TTL: 300},
	}

	t.Run("deleteExtra true", func(t *testing.T) {
		actions := Diff(desired, existing, optsAll)
		if len(actions.Deletes) != 1 || actions.Deletes[0].Record.ID != "2" {
			t.Errorf("expected only the TXT record deleted, got %+v", actions.Deletes)
		}
		if len(actions.Updates) != 0 || len(actions.Creates) != 0 {
			t.Errorf("unexpected non-delete actions: %+v", actions)
		}
	})

	t.Run("deleteExtra false", func(t *testing.T) {
		if actions := Diff(desired, existing, optsDefault); len(actions.Deletes) != 0 {
			t.Errorf("expected no deletes, got %+v", actions.Deletes)
		}
	})
}

func TestDiff_EmptyDesiredNeverDeletes(t *testing.T) {
	existing := []entity.Record{{ID: "1", Type: entity.RecordTypeA, Name: "a.example.com", Content: "1.1.1.1"}}
	actions := Diff(nil, existing, optsAll)
	if !actions.IsEmpty() {
		t.Errorf("empty desired set must produce no actions, got %+v", actions)
	}
}

func TestDiff_ProxiedUnsetEqualsFalse(t *testing.T) {
	existing := []entity.Record{{ID: "1", Type: entity.RecordTypeA, Name: "a.example.com", Content: "1.1.1.1", TTL: 1, Proxied: entity.BoolPtr(false)}}
	desired := []entity.Record{{Type: entity.RecordTypeA, Name: "a.example.com", Content: "1.1.1.1", TTL: 1}}
	if actions := Diff(desired, existing, optsAll); !actions.IsEmpty() {
		t.Errorf("expected no actions, got %+v", actions)
	}

	desired[0].Proxied = entity.BoolPtr(true)
	if actions := Diff(desired, existing, optsAll); len(actions.Updates) != 1 {
		t.Errorf("expected proxied flip to update, got %+v", actions)
	}
}

func TestDiff_ExistingLastWins(t *testing.T) {
	existing := []entity.Record{
		{ID: "old", Type: entity.RecordTypeA, Name: "a.example.com", Content: "1.1.1.1", TTL: 300},
		{ID: "new", Type: entity.RecordTypeA, Name: "a.example.com", Content: "2.2.2.2", TTL: 300},
	}
	desired := []entity.Record{{Type: entity.RecordTypeA, Name: "a.example.com", Content: "3.3.3.3", TTL: 300}}

	actions := Diff(desired, existing, optsAll)
	if len(actions.Updates) != 1 || actions.Updates[0].Record.ID != "new" {
		t.Errorf("expected update against the last existing record, got %+v", actions.Updates)
	}
}

func TestActions_Ordered(t *testing.T) {
	desired := []entity.Record{
		{Type: entity.RecordTypeA, Name: "new.example.com", Content: "1.1.1.1", TTL: 300},
		{Type: entity.RecordTypeA, Name: "changed.example.com", Content: "2.2.2.2", TTL: 300},
	}
	existing := []entity.Record{
		{ID: "c", Type: entity.RecordTypeA, Name: "changed.example.com", Content: "9.9.9.9", TTL: 300},
		{ID: "x", Type: entity.RecordTypeA, Name: "extra.example.com", Content: "9.9.9.9", TTL: 300},
	}

	actions := Diff(desired, existing, optsAll)
	ordered := actions.Ordered()
	want := []entity.ChangeType{entity.ChangeTypeUpdate, entity.ChangeTypeCreate, entity.ChangeTypeDelete}
	if len(ordered) != len(want) {
		t.Fatalf("expected %d actions, got %d", len(want), len(ordered))
	}
	for i, c := range ordered {
		if c.Type != want[i] {
			t.Errorf("ordered[%d] = %s, want %s", i, c.Type, want[i])
		}
	}
}

// applyActions simulates a target that executes every action successfully.
func applyActions(existing []entity.Record, actions entity.Actions) []entity.Record {
	out := make([]entity.Record, len(existing))
	copy(out, existing)
	for _, u := range actions.Updates {
		for i := range out {
			if out[i].ID == u.Record.ID {
				out[i] = u.Record
			}
		}
	}
	for i, c := range actions.Creates {
		r := c.Record
		r.ID = fmt.Sprintf("created-%d", i)
		out = append(out, r)
	}
	for _, d := range actions.Deletes {
		for i := range out {
			if out[i].ID == d.Record.ID {
				out = append(out[:i], out[i+1:]...)
				break
			}
		}
	}
	return out
}

func randomRecords(r *rand.Rand, n int, uniqueIdentity bool, idPrefix string) []entity.Record {
	types := []entity.RecordType{entity.RecordTypeA, entity.RecordTypeTXT, entity.RecordTypeCNAME, entity.RecordTypeNS}
	seen := make(map[entity.Identity]bool)
	var out []entity.Record
	for i := 0; i < n; i++ {
		rec := entity.Record{
			ID:      fmt.Sprintf("%s%d", idPrefix, i),
			Type:    types[r.IntN(len(types))],
			Name:    fmt.Sprintf("h%d.example.com", r.IntN(6)),
			Content: fmt.Sprintf("v%d", r.IntN(3)),
			TTL:     []int{300, 600}[r.IntN(2)],
		}
		if r.IntN(3) == 0 {
			rec.Proxied = entity.BoolPtr(r.IntN(2) == 0)
		}
		if uniqueIdentity {
			if seen[rec.Identity()] {
				continue
			}
			seen[rec.Identity()] = true
		}
		out = append(out, rec)
	}
	return out
}

func TestDiff_Properties(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	allOpts := []valueobject.SyncOptions{optsDefault, optsAll, optsNone, {DeleteExtra: true}}

	for iter := 0; iter < 300; iter++ {
		desired := randomRecords(r, r.IntN(8), true, "d")
		for i := range desired {
			desired[i].ID = ""
		}
		existing := randomRecords(r, r.IntN(10), false, "e")

		for _, opts := range allOpts {
			actions := Diff(desired, existing, opts)

			if !opts.OverwriteAll && len(actions.Creates) != 0 {
				t.Fatalf("creates without overwriteAll: %+v", actions.Creates)
			}
			if !opts.DeleteExtra && len(actions.Deletes) != 0 {
				t.Fatalf("deletes without deleteExtra: %+v", actions.Deletes)
			}
			for _, d := range actions.Deletes {
				if d.Record.Type.Protected() {
					t.Fatalf("protected record deleted: %+v", d.Record)
				}
			}

			converged := applyActions(existing, actions)
			if again := Diff(desired, converged, opts); !again.IsEmpty() {
				t.Fatalf("iter %d opts %+v did not converge:\ndesired=%+v\nexisting=%+v\nsecond=%+v",
					iter, opts, desired, existing, again)
			}
		}

		if actions := Diff(nil, existing, optsAll); len(actions.Deletes) != 0 {
			t.Fatalf("empty desired produced deletes: %+v", actions.Deletes)
		}
	}
}
