package entity

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lite-lake/dnssync/internal/domain"
)

const MatchAll = "*"

// FilterRule selects records by domain pattern and, optionally, by type.
// A nil RecordTypes matches every type.
type FilterRule struct {
	DomainPattern string       `yaml:"domain" json:"domain"`
	RecordTypes   []RecordType `yaml:"recordTypes,omitempty" json:"recordTypes,omitempty"`
}

func (r *FilterRule) Validate() error {
	if r.DomainPattern == "" {
		return domain.RequiredField("domain")
	}
	if r.DomainPattern != MatchAll {
		bare := strings.TrimPrefix(r.DomainPattern, "*.")
		if bare == "" || strings.Contains(bare, "*") {
			return fmt.Errorf("%w: pattern %q", domain.ErrInvalidDomain, r.DomainPattern)
		}
	}
	for _, t := range r.RecordTypes {
		if !t.Valid() {
			return fmt.Errorf("%w: %s", domain.ErrInvalidType, t)
		}
	}
	return nil
}

// IsWildcard reports whether the pattern is "*.suffix".
func (r *FilterRule) IsWildcard() bool {
	return strings.HasPrefix(r.DomainPattern, "*.")
}

func (r *FilterRule) String() string {
	if len(r.RecordTypes) == 0 {
		return r.DomainPattern
	}
	types := make([]string, len(r.RecordTypes))
	for i, t := range r.RecordTypes {
		types[i] = string(t)
	}
	return r.DomainPattern + " [" + strings.Join(types, ",") + "]"
}

// FilterRules is the canonical rule list. Config input may be a single string
// (newline or comma separated), a list of strings, or a list of rule objects;
// all of them collapse into []FilterRule here and nowhere else.
type FilterRules []FilterRule

type rawFilterRule struct {
	Domain      string   `yaml:"domain" json:"domain"`
	RecordTypes []string `yaml:"recordTypes" json:"recordTypes"`
}

func (fr *FilterRules) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*fr = rulesFromText(node.Value)
		return nil
	case yaml.SequenceNode:
		rules := make(FilterRules, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind == yaml.ScalarNode {
				rules = append(rules, rulesFromText(item.Value)...)
				continue
			}
			var raw rawFilterRule
			if err := item.Decode(&raw); err != nil {
				return err
			}
			rule, err := raw.toRule()
			if err != nil {
				return err
			}
			rules = append(rules, rule)
		}
		*fr = rules
		return nil
	}
	return fmt.Errorf("%w: filter list must be a string or a list", domain.ErrConfigParseFailed)
}

func (fr *FilterRules) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*fr = rulesFromText(text)
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("%w: filter list must be a string or a list", domain.ErrConfigParseFailed)
	}
	rules := make(FilterRules, 0, len(items))
	for _, item := range items {
		if err := json.Unmarshal(item, &text); err == nil {
			rules = append(rules, rulesFromText(text)...)
			continue
		}
		var raw rawFilterRule
		if err := json.Unmarshal(item, &raw); err != nil {
			return err
		}
		rule, err := raw.toRule()
		if err != nil {
			return err
		}
		rules = append(rules, rule)
	}
	*fr = rules
	return nil
}

func (r rawFilterRule) toRule() (FilterRule, error) {
	rule := FilterRule{DomainPattern: strings.ToLower(strings.TrimSpace(r.Domain))}
	for _, s := range r.RecordTypes {
		t, err := ParseRecordType(s)
		if err != nil {
			return FilterRule{}, err
		}
		rule.RecordTypes = append(rule.RecordTypes, t)
	}
	return rule, nil
}

func rulesFromText(text string) FilterRules {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == ',' || r == '\r'
	})
	rules := make(FilterRules, 0, len(fields))
	for _, f := range fields {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		rules = append(rules, FilterRule{DomainPattern: f})
	}
	return rules
}

func (fr FilterRules) Validate() error {
	for i := range fr {
		if err := fr[i].Validate(); err != nil {
			return fmt.Errorf("rule[%d]: %w", i, err)
		}
	}
	return nil
}

// ZoneHints returns the exact (non-wildcard) domains named by the rules.
func (fr FilterRules) ZoneHints() []string {
	var zones []string
	seen := make(map[string]bool)
	for _, r := range fr {
		if r.DomainPattern == MatchAll || r.IsWildcard() || seen[r.DomainPattern] {
			continue
		}
		seen[r.DomainPattern] = true
		zones = append(zones, r.DomainPattern)
	}
	return zones
}
