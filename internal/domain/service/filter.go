package service

import (
	"slices"
	"strings"

	"github.com/lite-lake/dnssync/internal/domain/entity"
)

// Matches evaluates one rule against a record. Name comparison is case-insensitive.
func Matches(r *entity.Record, rule *entity.FilterRule) bool {
	if len(rule.RecordTypes) > 0 && !slices.Contains(rule.RecordTypes, r.Type) {
		return false
	}

	pattern := strings.ToLower(rule.DomainPattern)
	name := strings.ToLower(r.Name)

	switch {
	case pattern == entity.MatchAll:
		return true
	case strings.HasPrefix(pattern, "*."):
		return strings.HasSuffix(name, pattern[1:])
	default:
		return name == pattern || strings.ToLower(r.ZoneName) == pattern
	}
}

// MatchesAny reports whether any rule matches.
func MatchesAny(r *entity.Record, rules entity.FilterRules) bool {
	for i := range rules {
		if Matches(r, &rules[i]) {
			return true
		}
	}
	return false
}

// Admit applies the include stage (empty includes admit everything) and then
// the exclude stage. Exclude wins.
func Admit(r *entity.Record, include, exclude entity.FilterRules) bool {
	if len(include) > 0 && !MatchesAny(r, include) {
		return false
	}
	return !MatchesAny(r, exclude)
}

// ApplyFilters keeps the records admitted by the rules, preserving order.
func ApplyFilters(records []entity.Record, include, exclude entity.FilterRules) []entity.Record {
	out := make([]entity.Record, 0, len(records))
	for i := range records {
		if Admit(&records[i], include, exclude) {
			out = append(out, records[i])
		}
	}
	return out
}

// ZoneMayMatch reports whether a zone can hold any record the include rules
// admit, so whole zones can be skipped before listing them.
func ZoneMayMatch(zone string, include entity.FilterRules) bool {
	if len(include) == 0 {
		return true
	}
	zone = strings.ToLower(zone)
	for _, rule := range include {
		pattern := strings.ToLower(rule.DomainPattern)
		if pattern == entity.MatchAll {
			return true
		}
		bare := strings.TrimPrefix(pattern, "*.")
		if bare == zone || strings.HasSuffix(bare, "."+zone) {
			return true
		}
		if rule.IsWildcard() && strings.HasSuffix(zone, "."+bare) {
			return true
		}
	}
	return false
}
