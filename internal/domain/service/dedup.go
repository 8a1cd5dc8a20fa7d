package service

import "github.com/lite-lake/dnssync/internal/domain/entity"

// Merge concatenates the lists in caller order and drops later duplicates by
// DedupKey. The first occurrence wins, including its id and zone.
func Merge(lists ...[]entity.Record) []entity.Record {
	total := 0
	for _, l := range lists {
		total += len(l)
	}

	seen := make(map[string]struct{}, total)
	out := make([]entity.Record, 0, total)
	for _, l := range lists {
		for _, r := range l {
			key := r.DedupKey()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}

// GroupByZone buckets records by lowercase zone name, keeping zone order of
// first appearance so apply order stays deterministic.
func GroupByZone(records []entity.Record) ([]string, map[string][]entity.Record) {
	var zones []string
	groups := make(map[string][]entity.Record)
	for _, r := range records {
		if _, ok := groups[r.ZoneName]; !ok {
			zones = append(zones, r.ZoneName)
		}
		groups[r.ZoneName] = append(groups[r.ZoneName], r)
	}
	return zones, groups
}
