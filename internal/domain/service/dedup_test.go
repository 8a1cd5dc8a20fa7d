package service

import (
	"reflect"
	"testing"

	"github.com/lite-lake/dnssync/internal/domain/entity"
)

func TestMerge_DuplicateAcrossSources(t *testing.T) {
	a := []entity.Record{{ID: "a1", Type: entity.RecordTypeA, Name: "dup.example.com", Content: "5.5.5.5", TTL: 300}}
	b := []entity.Record{{ID: "b1", Type: entity.RecordTypeA, Name: "DUP.example.com", Content: "5.5.5.5", TTL: 600}}

	got := Merge(a, b)

	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0].ID != "a1" {
		t.Errorf("first occurrence should win, got %s", got[0].ID)
	}
}

func TestMerge_KeepsDistinctContent(t *testing.T) {
	l := []entity.Record{
		rec(entity.RecordTypeA, "rr.example.com", "1.1.1.1"),
		rec(entity.RecordTypeA, "rr.example.com", "2.2.2.2"),
		rec(entity.RecordTypeAAAA, "rr.example.com", "1.1.1.1"),
	}
	if got := Merge(l); len(got) != 3 {
		t.Errorf("expected 3 records, got %d", len(got))
	}
}

func TestMerge_IdempotentAndBounded(t *testing.T) {
	lists := [][]entity.Record{
		{rec(entity.RecordTypeA, "a.example.com", "1"), rec(entity.RecordTypeA, "a.example.com", "1")},
		{rec(entity.RecordTypeTXT, "a.example.com", "x"), rec(entity.RecordTypeA, "A.example.com", "1")},
		{},
		{rec(entity.RecordTypeCNAME, "b.example.com", "a.example.com")},
	}

	once := Merge(lists...)
	twice := Merge(once)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Merge not idempotent:\n%+v\n%+v", once, twice)
	}
	total := 0
	for _, l := range lists {
		total += len(l)
	}
	if len(once) > total {
		t.Errorf("merged %d records from %d inputs", len(once), total)
	}
	if len(once) != 3 {
		t.Errorf("expected 3 unique records, got %d", len(once))
	}
}

func TestMerge_Empty(t *testing.T) {
	if got := Merge(); len(got) != 0 {
		t.Errorf("expected empty result, got %+v", got)
	}
}

func TestGroupByZone(t *testing.T) {
	records := []entity.Record{
		{Name: "a.example.org", ZoneName: "example.org"},
		{Name: "a.example.com", ZoneName: "example.com"},
		{Name: "b.example.org", ZoneName: "example.org"},
	}
	zones, groups := GroupByZone(records)
	if !reflect.DeepEqual(zones, []string{"example.org", "example.com"}) {
		t.Errorf("zones = %v", zones)
	}
	if len(groups["example.org"]) != 2 || len(groups["example.com"]) != 1 {
		t.Errorf("groups = %+v", groups)
	}
}
