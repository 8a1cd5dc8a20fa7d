package entity

import (
	"fmt"
	"strings"

	"github.com/lite-lake/dnssync/internal/domain"
)

type RecordType string

const (
	RecordTypeA     RecordType = "A"
	RecordTypeAAAA  RecordType = "AAAA"
	RecordTypeCNAME RecordType = "CNAME"
	RecordTypeMX    RecordType = "MX"
	RecordTypeTXT   RecordType = "TXT"
	RecordTypeNS    RecordType = "NS"
	RecordTypePTR   RecordType = "PTR"
	RecordTypeSRV   RecordType = "SRV"
	RecordTypeCAA   RecordType = "CAA"
	RecordTypeHTTPS RecordType = "HTTPS"
	RecordTypeSVCB  RecordType = "SVCB"

	// RecordTypeSOA is never synced but vendors return it in listings.
	RecordTypeSOA RecordType = "SOA"
)

var knownRecordTypes = map[RecordType]bool{
	RecordTypeA:     true,
	RecordTypeAAAA:  true,
	RecordTypeCNAME: true,
	RecordTypeMX:    true,
	RecordTypeTXT:   true,
	RecordTypeNS:    true,
	RecordTypePTR:   true,
	RecordTypeSRV:   true,
	RecordTypeCAA:   true,
	RecordTypeHTTPS: true,
	RecordTypeSVCB:  true,
	RecordTypeSOA:   true,
}

func ParseRecordType(s string) (RecordType, error) {
	t := RecordType(strings.ToUpper(strings.TrimSpace(s)))
	if !knownRecordTypes[t] {
		return "", fmt.Errorf("%w: dns record type %q", domain.ErrInvalidType, s)
	}
	return t, nil
}

func (t RecordType) Valid() bool {
	return knownRecordTypes[t]
}

// Protected types are zone infrastructure and are never deleted by a sync.
func (t RecordType) Protected() bool {
	return t == RecordTypeNS || t == RecordTypeSOA
}

type Record struct {
	ID       string     `yaml:"id,omitempty" json:"id,omitempty"`
	Type     RecordType `yaml:"type" json:"type"`
	Name     string     `yaml:"name" json:"name"`
	Content  string     `yaml:"content" json:"content"`
	TTL      int        `yaml:"ttl" json:"ttl"`
	Proxied  *bool      `yaml:"proxied,omitempty" json:"proxied,omitempty"`
	ZoneName string     `yaml:"zone" json:"zoneName"`
}

// Identity is the diff key: content is deliberately not part of it.
type Identity struct {
	Type RecordType
	Name string
}

func (i Identity) String() string {
	return fmt.Sprintf("%s %s", i.Type, i.Name)
}

func (r *Record) Identity() Identity {
	return Identity{Type: r.Type, Name: strings.ToLower(r.Name)}
}

// DedupKey identifies a record across sources, content included.
func (r *Record) DedupKey() string {
	return strings.ToLower(r.Name) + "|" + string(r.Type) + "|" + r.Content
}

func (r *Record) IsProxied() bool {
	return r.Proxied != nil && *r.Proxied
}

// SameValues reports whether the mutable fields of two records agree.
func (r *Record) SameValues(other *Record) bool {
	return r.Content == other.Content && r.TTL == other.TTL && r.IsProxied() == other.IsProxied()
}

func (r *Record) Validate() error {
	if !r.Type.Valid() {
		return fmt.Errorf("%w: dns record type %s", domain.ErrInvalidType, r.Type)
	}
	if r.Name == "" {
		return domain.RequiredField("name")
	}
	if r.Content == "" {
		return domain.RequiredField("content")
	}
	if r.TTL < 0 {
		return fmt.Errorf("%w: ttl must be non-negative", domain.ErrInvalidTTL)
	}
	return nil
}

func (r *Record) String() string {
	return fmt.Sprintf("%s %s -> %s (ttl %d)", r.Type, r.Name, r.Content, r.TTL)
}

func BoolPtr(b bool) *bool {
	return &b
}
