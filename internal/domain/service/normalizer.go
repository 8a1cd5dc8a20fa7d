package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/entity"
)

// RawRecord is a vendor record lifted out of its SDK type but not yet canonical.
type RawRecord struct {
	ID   string
	Type string
	Name string
	// Relative is set when Name is relative to Zone ("@", "www").
	Relative bool
	Zone     string
	Values   []string
	TTL      int
	Priority *int
	Proxied  *bool
}

var defaultTTLs = map[entity.VendorType]int{
	entity.VendorCloudflare: 1,
	entity.VendorAliyun:     600,
	entity.VendorDNSPod:     600,
	entity.VendorRoute53:    300,
}

func DefaultTTL(vendor entity.VendorType) int {
	if ttl, ok := defaultTTLs[vendor]; ok {
		return ttl
	}
	return domain.DefaultRecordTTL
}

var hostnameContentTypes = map[entity.RecordType]bool{
	entity.RecordTypeCNAME: true,
	entity.RecordTypeNS:    true,
	entity.RecordTypePTR:   true,
	entity.RecordTypeMX:    true,
	entity.RecordTypeSRV:   true,
}

// Normalize turns a vendor record into a canonical Record. It is pure and
// fails only with a MalformedRecordError.
func Normalize(vendor entity.VendorType, raw RawRecord) (entity.Record, error) {
	malformed := func(reason string) (entity.Record, error) {
		return entity.Record{}, domain.NewMalformedRecord(string(vendor), raw.ID, reason)
	}

	rt, err := entity.ParseRecordType(raw.Type)
	if err != nil {
		return malformed(fmt.Sprintf("unknown type %q", raw.Type))
	}

	zone := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(raw.Zone), "."))
	name := strings.TrimSuffix(strings.TrimSpace(raw.Name), ".")
	if raw.Relative {
		if zone == "" {
			return malformed("relative name without zone")
		}
		switch name {
		case "", "@":
			name = zone
		default:
			name = name + "." + zone
		}
	}
	if name == "" {
		return malformed("missing name")
	}

	if len(raw.Values) == 0 {
		return malformed("missing content")
	}
	content := strings.TrimSpace(raw.Values[0])
	if hostnameContentTypes[rt] {
		content = strings.TrimSuffix(content, ".")
	}
	if rt == entity.RecordTypeTXT && vendor == entity.VendorRoute53 {
		content = unquoteTXT(content)
	}
	if raw.Priority != nil && (rt == entity.RecordTypeMX || rt == entity.RecordTypeSRV) {
		content = fmt.Sprintf("%d %s", *raw.Priority, content)
	}
	if content == "" {
		return malformed("missing content")
	}

	ttl := raw.TTL
	if ttl <= 0 {
		ttl = DefaultTTL(vendor)
	}

	return entity.Record{
		ID:       raw.ID,
		Type:     rt,
		Name:     name,
		Content:  content,
		TTL:      ttl,
		Proxied:  raw.Proxied,
		ZoneName: zone,
	}, nil
}

// NormalizeAll converts every raw record it can; malformed ones are returned
// joined in the error while the rest still come back.
func NormalizeAll(vendor entity.VendorType, raws []RawRecord) ([]entity.Record, error) {
	records := make([]entity.Record, 0, len(raws))
	var errs []error
	for _, raw := range raws {
		r, err := Normalize(vendor, raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		records = append(records, r)
	}
	return records, errors.Join(errs...)
}

// unquoteTXT strips one pair of surrounding quotes from a single-string TXT value.
func unquoteTXT(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		inner := s[1 : len(s)-1]
		if !strings.Contains(inner, `" "`) {
			return strings.ReplaceAll(inner, `\"`, `"`)
		}
	}
	return s
}

// RelativeName is the inverse of relative-name expansion, for vendors that
// address records by subdomain label.
func RelativeName(name, zone string) string {
	name = strings.TrimSuffix(strings.ToLower(name), ".")
	zone = strings.TrimSuffix(strings.ToLower(zone), ".")
	if name == zone {
		return "@"
	}
	return strings.TrimSuffix(name, "."+zone)
}

// WriteTTL adapts a TTL to what the target vendor accepts. Cloudflare's
// "automatic" TTL of 1 has no meaning elsewhere and maps to the vendor default.
func WriteTTL(vendor entity.VendorType, ttl int) int {
	if vendor == entity.VendorCloudflare {
		if ttl <= 0 {
			return 1
		}
		return ttl
	}
	if ttl <= 1 {
		return DefaultTTL(vendor)
	}
	return ttl
}
