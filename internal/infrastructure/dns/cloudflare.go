package dns

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cloudflare/cloudflare-go/v2"
	"github.com/cloudflare/cloudflare-go/v2/dns"
	"github.com/cloudflare/cloudflare-go/v2/option"
	"github.com/cloudflare/cloudflare-go/v2/zones"

	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
)

type CloudflareProvider struct {
	client    *cloudflare.Client
	accountID string
	zones     zoneCache
}

func NewCloudflareProvider(apiToken, accountID string, opts ...option.RequestOption) *CloudflareProvider {
	opts = append([]option.RequestOption{option.WithAPIToken(apiToken)}, opts...)
	return &CloudflareProvider{client: cloudflare.NewClient(opts...), accountID: accountID}
}

func (p *CloudflareProvider) Name() string {
	return string(entity.VendorCloudflare)
}

func (p *CloudflareProvider) getZoneID(ctx context.Context, zone string) (string, error) {
	if id, ok := p.zones.get(zone); ok {
		return id, nil
	}
	params := zones.ZoneListParams{Name: cloudflare.F(zone)}
	if p.accountID != "" {
		params.Account = cloudflare.F(zones.ZoneListParamsAccount{ID: cloudflare.F(p.accountID)})
	}
	resp, err := p.client.Zones.List(ctx, params)
	if err != nil {
		return "", ClassifyError("list zones", err)
	}
	if len(resp.Result) == 0 {
		return "", ErrDomainNotFound
	}
	p.zones.put(zone, resp.Result[0].ID)
	return resp.Result[0].ID, nil
}

func (p *CloudflareProvider) ListZones(ctx context.Context) ([]string, error) {
	params := zones.ZoneListParams{}
	if p.accountID != "" {
		params.Account = cloudflare.F(zones.ZoneListParamsAccount{ID: cloudflare.F(p.accountID)})
	}
	var names []string
	pager := p.client.Zones.ListAutoPaging(ctx, params)
	for pager.Next() {
		z := pager.Current()
		p.zones.put(z.Name, z.ID)
		names = append(names, z.Name)
	}
	if err := pager.Err(); err != nil {
		return nil, ClassifyError("list zones", err)
	}
	return names, nil
}

func (p *CloudflareProvider) ListRecords(ctx context.Context, zone string) ([]RawRecord, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing DNS records", "provider", "cloudflare", "domain", zone)

	zoneID, err := p.getZoneID(ctx, zone)
	if err != nil {
		log.Error("failed to get zone ID", "domain", zone, "error", err)
		return nil, err
	}

	var records []RawRecord
	pager := p.client.DNS.Records.ListAutoPaging(ctx, dns.RecordListParams{
		ZoneID: cloudflare.F(zoneID),
	})
	for pager.Next() {
		record := pager.Current()
		content := ""
		if str, ok := record.Content.(string); ok {
			content = str
		}
		priority, proxied := cloudflareExtras(record.JSON.RawJSON())
		records = append(records, RawRecord{
			ID:       record.ID,
			Type:     string(record.Type),
			Name:     record.Name,
			Zone:     zone,
			Values:   []string{content},
			TTL:      int(record.TTL),
			Priority: priority,
			Proxied:  proxied,
		})
	}
	if err := pager.Err(); err != nil {
		log.Error("failed to list records", "domain", zone, "error", err)
		return nil, ClassifyError("list records", err)
	}

	log.Debug("listed DNS records", "provider", "cloudflare", "domain", zone, "count", len(records))
	return records, nil
}

// cloudflareExtras reads the fields that only some record variants carry
// straight from the response body.
func cloudflareExtras(raw string) (priority *int, proxied *bool) {
	if raw == "" {
		return nil, nil
	}
	var extra struct {
		Priority *int  `json:"priority"`
		Proxied  *bool `json:"proxied"`
	}
	if err := json.Unmarshal([]byte(raw), &extra); err != nil {
		return nil, nil
	}
	return extra.Priority, extra.Proxied
}

func (p *CloudflareProvider) CreateRecord(ctx context.Context, zone string, record *entity.Record) error {
	log := logger.FromContext(ctx)
	log.Debug("creating DNS record", "provider", "cloudflare", "domain", zone, "name", record.Name, "type", record.Type)

	zoneID, err := p.getZoneID(ctx, zone)
	if err != nil {
		return err
	}

	_, err = p.client.DNS.Records.New(ctx, dns.RecordNewParams{
		ZoneID: cloudflare.F(zoneID),
		Record: p.buildRecordParam(record),
	})
	if err != nil {
		log.Error("failed to create DNS record", "domain", zone, "name", record.Name, "error", err)
		return ClassifyError("create record", err)
	}

	log.Info("DNS record created", "provider", "cloudflare", "domain", zone, "name", record.Name, "type", record.Type)
	return nil
}

func (p *CloudflareProvider) UpdateRecord(ctx context.Context, zone string, record *entity.Record) error {
	log := logger.FromContext(ctx)
	log.Debug("updating DNS record", "provider", "cloudflare", "domain", zone, "record_id", record.ID, "name", record.Name)

	if record.ID == "" {
		return ErrRecordNotFound
	}
	zoneID, err := p.getZoneID(ctx, zone)
	if err != nil {
		return err
	}

	_, err = p.client.DNS.Records.Edit(ctx, record.ID, dns.RecordEditParams{
		ZoneID: cloudflare.F(zoneID),
		Record: p.buildRecordParam(record),
	})
	if err != nil {
		log.Error("failed to update DNS record", "domain", zone, "record_id", record.ID, "error", err)
		return ClassifyError("update record", err)
	}

	log.Info("DNS record updated", "provider", "cloudflare", "domain", zone, "record_id", record.ID)
	return nil
}

func (p *CloudflareProvider) DeleteRecord(ctx context.Context, zone string, record *entity.Record) error {
	log := logger.FromContext(ctx)
	log.Debug("deleting DNS record", "provider", "cloudflare", "domain", zone, "record_id", record.ID)

	if record.ID == "" {
		return ErrRecordNotFound
	}
	zoneID, err := p.getZoneID(ctx, zone)
	if err != nil {
		return err
	}

	_, err = p.client.DNS.Records.Delete(ctx, record.ID, dns.RecordDeleteParams{
		ZoneID: cloudflare.F(zoneID),
	})
	if err != nil {
		log.Error("failed to delete DNS record", "domain", zone, "record_id", record.ID, "error", err)
		return ClassifyError("delete record", err)
	}

	log.Info("DNS record deleted", "provider", "cloudflare", "domain", zone, "record_id", record.ID)
	return nil
}

func (p *CloudflareProvider) buildRecordParam(record *entity.Record) dns.RecordUnionParam {
	ttl := dns.TTL(record.TTL)
	if record.TTL <= 0 {
		ttl = dns.TTL(1)
	}
	switch record.Type {
	case entity.RecordTypeA:
		return dns.ARecordParam{
			Name:    cloudflare.F(record.Name),
			Type:    cloudflare.F(dns.ARecordTypeA),
			Content: cloudflare.F(record.Content),
			TTL:     cloudflare.F(ttl),
			Proxied: cloudflare.F(record.IsProxied()),
		}
	case entity.RecordTypeAAAA:
		return dns.AAAARecordParam{
			Name:    cloudflare.F(record.Name),
			Type:    cloudflare.F(dns.AAAARecordTypeAAAA),
			Content: cloudflare.F(record.Content),
			TTL:     cloudflare.F(ttl),
			Proxied: cloudflare.F(record.IsProxied()),
		}
	case entity.RecordTypeCNAME:
		return dns.CNAMERecordParam{
			Name:    cloudflare.F(record.Name),
			Type:    cloudflare.F(dns.CNAMERecordTypeCNAME),
			Content: cloudflare.F[interface{}](record.Content),
			TTL:     cloudflare.F(ttl),
			Proxied: cloudflare.F(record.IsProxied()),
		}
	case entity.RecordTypeTXT:
		return dns.TXTRecordParam{
			Name:    cloudflare.F(record.Name),
			Type:    cloudflare.F(dns.TXTRecordTypeTXT),
			Content: cloudflare.F(record.Content),
			TTL:     cloudflare.F(ttl),
		}
	case entity.RecordTypeMX:
		priority, host := SplitPriority(record.Content)
		return dns.MXRecordParam{
			Name:     cloudflare.F(record.Name),
			Type:     cloudflare.F(dns.MXRecordTypeMX),
			Content:  cloudflare.F(host),
			TTL:      cloudflare.F(ttl),
			Priority: cloudflare.F(float64(priority)),
		}
	case entity.RecordTypeNS:
		return dns.NSRecordParam{
			Name:    cloudflare.F(record.Name),
			Type:    cloudflare.F(dns.NSRecordTypeNS),
			Content: cloudflare.F(record.Content),
			TTL:     cloudflare.F(ttl),
		}
	case entity.RecordTypeSRV:
		priority, weight, port, target := ParseSRVValue(record.Content)
		return dns.SRVRecordParam{
			Name: cloudflare.F(record.Name),
			Type: cloudflare.F(dns.SRVRecordTypeSRV),
			Data: cloudflare.F(dns.SRVRecordDataParam{
				Priority: cloudflare.F(priority),
				Weight:   cloudflare.F(weight),
				Port:     cloudflare.F(port),
				Target:   cloudflare.F(target),
			}),
			TTL: cloudflare.F(ttl),
		}
	default:
		return dns.ARecordParam{
			Name:    cloudflare.F(record.Name),
			Type:    cloudflare.F(dns.ARecordType(strings.ToUpper(string(record.Type)))),
			Content: cloudflare.F(record.Content),
			TTL:     cloudflare.F(ttl),
		}
	}
}
