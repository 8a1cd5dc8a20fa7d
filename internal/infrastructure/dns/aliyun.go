package dns

import (
	"context"

	alidns "github.com/alibabacloud-go/alidns-20150109/v4/client"
	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	"github.com/alibabacloud-go/tea/tea"

	domainerr "github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/domain/service"
	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
)

const aliyunPageSize = 500

type AliyunProvider struct {
	client *alidns.Client
}

func NewAliyunProvider(accessKeyID, accessKeySecret string) (*AliyunProvider, error) {
	config := &openapi.Config{
		AccessKeyId:     tea.String(accessKeyID),
		AccessKeySecret: tea.String(accessKeySecret),
	}
	config.Endpoint = tea.String("dns.aliyuncs.com")
	client, err := alidns.NewClient(config)
	if err != nil {
		return nil, domainerr.WrapOp("create aliyun dns client", err)
	}
	return &AliyunProvider{client: client}, nil
}

func (p *AliyunProvider) Name() string {
	return string(entity.VendorAliyun)
}

// The alidns client takes no context, so cancellation is checked between pages and calls.
func (p *AliyunProvider) ListZones(ctx context.Context) ([]string, error) {
	var domains []string
	for page := int64(1); ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := p.client.DescribeDomains(&alidns.DescribeDomainsRequest{
			PageNumber: tea.Int64(page),
			PageSize:   tea.Int64(100),
		})
		if err != nil {
			return nil, ClassifyError("list domains", err)
		}
		if resp.Body == nil || resp.Body.Domains == nil || len(resp.Body.Domains.Domain) == 0 {
			break
		}
		for _, d := range resp.Body.Domains.Domain {
			domains = append(domains, tea.StringValue(d.DomainName))
		}
		if int64(len(domains)) >= tea.Int64Value(resp.Body.TotalCount) {
			break
		}
	}
	return domains, nil
}

func (p *AliyunProvider) ListRecords(ctx context.Context, zone string) ([]RawRecord, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing DNS records", "provider", "aliyun", "domain", zone)

	var records []RawRecord
	for page := int64(1); ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := p.client.DescribeDomainRecords(&alidns.DescribeDomainRecordsRequest{
			DomainName: tea.String(zone),
			PageNumber: tea.Int64(page),
			PageSize:   tea.Int64(aliyunPageSize),
		})
		if err != nil {
			log.Error("failed to list records", "domain", zone, "error", err)
			return nil, ClassifyError("list records", err)
		}
		if resp.Body == nil || resp.Body.DomainRecords == nil || len(resp.Body.DomainRecords.Record) == 0 {
			break
		}
		for _, r := range resp.Body.DomainRecords.Record {
			raw := RawRecord{
				ID:       tea.StringValue(r.RecordId),
				Type:     tea.StringValue(r.Type),
				Name:     tea.StringValue(r.RR),
				Relative: true,
				Zone:     zone,
				Values:   []string{tea.StringValue(r.Value)},
				TTL:      int(tea.Int64Value(r.TTL)),
			}
			if raw.Type == string(entity.RecordTypeMX) && r.Priority != nil {
				raw.Priority = intPtr(int(*r.Priority))
			}
			records = append(records, raw)
		}
		if int64(len(records)) >= tea.Int64Value(resp.Body.TotalCount) {
			break
		}
	}

	log.Debug("listed DNS records", "provider", "aliyun", "domain", zone, "count", len(records))
	return records, nil
}

func (p *AliyunProvider) CreateRecord(ctx context.Context, zone string, record *entity.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value, priority := aliyunValue(record)
	req := &alidns.AddDomainRecordRequest{
		DomainName: tea.String(zone),
		RR:         tea.String(service.RelativeName(record.Name, zone)),
		Type:       tea.String(string(record.Type)),
		Value:      tea.String(value),
		TTL:        tea.Int64(int64(service.WriteTTL(entity.VendorAliyun, record.TTL))),
		Priority:   priority,
	}
	if _, err := p.client.AddDomainRecord(req); err != nil {
		return ClassifyError("create record", err)
	}
	logger.FromContext(ctx).Info("DNS record created", "provider", "aliyun", "domain", zone, "name", record.Name, "type", record.Type)
	return nil
}

func (p *AliyunProvider) UpdateRecord(ctx context.Context, zone string, record *entity.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record.ID == "" {
		return ErrRecordNotFound
	}
	value, priority := aliyunValue(record)
	req := &alidns.UpdateDomainRecordRequest{
		RecordId: tea.String(record.ID),
		RR:       tea.String(service.RelativeName(record.Name, zone)),
		Type:     tea.String(string(record.Type)),
		Value:    tea.String(value),
		TTL:      tea.Int64(int64(service.WriteTTL(entity.VendorAliyun, record.TTL))),
		Priority: priority,
	}
	if _, err := p.client.UpdateDomainRecord(req); err != nil {
		return ClassifyError("update record", err)
	}
	logger.FromContext(ctx).Info("DNS record updated", "provider", "aliyun", "domain", zone, "record_id", record.ID)
	return nil
}

func (p *AliyunProvider) DeleteRecord(ctx context.Context, zone string, record *entity.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record.ID == "" {
		return ErrRecordNotFound
	}
	if _, err := p.client.DeleteDomainRecord(&alidns.DeleteDomainRecordRequest{
		RecordId: tea.String(record.ID),
	}); err != nil {
		return ClassifyError("delete record", err)
	}
	logger.FromContext(ctx).Info("DNS record deleted", "provider", "aliyun", "domain", zone, "record_id", record.ID)
	return nil
}

// aliyunValue splits MX priority into its own field; SRV keeps it inline.
func aliyunValue(record *entity.Record) (string, *int64) {
	if record.Type != entity.RecordTypeMX {
		return record.Content, nil
	}
	priority, host := SplitPriority(record.Content)
	return host, tea.Int64(int64(priority))
}
