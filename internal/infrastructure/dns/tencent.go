package dns

import (
	"context"
	"errors"
	"strconv"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	tcerrors "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/errors"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	dnspod "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/dnspod/v20210323"

	domainerr "github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/domain/service"
	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
)

const (
	dnspodPageSize    = 3000
	dnspodDefaultLine = "默认"
	// returned instead of an empty list when a domain has no records
	dnspodNoRecords = "ResourceNotFound.NoDataOfRecord"
)

type TencentProvider struct {
	client *dnspod.Client
}

func NewTencentProvider(secretID, secretKey string) (*TencentProvider, error) {
	credential := common.NewCredential(secretID, secretKey)
	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = "dnspod.tencentcloudapi.com"
	client, err := dnspod.NewClient(credential, "", cpf)
	if err != nil {
		return nil, domainerr.WrapOp("create tencent dns client", err)
	}
	return &TencentProvider{client: client}, nil
}

func (p *TencentProvider) Name() string {
	return string(entity.VendorDNSPod)
}

func (p *TencentProvider) ListZones(ctx context.Context) ([]string, error) {
	var domains []string
	for offset := int64(0); ; {
		req := dnspod.NewDescribeDomainListRequest()
		req.Offset = common.Int64Ptr(offset)
		req.Limit = common.Int64Ptr(100)
		resp, err := p.client.DescribeDomainListWithContext(ctx, req)
		if err != nil {
			return nil, ClassifyError("list domains", err)
		}
		if resp.Response == nil || len(resp.Response.DomainList) == 0 {
			break
		}
		for _, d := range resp.Response.DomainList {
			domains = append(domains, *d.Name)
		}
		offset += int64(len(resp.Response.DomainList))
		info := resp.Response.DomainCountInfo
		if info == nil || info.AllTotal == nil || uint64(offset) >= *info.AllTotal {
			break
		}
	}
	return domains, nil
}

func (p *TencentProvider) ListRecords(ctx context.Context, zone string) ([]RawRecord, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing DNS records", "provider", "dnspod", "domain", zone)

	var records []RawRecord
	for offset := uint64(0); ; {
		req := dnspod.NewDescribeRecordListRequest()
		req.Domain = common.StringPtr(zone)
		req.Offset = common.Uint64Ptr(offset)
		req.Limit = common.Uint64Ptr(dnspodPageSize)

		resp, err := p.client.DescribeRecordListWithContext(ctx, req)
		if err != nil {
			var sdkErr *tcerrors.TencentCloudSDKError
			if errors.As(err, &sdkErr) && sdkErr.GetCode() == dnspodNoRecords {
				break
			}
			log.Error("failed to list records", "domain", zone, "error", err)
			return nil, ClassifyError("list records", err)
		}
		if resp.Response == nil || len(resp.Response.RecordList) == 0 {
			break
		}
		for _, r := range resp.Response.RecordList {
			raw := RawRecord{
				ID:       strconv.FormatUint(*r.RecordId, 10),
				Type:     *r.Type,
				Name:     *r.Name,
				Relative: true,
				Zone:     zone,
				Values:   []string{*r.Value},
			}
			if r.TTL != nil {
				raw.TTL = int(*r.TTL)
			}
			if raw.Type == string(entity.RecordTypeMX) && r.MX != nil {
				raw.Priority = intPtr(int(*r.MX))
			}
			records = append(records, raw)
		}
		offset += uint64(len(resp.Response.RecordList))
		info := resp.Response.RecordCountInfo
		if info == nil || info.TotalCount == nil || offset >= *info.TotalCount {
			break
		}
	}

	log.Debug("listed DNS records", "provider", "dnspod", "domain", zone, "count", len(records))
	return records, nil
}

func (p *TencentProvider) CreateRecord(ctx context.Context, zone string, record *entity.Record) error {
	value, mx := dnspodValue(record)

	req := dnspod.NewCreateRecordRequest()
	req.Domain = common.StringPtr(zone)
	req.SubDomain = common.StringPtr(service.RelativeName(record.Name, zone))
	req.RecordType = common.StringPtr(string(record.Type))
	req.RecordLine = common.StringPtr(dnspodDefaultLine)
	req.Value = common.StringPtr(value)
	req.TTL = common.Uint64Ptr(uint64(service.WriteTTL(entity.VendorDNSPod, record.TTL)))
	req.MX = mx

	if _, err := p.client.CreateRecordWithContext(ctx, req); err != nil {
		return ClassifyError("create record", err)
	}
	logger.FromContext(ctx).Info("DNS record created", "provider", "dnspod", "domain", zone, "name", record.Name, "type", record.Type)
	return nil
}

func (p *TencentProvider) UpdateRecord(ctx context.Context, zone string, record *entity.Record) error {
	recordID, err := parseDNSPodID(record.ID)
	if err != nil {
		return err
	}
	value, mx := dnspodValue(record)

	req := dnspod.NewModifyRecordRequest()
	req.Domain = common.StringPtr(zone)
	req.RecordId = common.Uint64Ptr(recordID)
	req.SubDomain = common.StringPtr(service.RelativeName(record.Name, zone))
	req.RecordType = common.StringPtr(string(record.Type))
	req.RecordLine = common.StringPtr(dnspodDefaultLine)
	req.Value = common.StringPtr(value)
	req.TTL = common.Uint64Ptr(uint64(service.WriteTTL(entity.VendorDNSPod, record.TTL)))
	req.MX = mx

	if _, err := p.client.ModifyRecordWithContext(ctx, req); err != nil {
		return ClassifyError("update record", err)
	}
	logger.FromContext(ctx).Info("DNS record updated", "provider", "dnspod", "domain", zone, "record_id", record.ID)
	return nil
}

func (p *TencentProvider) DeleteRecord(ctx context.Context, zone string, record *entity.Record) error {
	recordID, err := parseDNSPodID(record.ID)
	if err != nil {
		return err
	}

	req := dnspod.NewDeleteRecordRequest()
	req.Domain = common.StringPtr(zone)
	req.RecordId = common.Uint64Ptr(recordID)

	if _, err := p.client.DeleteRecordWithContext(ctx, req); err != nil {
		return ClassifyError("delete record", err)
	}
	logger.FromContext(ctx).Info("DNS record deleted", "provider", "dnspod", "domain", zone, "record_id", record.ID)
	return nil
}

func parseDNSPodID(id string) (uint64, error) {
	if id == "" {
		return 0, ErrRecordNotFound
	}
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return 0, domainerr.NewMalformedRecord(string(entity.VendorDNSPod), id, "record id is not numeric")
	}
	return n, nil
}

func dnspodValue(record *entity.Record) (string, *uint64) {
	if record.Type != entity.RecordTypeMX {
		return record.Content, nil
	}
	priority, host := SplitPriority(record.Content)
	return host, common.Uint64Ptr(uint64(priority))
}
