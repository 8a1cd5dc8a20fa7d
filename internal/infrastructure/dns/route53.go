package dns

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"

	domainerr "github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/domain/service"
	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
)

const route53DefaultRegion = "us-east-1"

// Route53API is the slice of the route53 client the provider uses.
type Route53API interface {
	ListHostedZones(ctx context.Context, params *route53.ListHostedZonesInput, optFns ...func(*route53.Options)) (*route53.ListHostedZonesOutput, error)
	ListResourceRecordSets(ctx context.Context, params *route53.ListResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ListResourceRecordSetsOutput, error)
	ChangeResourceRecordSets(ctx context.Context, params *route53.ChangeResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ChangeResourceRecordSetsOutput, error)
}

// Route53Provider addresses record sets by name and type; the record id is "name|type".
type Route53Provider struct {
	client Route53API
	zones  zoneCache
}

// NewRoute53Provider uses static keys when given, otherwise the default AWS credential chain.
func NewRoute53Provider(ctx context.Context, accessKeyID, secretAccessKey, region string) (*Route53Provider, error) {
	if region == "" {
		region = route53DefaultRegion
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if accessKeyID != "" && secretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, domainerr.WrapOp("load aws config", err)
	}
	return NewRoute53ProviderWithClient(route53.NewFromConfig(cfg)), nil
}

func NewRoute53ProviderWithClient(client Route53API) *Route53Provider {
	return &Route53Provider{client: client}
}

func (p *Route53Provider) Name() string {
	return string(entity.VendorRoute53)
}

func fqdn(name string) string {
	if strings.HasSuffix(name, ".") {
		return name
	}
	return name + "."
}

func (p *Route53Provider) ListZones(ctx context.Context) ([]string, error) {
	var names []string
	input := &route53.ListHostedZonesInput{}
	for {
		out, err := p.client.ListHostedZones(ctx, input)
		if err != nil {
			return nil, ClassifyError("list hosted zones", err)
		}
		for _, z := range out.HostedZones {
			if z.Config != nil && z.Config.PrivateZone {
				continue
			}
			name := strings.TrimSuffix(aws.ToString(z.Name), ".")
			p.zones.put(name, aws.ToString(z.Id))
			names = append(names, name)
		}
		if !out.IsTruncated || out.NextMarker == nil {
			break
		}
		input.Marker = out.NextMarker
	}
	return names, nil
}

func (p *Route53Provider) hostedZoneID(ctx context.Context, zone string) (string, error) {
	if id, ok := p.zones.get(zone); ok {
		return id, nil
	}
	if _, err := p.ListZones(ctx); err != nil {
		return "", err
	}
	if id, ok := p.zones.get(zone); ok {
		return id, nil
	}
	return "", ErrDomainNotFound
}

func (p *Route53Provider) ListRecords(ctx context.Context, zone string) ([]RawRecord, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing DNS records", "provider", "route53", "domain", zone)

	zoneID, err := p.hostedZoneID(ctx, zone)
	if err != nil {
		return nil, err
	}

	var records []RawRecord
	input := &route53.ListResourceRecordSetsInput{HostedZoneId: aws.String(zoneID)}
	for {
		out, err := p.client.ListResourceRecordSets(ctx, input)
		if err != nil {
			log.Error("failed to list records", "domain", zone, "error", err)
			return nil, ClassifyError("list records", err)
		}
		for _, set := range out.ResourceRecordSets {
			// alias targets have no values of their own
			if set.AliasTarget != nil || len(set.ResourceRecords) == 0 {
				continue
			}
			name := strings.TrimSuffix(aws.ToString(set.Name), ".")
			values := make([]string, 0, len(set.ResourceRecords))
			for _, rr := range set.ResourceRecords {
				values = append(values, aws.ToString(rr.Value))
			}
			records = append(records, RawRecord{
				ID:     name + "|" + string(set.Type),
				Type:   string(set.Type),
				Name:   name,
				Zone:   zone,
				Values: values,
				TTL:    int(aws.ToInt64(set.TTL)),
			})
		}
		if !out.IsTruncated {
			break
		}
		input.StartRecordName = out.NextRecordName
		input.StartRecordType = out.NextRecordType
		input.StartRecordIdentifier = out.NextRecordIdentifier
	}

	log.Debug("listed DNS records", "provider", "route53", "domain", zone, "count", len(records))
	return records, nil
}

func (p *Route53Provider) change(ctx context.Context, zone string, action types.ChangeAction, record *entity.Record) error {
	zoneID, err := p.hostedZoneID(ctx, zone)
	if err != nil {
		return err
	}
	value := record.Content
	if record.Type == entity.RecordTypeTXT {
		value = `"` + strings.ReplaceAll(value, `"`, `\"`) + `"`
	}
	set := &types.ResourceRecordSet{
		Name:            aws.String(fqdn(record.Name)),
		Type:            types.RRType(record.Type),
		TTL:             aws.Int64(int64(service.WriteTTL(entity.VendorRoute53, record.TTL))),
		ResourceRecords: []types.ResourceRecord{{Value: aws.String(value)}},
	}
	_, err = p.client.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(zoneID),
		ChangeBatch: &types.ChangeBatch{
			Changes: []types.Change{{Action: action, ResourceRecordSet: set}},
		},
	})
	return err
}

func (p *Route53Provider) CreateRecord(ctx context.Context, zone string, record *entity.Record) error {
	if err := p.change(ctx, zone, types.ChangeActionCreate, record); err != nil {
		return ClassifyError("create record", err)
	}
	logger.FromContext(ctx).Info("DNS record created", "provider", "route53", "domain", zone, "name", record.Name, "type", record.Type)
	return nil
}

// UpdateRecord upserts: Route 53 has no per-record id to edit.
func (p *Route53Provider) UpdateRecord(ctx context.Context, zone string, record *entity.Record) error {
	if err := p.change(ctx, zone, types.ChangeActionUpsert, record); err != nil {
		return ClassifyError("update record", err)
	}
	logger.FromContext(ctx).Info("DNS record updated", "provider", "route53", "domain", zone, "name", record.Name, "type", record.Type)
	return nil
}

// DeleteRecord needs the record's current values, which the diff carries.
func (p *Route53Provider) DeleteRecord(ctx context.Context, zone string, record *entity.Record) error {
	if err := p.change(ctx, zone, types.ChangeActionDelete, record); err != nil {
		return ClassifyError("delete record", err)
	}
	logger.FromContext(ctx).Info("DNS record deleted", "provider", "route53", "domain", zone, "name", record.Name, "type", record.Type)
	return nil
}
