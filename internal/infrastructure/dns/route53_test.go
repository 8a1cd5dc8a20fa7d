package dns

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/domain/service"
)

type fakeRoute53 struct {
	zones   []types.HostedZone
	pages   [][]types.ResourceRecordSet
	changes []types.Change
	err     error
}

func (f *fakeRoute53) ListHostedZones(_ context.Context, _ *route53.ListHostedZonesInput, _ ...func(*route53.Options)) (*route53.ListHostedZonesOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &route53.ListHostedZonesOutput{HostedZones: f.zones}, nil
}

func (f *fakeRoute53) ListResourceRecordSets(_ context.Context, in *route53.ListResourceRecordSetsInput, _ ...func(*route53.Options)) (*route53.ListResourceRecordSetsOutput, error) {
	page := 0
	if in.StartRecordName != nil {
		page = 1
	}
	out := &route53.ListResourceRecordSetsOutput{ResourceRecordSets: f.pages[page]}
	if page+1 < len(f.pages) {
		out.IsTruncated = true
		out.NextRecordName = aws.String("next.example.com.")
		out.NextRecordType = types.RRTypeA
	}
	return out, nil
}

func (f *fakeRoute53) ChangeResourceRecordSets(_ context.Context, in *route53.ChangeResourceRecordSetsInput, _ ...func(*route53.Options)) (*route53.ChangeResourceRecordSetsOutput, error) {
	f.changes = append(f.changes, in.ChangeBatch.Changes...)
	return &route53.ChangeResourceRecordSetsOutput{}, nil
}

func newFakeRoute53() *fakeRoute53 {
	return &fakeRoute53{
		zones: []types.HostedZone{
			{Id: aws.String("/hostedzone/Z1"), Name: aws.String("example.com.")},
			{Id: aws.String("/hostedzone/Z2"), Name: aws.String("internal.example."), Config: &types.HostedZoneConfig{PrivateZone: true}},
		},
		pages: [][]types.ResourceRecordSet{
			{
				{Name: aws.String("example.com."), Type: types.RRTypeA, TTL: aws.Int64(300), ResourceRecords: []types.ResourceRecord{{Value: aws.String("1.2.3.4")}}},
				{Name: aws.String("alias.example.com."), Type: types.RRTypeA, AliasTarget: &types.AliasTarget{DNSName: aws.String("lb.aws.")}},
			},
			{
				{Name: aws.String("txt.example.com."), Type: types.RRTypeTxt, TTL: aws.Int64(60), ResourceRecords: []types.ResourceRecord{{Value: aws.String(`"v=spf1 -all"`)}}},
			},
		},
	}
}

func TestRoute53Provider_ListZonesSkipsPrivate(t *testing.T) {
	p := NewRoute53ProviderWithClient(newFakeRoute53())
	zones, err := p.ListZones(context.Background())
	if err != nil {
		t.Fatalf("ListZones() error = %v", err)
	}
	if len(zones) != 1 || zones[0] != "example.com" {
		t.Errorf("zones = %v, want [example.com]", zones)
	}
}

func TestRoute53Provider_ListRecords(t *testing.T) {
	p := NewRoute53ProviderWithClient(newFakeRoute53())
	raws, err := p.ListRecords(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("ListRecords() error = %v", err)
	}
	if len(raws) != 2 {
		t.Fatalf("expected 2 records across pages without the alias, got %d", len(raws))
	}
	if raws[0].ID != "example.com|A" {
		t.Errorf("id = %q, want name|type", raws[0].ID)
	}

	records, err := service.NormalizeAll(entity.VendorRoute53, raws)
	if err != nil {
		t.Fatalf("NormalizeAll() error = %v", err)
	}
	if records[1].Content != "v=spf1 -all" {
		t.Errorf("TXT content = %q, quotes should be stripped", records[1].Content)
	}
}

func TestRoute53Provider_UnknownZone(t *testing.T) {
	p := NewRoute53ProviderWithClient(newFakeRoute53())
	_, err := p.ListRecords(context.Background(), "other.com")
	if !errors.Is(err, domain.ErrDNSDomainNotFound) {
		t.Errorf("error = %v, want ErrDNSDomainNotFound", err)
	}
}

func TestRoute53Provider_Writes(t *testing.T) {
	fake := newFakeRoute53()
	p := NewRoute53ProviderWithClient(fake)
	ctx := context.Background()

	txt := &entity.Record{Type: entity.RecordTypeTXT, Name: "txt.example.com", Content: "v=spf1 -all", TTL: 1}
	if err := p.CreateRecord(ctx, "example.com", txt); err != nil {
		t.Fatalf("CreateRecord() error = %v", err)
	}
	a := &entity.Record{Type: entity.RecordTypeA, Name: "example.com", Content: "5.6.7.8", TTL: 120}
	if err := p.UpdateRecord(ctx, "example.com", a); err != nil {
		t.Fatalf("UpdateRecord() error = %v", err)
	}
	if err := p.DeleteRecord(ctx, "example.com", a); err != nil {
		t.Fatalf("DeleteRecord() error = %v", err)
	}

	if len(fake.changes) != 3 {
		t.Fatalf("expected 3 changes, got %d", len(fake.changes))
	}
	wantActions := []types.ChangeAction{types.ChangeActionCreate, types.ChangeActionUpsert, types.ChangeActionDelete}
	for i, c := range fake.changes {
		if c.Action != wantActions[i] {
			t.Errorf("change[%d] action = %s, want %s", i, c.Action, wantActions[i])
		}
	}

	created := fake.changes[0].ResourceRecordSet
	if aws.ToString(created.Name) != "txt.example.com." {
		t.Errorf("name = %q, want trailing dot", aws.ToString(created.Name))
	}
	if v := aws.ToString(created.ResourceRecords[0].Value); v != `"v=spf1 -all"` {
		t.Errorf("TXT value = %q, want quoted", v)
	}
	if aws.ToInt64(created.TTL) != 300 {
		t.Errorf("automatic TTL should map to 300, got %d", aws.ToInt64(created.TTL))
	}
}

func TestRoute53Provider_ClassifiesListError(t *testing.T) {
	fake := newFakeRoute53()
	fake.err = errors.New("429 too many requests")
	p := NewRoute53ProviderWithClient(fake)
	if _, err := p.ListZones(context.Background()); !errors.Is(err, domain.ErrProviderRateLimit) {
		t.Errorf("error = %v, want rate limit", err)
	}
}
