package usecase

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/domain/retry"
	"github.com/lite-lake/dnssync/internal/domain/service"
	"github.com/lite-lake/dnssync/internal/domain/valueobject"
)

// memProvider is an in-memory DNSProvider keyed by zone.
type memProvider struct {
	mu      sync.Mutex
	name    string
	records map[string][]service.RawRecord
	nextID  int
	calls   []string
	read    []string
	// failures are consumed per record name, one error per attempt
	failures map[string][]error
}

func newMemProvider(name string, zones ...string) *memProvider {
	p := &memProvider{name: name, records: map[string][]service.RawRecord{}, failures: map[string][]error{}}
	for _, z := range zones {
		p.records[z] = nil
	}
	return p
}

func (p *memProvider) seed(zone, typ, name, content string, ttl int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	p.records[zone] = append(p.records[zone], service.RawRecord{
		ID: strconv.Itoa(p.nextID), Type: typ, Name: name, Zone: zone, Values: []string{content}, TTL: ttl,
	})
}

func (p *memProvider) fail(name string, errs ...error) {
	p.failures[name] = append(p.failures[name], errs...)
}

func (p *memProvider) popFailure(name string) error {
	errs := p.failures[name]
	if len(errs) == 0 {
		return nil
	}
	p.failures[name] = errs[1:]
	return errs[0]
}

func (p *memProvider) Name() string { return p.name }

func (p *memProvider) ListZones(context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	zones := make([]string, 0, len(p.records))
	for z := range p.records {
		zones = append(zones, z)
	}
	sort.Strings(zones)
	return zones, nil
}

func (p *memProvider) ListRecords(_ context.Context, zone string) ([]service.RawRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.read = append(p.read, zone)
	recs, ok := p.records[zone]
	if !ok {
		return nil, domain.ErrDNSDomainNotFound
	}
	return append([]service.RawRecord(nil), recs...), nil
}

func (p *memProvider) CreateRecord(_ context.Context, zone string, r *entity.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "create "+r.Name)
	if err := p.popFailure(r.Name); err != nil {
		return err
	}
	p.nextID++
	p.records[zone] = append(p.records[zone], service.RawRecord{
		ID: strconv.Itoa(p.nextID), Type: string(r.Type), Name: r.Name, Zone: zone, Values: []string{r.Content}, TTL: r.TTL, Proxied: r.Proxied,
	})
	return nil
}

func (p *memProvider) UpdateRecord(_ context.Context, zone string, r *entity.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "update "+r.Name)
	if err := p.popFailure(r.Name); err != nil {
		return err
	}
	for i, raw := range p.records[zone] {
		if raw.ID == r.ID {
			p.records[zone][i] = service.RawRecord{
				ID: raw.ID, Type: string(r.Type), Name: r.Name, Zone: zone, Values: []string{r.Content}, TTL: r.TTL, Proxied: r.Proxied,
			}
			return nil
		}
	}
	return domain.ErrDNSRecordNotFound
}

func (p *memProvider) DeleteRecord(_ context.Context, zone string, r *entity.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "delete "+r.Name)
	if err := p.popFailure(r.Name); err != nil {
		return err
	}
	for i, raw := range p.records[zone] {
		if raw.ID == r.ID {
			p.records[zone] = append(p.records[zone][:i], p.records[zone][i+1:]...)
			return nil
		}
	}
	return domain.ErrDNSRecordNotFound
}

type recordingLocker struct {
	mu    sync.Mutex
	order []string
	held  int
}

func (l *recordingLocker) Lock(_ context.Context, vendor entity.VendorType, zone string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.order = append(l.order, fmt.Sprintf("%s/%s", vendor, zone))
	l.held++
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.held--
	}, nil
}

func fastRetry() []retry.Option {
	return []retry.Option{retry.WithInitialDelay(time.Millisecond), retry.WithMaxDelay(2 * time.Millisecond)}
}

func newTestSyncer(p *memProvider, locker *recordingLocker) *RecordSyncer {
	cfg := &RecordSyncerConfig{Provider: p, Vendor: entity.VendorAliyun, Retry: fastRetry()}
	if locker != nil {
		cfg.Locker = locker
	}
	return NewRecordSyncer(cfg)
}

func desiredRecord(zone, typ, name, content string, ttl int) entity.Record {
	return entity.Record{Type: entity.RecordType(typ), Name: name, Content: content, TTL: ttl, ZoneName: zone}
}

func TestRecordSyncer_FetchRecords(t *testing.T) {
	p := newMemProvider("aliyun", "example.com", "example.org")
	p.seed("example.com", "A", "www.example.com", "1.1.1.1", 600)
	p.seed("example.com", "BOGUS", "odd.example.com", "x", 600)
	p.seed("example.com", "TXT", "skip.example.com", "hello", 600)
	p.seed("example.org", "A", "example.org", "2.2.2.2", 600)

	s := newTestSyncer(p, nil)
	cfg := &entity.ProviderConfig{
		ID:             "src",
		IncludeFilters: entity.FilterRules{{DomainPattern: "example.com"}},
		ExcludeFilters: entity.FilterRules{{DomainPattern: "skip.example.com"}},
	}

	got, err := s.FetchRecords(context.Background(), cfg)
	if err != nil {
		t.Fatalf("FetchRecords() error = %v", err)
	}
	if len(got) != 1 || got[0].Name != "www.example.com" || got[0].ZoneName != "example.com" {
		t.Errorf("FetchRecords() = %+v", got)
	}
	if want := []string{"example.com"}; !slices.Equal(p.read, want) {
		t.Errorf("zones read = %v, want %v", p.read, want)
	}
}

func TestRecordSyncer_FetchRecords_ZoneSelection(t *testing.T) {
	tests := []struct {
		name string
		cfg  entity.ProviderConfig
		want []string
	}{
		{"explicit zones skip listing", entity.ProviderConfig{Zones: []string{"example.org"}}, []string{"example.org"}},
		{"exact subdomain include", entity.ProviderConfig{IncludeFilters: entity.FilterRules{{DomainPattern: "www.example.com"}}}, []string{"example.com"}},
		{"wildcard include", entity.ProviderConfig{IncludeFilters: entity.FilterRules{{DomainPattern: "*.example.org"}}}, []string{"example.org"}},
		{"no include reads all", entity.ProviderConfig{}, []string{"example.com", "example.net", "example.org"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newMemProvider("aliyun", "example.com", "example.net", "example.org")
			s := newTestSyncer(p, nil)
			cfg := tt.cfg
			cfg.ID = "src"
			if _, err := s.FetchRecords(context.Background(), &cfg); err != nil {
				t.Fatalf("FetchRecords() error = %v", err)
			}
			if !slices.Equal(p.read, tt.want) {
				t.Errorf("zones read = %v, want %v", p.read, tt.want)
			}
		})
	}
}

func TestRecordSyncer_FetchRecords_ExplicitZoneMissing(t *testing.T) {
	p := newMemProvider("aliyun", "example.com")
	s := newTestSyncer(p, nil)
	_, err := s.FetchRecords(context.Background(), &entity.ProviderConfig{ID: "t", Zones: []string{"nope.com"}})
	if !errors.Is(err, domain.ErrDNSDomainNotFound) {
		t.Errorf("error = %v, want ErrDNSDomainNotFound", err)
	}
}

func TestRecordSyncer_ApplyRecords_OrderAndCounts(t *testing.T) {
	p := newMemProvider("aliyun", "example.com")
	p.seed("example.com", "A", "www.example.com", "1.1.1.1", 600)
	p.seed("example.com", "A", "old.example.com", "9.9.9.9", 600)
	p.seed("example.com", "NS", "example.com", "ns1.example.net", 600)

	locker := &recordingLocker{}
	s := newTestSyncer(p, locker)
	desired := []entity.Record{
		desiredRecord("example.com", "A", "www.example.com", "2.2.2.2", 600),
		desiredRecord("example.com", "A", "api.example.com", "3.3.3.3", 600),
	}
	opts := valueobject.SyncOptions{OverwriteAll: true, DeleteExtra: true}

	res, err := s.ApplyRecords(context.Background(), &entity.ProviderConfig{ID: "t"}, desired, opts)
	if err != nil {
		t.Fatalf("ApplyRecords() error = %v", err)
	}
	if res.Updated != 1 || res.Created != 1 || res.Deleted != 1 || len(res.FailedOperations) != 0 {
		t.Errorf("result = %+v", res)
	}
	want := []string{"update www.example.com", "create api.example.com", "delete old.example.com"}
	if !reflect.DeepEqual(p.calls, want) {
		t.Errorf("calls = %v, want %v", p.calls, want)
	}
	if !reflect.DeepEqual(locker.order, []string{"aliyun/example.com"}) || locker.held != 0 {
		t.Errorf("locks = %v held=%d", locker.order, locker.held)
	}

	again, err := s.PlanRecords(context.Background(), &entity.ProviderConfig{ID: "t"}, desired, opts)
	if err != nil {
		t.Fatalf("PlanRecords() error = %v", err)
	}
	if !again.IsEmpty() {
		t.Errorf("second plan should be empty, got %+v", again)
	}
}

func TestRecordSyncer_ApplyRecords_PartialFailure(t *testing.T) {
	p := newMemProvider("aliyun", "example.com")
	p.fail("bad.example.com", domain.ErrProviderAuth)
	p.fail("flaky.example.com", domain.ErrProviderRateLimit)

	s := newTestSyncer(p, nil)
	desired := []entity.Record{
		desiredRecord("example.com", "A", "bad.example.com", "1.1.1.1", 600),
		desiredRecord("example.com", "A", "flaky.example.com", "2.2.2.2", 600),
		desiredRecord("example.com", "A", "good.example.com", "3.3.3.3", 600),
	}

	res, err := s.ApplyRecords(context.Background(), &entity.ProviderConfig{ID: "t"}, desired, valueobject.DefaultSyncOptions())
	if err != nil {
		t.Fatalf("ApplyRecords() error = %v", err)
	}
	if res.Created != 2 {
		t.Errorf("created = %d, want 2", res.Created)
	}
	if len(res.FailedOperations) != 1 || res.FailedOperations[0].Record.Name != "bad.example.com" {
		t.Fatalf("failed ops = %+v", res.FailedOperations)
	}
	if res.FailedOperations[0].Kind != "CREATE" {
		t.Errorf("kind = %q", res.FailedOperations[0].Kind)
	}

	attempts := map[string]int{}
	for _, c := range p.calls {
		attempts[c]++
	}
	if attempts["create bad.example.com"] != 1 {
		t.Errorf("auth errors must not be retried, got %d attempts", attempts["create bad.example.com"])
	}
	if attempts["create flaky.example.com"] != 2 {
		t.Errorf("rate limit should be retried once, got %d attempts", attempts["create flaky.example.com"])
	}
}

func TestRecordSyncer_AdaptsForeignRecords(t *testing.T) {
	p := newMemProvider("aliyun", "example.com")
	p.seed("example.com", "A", "www.example.com", "1.1.1.1", 600)

	s := newTestSyncer(p, nil)
	// a proxied record with Cloudflare's automatic TTL
	desired := []entity.Record{{
		Type: entity.RecordTypeA, Name: "www.example.com", Content: "1.1.1.1", TTL: 1,
		Proxied: entity.BoolPtr(true), ZoneName: "example.com",
	}}

	actions, err := s.PlanRecords(context.Background(), &entity.ProviderConfig{ID: "t"}, desired, valueobject.DefaultSyncOptions())
	if err != nil {
		t.Fatalf("PlanRecords() error = %v", err)
	}
	if !actions.IsEmpty() {
		t.Errorf("record is already converged for this vendor, got %+v", actions)
	}
}

func TestRecordSyncer_TargetRulesProtectForeignRecords(t *testing.T) {
	p := newMemProvider("aliyun", "example.com")
	p.seed("example.com", "A", "managed.example.com", "1.1.1.1", 600)
	p.seed("example.com", "A", "manual.example.com", "9.9.9.9", 600)

	s := newTestSyncer(p, nil)
	cfg := &entity.ProviderConfig{ID: "t", ExcludeFilters: entity.FilterRules{{DomainPattern: "manual.example.com"}}}
	desired := []entity.Record{desiredRecord("example.com", "A", "managed.example.com", "1.1.1.1", 600)}

	actions, err := s.PlanRecords(context.Background(), cfg, desired, valueobject.SyncOptions{OverwriteAll: true, DeleteExtra: true})
	if err != nil {
		t.Fatalf("PlanRecords() error = %v", err)
	}
	if len(actions.Deletes) != 0 {
		t.Errorf("excluded record must not be deleted: %+v", actions.Deletes)
	}
}

// zoneMutex serializes every zone on one mutex, like ZoneLocker does per key.
type zoneMutex struct {
	mu sync.Mutex
}

func (l *zoneMutex) Lock(context.Context, entity.VendorType, string) (func(), error) {
	l.mu.Lock()
	return l.mu.Unlock, nil
}

// slowListing holds the first ListRecords open until a second listing starts
// or the window passes, so two unserialized runs would both plan against the
// same empty zone.
type slowListing struct {
	*memProvider
	mu      sync.Mutex
	listing int
	second  chan struct{}
}

func (p *slowListing) ListRecords(ctx context.Context, zone string) ([]service.RawRecord, error) {
	p.mu.Lock()
	p.listing++
	n := p.listing
	p.mu.Unlock()

	if n == 1 {
		select {
		case <-p.second:
		case <-time.After(50 * time.Millisecond):
		}
	} else if n == 2 {
		close(p.second)
	}
	return p.memProvider.ListRecords(ctx, zone)
}

func TestRecordSyncer_ApplyRecords_ConcurrentRunsSerializePerZone(t *testing.T) {
	p := &slowListing{memProvider: newMemProvider("aliyun", "example.com"), second: make(chan struct{})}
	locker := &zoneMutex{}
	desired := []entity.Record{desiredRecord("example.com", "A", "app.example.com", "1.2.3.4", 600)}
	opts := valueobject.SyncOptions{OverwriteAll: true}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := NewRecordSyncer(&RecordSyncerConfig{Provider: p, Vendor: entity.VendorAliyun, Locker: locker, Retry: fastRetry()})
			_, errs[i] = s.ApplyRecords(context.Background(), &entity.ProviderConfig{ID: "t"}, desired, opts)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("run %d error = %v", i, err)
		}
	}
	if got := len(p.records["example.com"]); got != 1 {
		t.Errorf("records on target = %d, want 1 (calls %v)", got, p.calls)
	}
	if !reflect.DeepEqual(p.calls, []string{"create app.example.com"}) {
		t.Errorf("calls = %v, want a single create", p.calls)
	}
}
