package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/lite-lake/dnssync/internal/constants"
	"github.com/lite-lake/dnssync/internal/domain/contract"
	"github.com/lite-lake/dnssync/internal/domain/entity"
)

const lockRetryDelay = 100 * time.Millisecond

// ZoneLocker serializes writers per (vendor, zone). Goroutines of one process
// queue on a channel semaphore; when dir is set, processes sharing dir also
// serialize on an advisory file lock.
type ZoneLocker struct {
	dir string

	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewZoneLocker(dir string) *ZoneLocker {
	return &ZoneLocker{dir: dir, slots: make(map[string]chan struct{})}
}

var _ contract.ZoneLocker = (*ZoneLocker)(nil)

func lockKey(vendor entity.VendorType, zone string) string {
	return string(vendor) + "_" + strings.ToLower(strings.TrimSuffix(zone, "."))
}

func (l *ZoneLocker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

func (l *ZoneLocker) Lock(ctx context.Context, vendor entity.VendorType, zone string) (func(), error) {
	key := lockKey(vendor, zone)
	slot := l.slot(key)

	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	release := func() { <-slot }

	if l.dir == "" {
		return release, nil
	}

	if err := os.MkdirAll(l.dir, constants.DirPermissionOwnerRWX); err != nil {
		release()
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	fl := flock.New(filepath.Join(l.dir, key+constants.LockFileSuffix))
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		release()
		if err == nil {
			err = ctx.Err()
		}
		return nil, fmt.Errorf("acquire zone lock %s: %w", key, err)
	}

	return func() {
		_ = fl.Unlock()
		release()
	}, nil
}
