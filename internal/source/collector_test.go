package source

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/campaign-insights/internal/domain"
	"github.com/ignite/campaign-insights/internal/pkg/distlock"
)

type fakeCompleted struct {
	mu    sync.Mutex
	recs  []domain.CampaignRecord
	err   error
	calls int
	// block, when set, holds the fetch until the context is canceled.
	block chan struct{}
}

func (f *fakeCompleted) FetchCompleted(ctx context.Context) ([]domain.CampaignRecord, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	recs, err := f.recs, f.err
	f.mu.Unlock()

	if block != nil {
		close(block)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return recs, err
}

func (f *fakeCompleted) set(recs []domain.CampaignRecord, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs, f.err = recs, err
}

type fakeLive struct{ recs []domain.CampaignRecord }

func (f fakeLive) FetchLive(context.Context) ([]domain.CampaignRecord, error) { return f.recs, nil }

type fakeBrands struct {
	brands map[string]string
	err    error
}

func (f fakeBrands) FetchBrands(context.Context) (map[string]string, error) { return f.brands, f.err }

type memStore struct {
	mu   sync.Mutex
	snap *Snapshot
	puts int
}

func (m *memStore) Get(context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return nil, errors.New("miss")
	}
	cp := *m.snap
	return &cp, nil
}

func (m *memStore) Put(_ context.Context, snap *Snapshot, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap
	m.puts++
	return nil
}

// stubLock grants or refuses the refresh lock.
type stubLock struct{ granted bool }

func (l stubLock) Acquire(context.Context) (bool, error) { return l.granted, nil }
func (stubLock) Release(context.Context) error { return nil }

func lockFactory(granted bool) func() distlock.DistLock {
	return func() distlock.DistLock { return stubLock{granted: granted} }
}

func records() []domain.CampaignRecord {
	return []domain.CampaignRecord{
		{Name: "Acme Update - Deployment #1", Delivered: 500, UniqueOpens: 100, Status: domain.CampaignCompleted},
		{Name: "Acme Update - Deployment #2", Delivered: 500, UniqueOpens: 50, Status: domain.CampaignCompleted},
		{Name: "Tiny", Delivered: 10, Status: domain.CampaignCompleted},
	}
}

func TestCollectorRefreshBuildsPool(t *testing.T) {
	c := NewCollector(
		&fakeCompleted{recs: records()},
		fakeLive{recs: []domain.CampaignRecord{{Name: "Acme Update", Delivered: 25, UniqueOpens: 5, Status: domain.CampaignLive}}},
		fakeBrands{brands: map[string]string{"Acme": "Pharma"}},
		CollectorConfig{},
	)

	_, err := c.Snapshot()
	assert.ErrorIs(t, err, ErrNoSnapshot)

	snap, err := c.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Campaigns, 2)

	assert.Equal(t, "Acme Update", snap.Campaigns[0].Name)
	assert.Equal(t, int64(150), snap.Campaigns[0].UniqueOpens)
	assert.InDelta(t, 30.0, snap.Campaigns[0].UniqueOpenRate, 1e-9)
	assert.True(t, snap.Campaigns[1].IsLive)
	assert.Equal(t, 3, snap.RawCompleted)
	assert.Equal(t, 1, snap.RawLive)
	assert.Equal(t, uint64(1), snap.Generation)

	industry, brand := snap.Industries().Industry("Acme Update")
	assert.Equal(t, "Pharma", industry)
	assert.Equal(t, "Acme", brand)

	current, err := c.Snapshot()
	require.NoError(t, err)
	assert.Same(t, snap, current)
}

func TestCollectorFailedRefreshKeepsPreviousSnapshot(t *testing.T) {
	completed := &fakeCompleted{recs: records()}
	c := NewCollector(completed, nil, nil, CollectorConfig{})

	first, err := c.Refresh(context.Background())
	require.NoError(t, err)

	boom := errors.New("s3 unavailable")
	completed.set(nil, boom)
	_, err = c.Refresh(context.Background())
	require.ErrorIs(t, err, boom)
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "completed", fe.Source)

	current, err := c.Snapshot()
	require.NoError(t, err)
	assert.Same(t, first, current)
	assert.ErrorIs(t, c.LastError(), boom)

	completed.set(records(), nil)
	_, err = c.Refresh(context.Background())
	require.NoError(t, err)
	assert.NoError(t, c.LastError())
}

func TestCollectorBrandFailureFailsRefresh(t *testing.T) {
	c := NewCollector(&fakeCompleted{recs: records()}, nil, fakeBrands{err: errors.New("401")}, CollectorConfig{})

	_, err := c.Refresh(context.Background())
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "brands", fe.Source)

	_, err = c.Snapshot()
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestCollectorNewerRefreshSupersedesOlder(t *testing.T) {
	started := make(chan struct{})
	completed := &fakeCompleted{recs: records(), block: started}
	c := NewCollector(completed, nil, nil, CollectorConfig{})

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Refresh(context.Background())
		errCh <- err
	}()

	<-started
	completed.mu.Lock()
	completed.block = nil
	completed.mu.Unlock()

	snap, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), snap.Generation)

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(5 * time.Second):
		t.Fatal("older refresh was not canceled")
	}

	current, err := c.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), current.Generation)
}

func TestCollectorRefreshBoundedByTimeout(t *testing.T) {
	completed := &fakeCompleted{recs: records(), block: make(chan struct{})}
	c := NewCollector(completed, nil, nil, CollectorConfig{Timeout: 50 * time.Millisecond})

	_, err := c.Refresh(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, c.LastError(), context.DeadlineExceeded)
}

func TestCollectorLockLoserAdoptsStoredSnapshot(t *testing.T) {
	store := &memStore{}

	winner := NewCollector(&fakeCompleted{recs: records()}, nil, nil, CollectorConfig{})
	winner.SetStore(store, lockFactory(true))
	_, err := winner.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, store.puts)

	// Another replica holds the lock for the duration of the loser's refresh.
	loserSource := &fakeCompleted{recs: nil}
	loser := NewCollector(loserSource, nil, nil, CollectorConfig{})
	loser.SetStore(store, lockFactory(false))

	snap, err := loser.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Campaigns, 1)
	assert.Equal(t, 0, loserSource.calls, "the loser never hits upstream")
}

func TestCollectorWithoutStoreFetchesUnderAdvisoryLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT pg_try_advisory_lock").
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
	mock.ExpectExec("SELECT pg_advisory_unlock").
		WillReturnResult(sqlmock.NewResult(0, 1))

	completed := &fakeCompleted{recs: records()}
	c := NewCollector(completed, nil, nil, CollectorConfig{})
	c.SetStore(nil, func() distlock.DistLock {
		return distlock.NewLock(nil, db, "snapshot-refresh", time.Minute)
	})

	snap, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Campaigns, 1)
	assert.Equal(t, 1, completed.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCollectorWithoutStoreSkipsWhileLockHeld(t *testing.T) {
	completed := &fakeCompleted{recs: records()}
	c := NewCollector(completed, nil, nil, CollectorConfig{})
	c.SetStore(nil, lockFactory(false))

	// Nothing to serve yet, so the first refresh fetches anyway.
	first, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), first.Generation)
	assert.Equal(t, 1, completed.calls)

	completed.set(nil, errors.New("warehouse down"))
	second, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, uint64(1), second.Generation)
	assert.Equal(t, 1, completed.calls, "a held lock keeps this replica off upstream")
	assert.NoError(t, c.LastError())
}

func TestCollectorStartStop(t *testing.T) {
	store := &memStore{snap: &Snapshot{Campaigns: []domain.LogicalCampaign{{Name: "cached"}}}}
	completed := &fakeCompleted{recs: records()}
	c := NewCollector(completed, nil, nil, CollectorConfig{Interval: time.Hour})
	c.SetStore(store, nil)

	c.Start()
	require.Eventually(t, func() bool {
		snap, err := c.Snapshot()
		return err == nil && snap.Generation == 1
	}, 5*time.Second, 10*time.Millisecond)
	c.Stop()
	c.Stop()
}
