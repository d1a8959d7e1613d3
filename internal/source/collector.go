package source

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ignite/campaign-insights/internal/campaign"
	"github.com/ignite/campaign-insights/internal/classify"
	"github.com/ignite/campaign-insights/internal/domain"
	"github.com/ignite/campaign-insights/internal/pkg/distlock"
	"github.com/ignite/campaign-insights/internal/pkg/logger"
)

// CompletedSource yields completed campaign rows.
type CompletedSource interface {
	FetchCompleted(ctx context.Context) ([]domain.CampaignRecord, error)
}

// LiveSource yields live campaign rows.
type LiveSource interface {
	FetchLive(ctx context.Context) ([]domain.CampaignRecord, error)
}

// BrandSource yields the brand -> industry lookup.
type BrandSource interface {
	FetchBrands(ctx context.Context) (map[string]string, error)
}

// SnapshotStore shares snapshots between replicas.
type SnapshotStore interface {
	Get(ctx context.Context) (*Snapshot, error)
	Put(ctx context.Context, snap *Snapshot, ttl time.Duration) error
}

// Snapshot is one consistent build of the campaign pool.
type Snapshot struct {
	Campaigns    []domain.LogicalCampaign `json:"campaigns"`
	Brands       map[string]string        `json:"brands"`
	Generation   uint64                   `json:"generation"`
	FetchedAt    time.Time                `json:"fetched_at"`
	RawCompleted int                      `json:"raw_completed"`
	RawLive      int                      `json:"raw_live"`
	industries   *classify.IndustryClassifier
}

// Industries returns the classifier for the snapshot's brand lookup.
func (s *Snapshot) Industries() *classify.IndustryClassifier {
	if s.industries == nil {
		return classify.NewIndustryClassifier(s.Brands)
	}
	return s.industries
}

// CollectorConfig controls refresh cadence and filtering.
type CollectorConfig struct {
	Interval    time.Duration
	Timeout     time.Duration
	Thresholds  campaign.Thresholds
	SnapshotTTL time.Duration
}

// Collector periodically rebuilds the campaign pool. Each Refresh takes a
// generation number; starting a new refresh cancels the one in flight, and
// only the newest generation may publish its snapshot.
type Collector struct {
	completed CompletedSource
	live      LiveSource
	brands    BrandSource
	store     SnapshotStore
	newLock   func() distlock.DistLock
	cfg       CollectorConfig
	log       *logger.Logger

	mu       sync.RWMutex
	snapshot *Snapshot
	lastErr  error
	gen      uint64
	inflight context.CancelFunc

	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewCollector builds a collector. live and brands may be nil.
func NewCollector(completed CompletedSource, live LiveSource, brands BrandSource, cfg CollectorConfig) *Collector {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.Thresholds == (campaign.Thresholds{}) {
		cfg.Thresholds = campaign.DefaultThresholds()
	}
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = 2 * cfg.Interval
	}
	return &Collector{
		completed: completed,
		live:      live,
		brands:    brands,
		cfg:       cfg,
		log:       logger.Default().With("component", "collector"),
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// SetStore shares snapshots through store. With newLock set, only the lock
// holder fetches upstream; the others adopt the stored snapshot. store may be
// nil: replicas then take turns, and one that finds the lock held keeps its
// current snapshot until the next tick.
func (c *Collector) SetStore(store SnapshotStore, newLock func() distlock.DistLock) {
	c.store = store
	c.newLock = newLock
}

// Start warms from the store, then refreshes on the configured interval.
func (c *Collector) Start() {
	c.log.Info("starting campaign collector", "interval", c.cfg.Interval)
	go c.loop()
}

// Stop halts the loop and waits for it to exit.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
		c.mu.Lock()
		if c.inflight != nil {
			c.inflight()
		}
		c.mu.Unlock()
	})
	<-c.done
}

func (c *Collector) loop() {
	defer close(c.done)

	if c.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if snap, err := c.store.Get(ctx); err == nil && snap != nil {
			c.adopt(snap)
		}
		cancel()
	}
	c.refreshOnce()

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.refreshOnce()
		case <-c.stopChan:
			c.log.Info("campaign collector stopped")
			return
		}
	}
}

func (c *Collector) refreshOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	defer cancel()
	if _, err := c.Refresh(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		c.log.Error("scheduled refresh failed", "err", err)
	}
}

// Snapshot returns the latest published snapshot.
func (c *Collector) Snapshot() (*Snapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snapshot == nil {
		return nil, ErrNoSnapshot
	}
	return c.snapshot, nil
}

// LastError reports the error from the most recent failed refresh, or nil
// once a later refresh succeeds.
func (c *Collector) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Refresh fetches all sources, rebuilds the pool and publishes it. A failed
// refresh leaves the previous snapshot in place and returns the error. Every
// refresh is bounded by the configured timeout, which is also the lock TTL.
func (c *Collector) Refresh(ctx context.Context) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	c.mu.Lock()
	c.gen++
	gen := c.gen
	if c.inflight != nil {
		c.inflight()
	}
	c.inflight = cancel
	c.mu.Unlock()

	snap, err := c.fetchShared(ctx)
	if errors.Is(err, errRefreshSkipped) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if gen == c.gen {
			c.inflight = nil
		}
		c.log.Debug("another replica holds the refresh lock, keeping current snapshot", "generation", gen)
		return c.snapshot, nil
	}
	if err != nil {
		if c.superseded(gen) {
			return nil, ErrSuperseded
		}
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		c.log.Error("refresh failed", "generation", gen, "err", err)
		return nil, err
	}

	snap.Generation = gen
	if !c.commit(gen, snap) {
		return nil, ErrSuperseded
	}
	c.log.Info("refresh complete", "generation", gen,
		"campaigns", len(snap.Campaigns), "raw_completed", snap.RawCompleted, "raw_live", snap.RawLive)
	return snap, nil
}

// fetchShared runs the upstream fetch under the distributed lock. A replica
// that loses the lock adopts the stored snapshot instead, falling back to its
// own fetch when the store has nothing.
func (c *Collector) fetchShared(ctx context.Context) (*Snapshot, error) {
	if c.store == nil {
		if c.newLock == nil {
			return c.fetch(ctx)
		}
		return c.fetchLocked(ctx)
	}
	if c.newLock == nil {
		snap, err := c.fetch(ctx)
		if err == nil {
			c.publish(ctx, snap)
		}
		return snap, err
	}

	var snap *Snapshot
	ran, err := distlock.Run(ctx, c.newLock(), func(ctx context.Context) error {
		var ferr error
		snap, ferr = c.fetch(ctx)
		if ferr != nil {
			return ferr
		}
		c.publish(ctx, snap)
		return nil
	})
	if ran {
		return snap, err
	}
	if err != nil {
		c.log.Warn("refresh lock unavailable, fetching locally", "err", err)
		return c.fetch(ctx)
	}

	stored, gerr := c.store.Get(ctx)
	if gerr == nil && stored != nil {
		c.log.Debug("another replica holds the refresh lock, adopting stored snapshot")
		return stored, nil
	}
	return c.fetch(ctx)
}

// fetchLocked serializes upstream fetches across replicas that share no
// store. Losing the lock skips the refresh, unless there is nothing to serve
// yet.
func (c *Collector) fetchLocked(ctx context.Context) (*Snapshot, error) {
	var snap *Snapshot
	ran, err := distlock.Run(ctx, c.newLock(), func(ctx context.Context) error {
		var ferr error
		snap, ferr = c.fetch(ctx)
		return ferr
	})
	if ran {
		return snap, err
	}
	if err != nil {
		c.log.Warn("refresh lock unavailable, fetching locally", "err", err)
		return c.fetch(ctx)
	}
	if _, serr := c.Snapshot(); serr == nil {
		return nil, errRefreshSkipped
	}
	return c.fetch(ctx)
}

// publish writes snap to the shared store. Write failures are logged only.
func (c *Collector) publish(ctx context.Context, snap *Snapshot) {
	if err := c.store.Put(ctx, snap, c.cfg.SnapshotTTL); err != nil {
		c.log.Warn("snapshot store write failed", "err", err)
	}
}

// fetch runs the three upstream calls concurrently and joins them.
func (c *Collector) fetch(ctx context.Context) (*Snapshot, error) {
	var completed, live []domain.CampaignRecord
	var brands map[string]string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		recs, err := c.completed.FetchCompleted(gctx)
		completed = recs
		return fetchErr("completed", err)
	})
	if c.live != nil {
		g.Go(func() error {
			recs, err := c.live.FetchLive(gctx)
			live = recs
			return fetchErr("live", err)
		})
	}
	if c.brands != nil {
		g.Go(func() error {
			m, err := c.brands.FetchBrands(gctx)
			brands = m
			return fetchErr("brands", err)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := make([]domain.CampaignRecord, 0, len(completed)+len(live))
	all = append(all, completed...)
	all = append(all, live...)
	if brands == nil {
		brands = map[string]string{}
	}

	return &Snapshot{
		Campaigns:    campaign.Build(all, c.cfg.Thresholds),
		Brands:       brands,
		FetchedAt:    time.Now().UTC(),
		RawCompleted: len(completed),
		RawLive:      len(live),
		industries:   classify.NewIndustryClassifier(brands),
	}, nil
}

func (c *Collector) superseded(gen uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return gen != c.gen
}

// commit publishes snap if gen is still the newest refresh.
func (c *Collector) commit(gen uint64, snap *Snapshot) bool {
	if snap.industries == nil {
		snap.industries = classify.NewIndustryClassifier(snap.Brands)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	c.snapshot = snap
	c.lastErr = nil
	c.inflight = nil
	return true
}

// adopt installs a stored snapshot at startup unless a refresh already won.
func (c *Collector) adopt(snap *Snapshot) {
	if snap.industries == nil {
		snap.industries = classify.NewIndustryClassifier(snap.Brands)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapshot == nil {
		c.snapshot = snap
		c.log.Info("warm start from stored snapshot", "campaigns", len(snap.Campaigns), "fetched_at", snap.FetchedAt)
	}
}
