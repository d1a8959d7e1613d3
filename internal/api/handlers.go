package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ignite/campaign-insights/internal/anomaly"
	"github.com/ignite/campaign-insights/internal/domain"
	"github.com/ignite/campaign-insights/internal/pkg/httputil"
	"github.com/ignite/campaign-insights/internal/source"
	"github.com/ignite/campaign-insights/internal/storage"
)

// Snapshots is the collector surface the handlers read from.
type Snapshots interface {
	Snapshot() (*source.Snapshot, error)
	Refresh(ctx context.Context) (*source.Snapshot, error)
}

// BrandStore manages the brand -> industry lookup.
type BrandStore interface {
	List(ctx context.Context) ([]domain.Brand, error)
	Upsert(ctx context.Context, b domain.Brand) (domain.Brand, error)
	Delete(ctx context.Context, name string) error
}

// Digester emails an anomaly digest.
type Digester interface {
	Send(ctx context.Context, anomalies []anomaly.Anomaly, metric domain.RateMetric, dir anomaly.Direction) (string, error)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	snapshots       Snapshots
	brands          BrandStore
	archive         storage.Archive
	digest          Digester
	anomalyDefaults anomaly.Options
}

// NewHandlers creates a new Handlers instance. anomalyDefaults supplies the
// threshold and minimum sample when a request does not override them.
func NewHandlers(snapshots Snapshots, anomalyDefaults anomaly.Options) *Handlers {
	return &Handlers{
		snapshots:       snapshots,
		anomalyDefaults: anomalyDefaults,
	}
}

// SetBrandStore enables /api/brand-management.
func (h *Handlers) SetBrandStore(brands BrandStore) {
	h.brands = brands
}

// SetArchive enables anomaly archiving.
func (h *Handlers) SetArchive(archive storage.Archive) {
	h.archive = archive
}

// SetDigest enables the anomaly digest email.
func (h *Handlers) SetDigest(digest Digester) {
	h.digest = digest
}

// currentSnapshot writes 503 until the first refresh has published.
func (h *Handlers) currentSnapshot(w http.ResponseWriter) (*source.Snapshot, bool) {
	snap, err := h.snapshots.Snapshot()
	if errors.Is(err, source.ErrNoSnapshot) {
		httputil.ServiceUnavailable(w, "no_snapshot", "campaign data has not been loaded yet")
		return nil, false
	}
	if err != nil {
		httputil.InternalError(w, err)
		return nil, false
	}
	return snap, true
}

type refreshResponse struct {
	Generation   uint64    `json:"generation"`
	FetchedAt    time.Time `json:"fetched_at"`
	Campaigns    int       `json:"campaigns"`
	RawCompleted int       `json:"raw_completed"`
	RawLive      int       `json:"raw_live"`
}

// Refresh rebuilds the campaign pool now.
//
//	POST /api/refresh
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshots.Refresh(r.Context())
	if err != nil {
		var fe *source.FetchError
		switch {
		case errors.Is(err, source.ErrSuperseded):
			httputil.ErrorCode(w, http.StatusConflict, "superseded", "a newer refresh replaced this one")
		case errors.As(err, &fe):
			httputil.BadGateway(w, "failed to fetch "+fe.Source, err)
		default:
			httputil.InternalError(w, err)
		}
		return
	}

	httputil.OK(w, refreshResponse{
		Generation:   snap.Generation,
		FetchedAt:    snap.FetchedAt,
		Campaigns:    len(snap.Campaigns),
		RawCompleted: snap.RawCompleted,
		RawLive:      snap.RawLive,
	})
}
