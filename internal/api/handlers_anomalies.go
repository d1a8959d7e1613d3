package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/campaign-insights/internal/anomaly"
	"github.com/ignite/campaign-insights/internal/domain"
	"github.com/ignite/campaign-insights/internal/pkg/httputil"
	"github.com/ignite/campaign-insights/internal/report"
	"github.com/ignite/campaign-insights/internal/storage"
)

type anomaliesResponse struct {
	Options   anomalyOptionsView `json:"options"`
	Count     int                `json:"count"`
	Anomalies []anomaly.Anomaly  `json:"anomalies"`
}

type anomalyOptionsView struct {
	GroupKey         anomaly.GroupKey  `json:"group"`
	SubdivideByTopic bool              `json:"subdivide"`
	Metric           domain.RateMetric `json:"metric"`
	Direction        anomaly.Direction `json:"direction"`
	Threshold        float64           `json:"threshold"`
	MinSample        int               `json:"min_sample"`
}

type digestResponse struct {
	Count     int    `json:"count"`
	Archived  int    `json:"archived"`
	Sent      bool   `json:"sent"`
	MessageID string `json:"message_id,omitempty"`
}

// anomalyOptions parses detection options from the query string, starting
// from the configured defaults.
func (h *Handlers) anomalyOptions(r *http.Request) (anomaly.Options, error) {
	q := r.URL.Query()
	opts := h.anomalyDefaults

	var err error
	if opts.GroupKey, err = anomaly.ParseGroupKey(q.Get("group")); err != nil {
		return opts, err
	}
	if opts.Direction, err = anomaly.ParseDirection(q.Get("direction")); err != nil {
		return opts, err
	}
	if opts.Metric, err = domain.ParseRateMetric(q.Get("metric")); err != nil {
		return opts, err
	}
	if opts.SubdivideByTopic, err = httputil.QueryBool(r, "subdivide"); err != nil {
		return opts, err
	}
	if raw := q.Get("threshold"); raw != "" {
		t, err := strconv.ParseFloat(raw, 64)
		if err != nil || t <= 0 {
			return opts, errors.New("threshold must be a positive number")
		}
		opts.Threshold = t
	}
	if raw := q.Get("min_sample"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return opts, errors.New("min_sample must be a positive integer")
		}
		opts.MinSample = n
	}
	if opts.Threshold <= 0 {
		opts.Threshold = anomaly.DefaultThreshold
	}
	if opts.MinSample <= 0 {
		opts.MinSample = anomaly.DefaultMinSample
	}
	return opts, nil
}

// detect runs detection for the request, writing the error response itself.
func (h *Handlers) detect(w http.ResponseWriter, r *http.Request) (anomaly.Options, []anomaly.Anomaly, bool) {
	opts, err := h.anomalyOptions(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return opts, nil, false
	}
	snap, ok := h.currentSnapshot(w)
	if !ok {
		return opts, nil, false
	}
	found, err := anomaly.Detect(snap.Campaigns, snap.Industries(), opts)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return opts, nil, false
	}
	if found == nil {
		found = []anomaly.Anomaly{}
	}
	return opts, found, true
}

// ListAnomalies flags campaigns that deviate from their group baseline.
//
//	GET /api/anomalies?group=bucket|industry&subdivide=&metric=&direction=under|over
func (h *Handlers) ListAnomalies(w http.ResponseWriter, r *http.Request) {
	opts, found, ok := h.detect(w, r)
	if !ok {
		return
	}
	httputil.OK(w, anomaliesResponse{
		Options: anomalyOptionsView{
			GroupKey:         opts.GroupKey,
			SubdivideByTopic: opts.SubdivideByTopic,
			Metric:           opts.Metric,
			Direction:        opts.Direction,
			Threshold:        opts.Threshold,
			MinSample:        opts.MinSample,
		},
		Count:     len(found),
		Anomalies: found,
	})
}

// SendDigest detects anomalies, archives them and emails the digest.
// Archiving and email are each skipped when not configured.
//
//	POST /api/anomalies/digest?group=&subdivide=&metric=&direction=
func (h *Handlers) SendDigest(w http.ResponseWriter, r *http.Request) {
	opts, found, ok := h.detect(w, r)
	if !ok {
		return
	}

	resp := digestResponse{Count: len(found)}
	if h.archive != nil && len(found) > 0 {
		if err := h.archive.Save(r.Context(), found); err != nil {
			httputil.BadGateway(w, "failed to archive anomalies", err)
			return
		}
		resp.Archived = len(found)
	}

	if h.digest != nil {
		id, err := h.digest.Send(r.Context(), found, opts.Metric, opts.Direction)
		switch {
		case errors.Is(err, report.ErrNothingToSend):
		case errors.Is(err, report.ErrNoRecipients):
			httputil.BadRequest(w, "digest has no recipients configured")
			return
		case err != nil:
			httputil.BadGateway(w, "failed to send digest", err)
			return
		default:
			resp.Sent = true
			resp.MessageID = id
		}
	}

	httputil.OK(w, resp)
}

func parseSince(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now.AddDate(0, 0, -30), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Time{}, errors.New("since must be a date (2006-01-02) or RFC3339 timestamp")
}

// ListArchivedAnomalies returns archived anomalies for one group.
//
//	GET /api/anomalies/archive?group=&since=
func (h *Handlers) ListArchivedAnomalies(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		httputil.ServiceUnavailable(w, "archive_disabled", "anomaly archive is not configured")
		return
	}
	group := strings.TrimSpace(r.URL.Query().Get("group"))
	if group == "" {
		httputil.BadRequest(w, "group is required")
		return
	}
	since, err := parseSince(r.URL.Query().Get("since"), time.Now())
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	recs, err := h.archive.List(r.Context(), group, since)
	if err != nil {
		httputil.BadGateway(w, "failed to read anomaly archive", err)
		return
	}
	if recs == nil {
		recs = []storage.Record{}
	}
	httputil.OK(w, recs)
}
