package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ignite/campaign-insights/internal/benchmark"
	"github.com/ignite/campaign-insights/internal/pkg/httputil"
)

// Benchmark ranks one campaign against similar completed campaigns.
//
//	GET /api/benchmarks?name=&same_topic=&same_brand=
func (h *Handlers) Benchmark(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		httputil.BadRequest(w, "name is required")
		return
	}
	sameTopic, err := httputil.QueryBool(r, "same_topic")
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	sameBrand, err := httputil.QueryBool(r, "same_brand")
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	snap, ok := h.currentSnapshot(w)
	if !ok {
		return
	}

	rep, err := benchmark.Benchmark(name, snap.Campaigns, snap.Industries(), benchmark.CohortOptions{
		SameTopic: sameTopic,
		SameBrand: sameBrand,
	})
	switch {
	case errors.Is(err, benchmark.ErrTargetNotFound):
		httputil.ErrorCode(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, benchmark.ErrEmptyCohort):
		httputil.ErrorCode(w, http.StatusNotFound, "empty_cohort", err.Error())
	case err != nil:
		httputil.InternalError(w, err)
	default:
		httputil.OK(w, rep)
	}
}
