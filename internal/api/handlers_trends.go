package api

import (
	"net/http"
	"sort"

	"github.com/ignite/campaign-insights/internal/domain"
	"github.com/ignite/campaign-insights/internal/pkg/httputil"
	"github.com/ignite/campaign-insights/internal/trend"
)

type monthlyYear struct {
	Year   int          `json:"year"`
	Months [12]*float64 `json:"months"`
}

type monthlyResponse struct {
	Metric domain.RateMetric `json:"metric"`
	Years  []monthlyYear     `json:"years"`
}

type yearlyPoint struct {
	Year  int      `json:"year"`
	Value *float64 `json:"value"`
}

type yearlyResponse struct {
	Metric domain.RateMetric `json:"metric"`
	Years  []yearlyPoint     `json:"years"`
}

// trendParams parses metric and years, writing 400 on bad input.
func trendParams(w http.ResponseWriter, r *http.Request) (domain.RateMetric, map[int]struct{}, bool) {
	metric, err := domain.ParseRateMetric(r.URL.Query().Get("metric"))
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return "", nil, false
	}
	years, err := httputil.QueryIntSet(r, "years")
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return "", nil, false
	}
	return metric, years, true
}

func toMonthly(metric domain.RateMetric, series trend.MonthlySeries) monthlyResponse {
	resp := monthlyResponse{Metric: metric, Years: []monthlyYear{}}
	for _, y := range trend.Years(series) {
		resp.Years = append(resp.Years, monthlyYear{Year: y, Months: series[y]})
	}
	return resp
}

// MonthlyTrend returns the delivered-weighted rate per calendar month.
//
//	GET /api/trends/monthly?metric=&years=2023,2024
func (h *Handlers) MonthlyTrend(w http.ResponseWriter, r *http.Request) {
	metric, years, ok := trendParams(w, r)
	if !ok {
		return
	}
	snap, ok := h.currentSnapshot(w)
	if !ok {
		return
	}
	httputil.OK(w, toMonthly(metric, trend.BucketByMonth(snap.Campaigns, metric, years)))
}

// MonthlyDelta returns the month-over-month change of the monthly trend.
//
//	GET /api/trends/monthly/delta?metric=&years=
func (h *Handlers) MonthlyDelta(w http.ResponseWriter, r *http.Request) {
	metric, years, ok := trendParams(w, r)
	if !ok {
		return
	}
	snap, ok := h.currentSnapshot(w)
	if !ok {
		return
	}
	series := trend.BucketByMonth(snap.Campaigns, metric, years)
	httputil.OK(w, toMonthly(metric, trend.MonthOverMonth(series)))
}

// YearlyTrend returns the delivered-weighted rate per year.
//
//	GET /api/trends/yearly?metric=&years=
func (h *Handlers) YearlyTrend(w http.ResponseWriter, r *http.Request) {
	metric, years, ok := trendParams(w, r)
	if !ok {
		return
	}
	snap, ok := h.currentSnapshot(w)
	if !ok {
		return
	}

	byYear := trend.BucketByYear(snap.Campaigns, metric, years)
	resp := yearlyResponse{Metric: metric, Years: make([]yearlyPoint, 0, len(byYear))}
	for y, v := range byYear {
		resp.Years = append(resp.Years, yearlyPoint{Year: y, Value: v})
	}
	sort.Slice(resp.Years, func(i, j int) bool { return resp.Years[i].Year < resp.Years[j].Year })
	httputil.OK(w, resp)
}
