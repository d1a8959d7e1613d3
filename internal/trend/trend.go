// Package trend buckets logical campaigns by calendar month and year and
// computes volume-weighted rates per bucket. Only completed campaigns count:
// live sends pass a lower volume floor and are still accumulating engagement.
package trend

import (
	"sort"

	"github.com/ignite/campaign-insights/internal/campaign"
	"github.com/ignite/campaign-insights/internal/domain"
)

// MonthlySeries maps a year to its twelve monthly values. A nil entry means
// no data for that month, which is distinct from a 0% rate.
type MonthlySeries map[int][12]*float64

// Totals accumulates raw counts for one bucket.
type Totals struct {
	UniqueOpens  int64 `json:"total_unique_opens"`
	TotalOpens   int64 `json:"total_total_opens"`
	UniqueClicks int64 `json:"total_unique_clicks"`
	TotalClicks  int64 `json:"total_total_clicks"`
	Delivered    int64 `json:"total_delivered"`
	Campaigns    int   `json:"campaigns"`
}

// Add folds one campaign into the totals.
func (t *Totals) Add(c domain.LogicalCampaign) {
	t.UniqueOpens += c.UniqueOpens
	t.TotalOpens += c.TotalOpens
	t.UniqueClicks += c.UniqueClicks
	t.TotalClicks += c.TotalClicks
	t.Delivered += c.Delivered
	t.Campaigns++
}

// Rate returns the aggregate rate for a metric, or nil when nothing was delivered.
func (t Totals) Rate(metric domain.RateMetric) *float64 {
	if t.Delivered == 0 {
		return nil
	}
	v := metric.Of(campaign.ComputeRates(t.Delivered, t.UniqueOpens, t.TotalOpens, t.UniqueClicks, t.TotalClicks))
	return &v
}

func include(years map[int]struct{}, y int) bool {
	if len(years) == 0 {
		return true
	}
	_, ok := years[y]
	return ok
}

// counted reports whether c belongs in a trend bucket.
func counted(c domain.LogicalCampaign) bool {
	return !c.IsLive && c.SendDate != nil
}

// MonthlyTotals accumulates campaign counts into [year][month] buckets.
// Live and undated campaigns are skipped, as are years outside a non-empty filter.
func MonthlyTotals(campaigns []domain.LogicalCampaign, years map[int]struct{}) map[int]*[12]Totals {
	out := make(map[int]*[12]Totals)
	for _, c := range campaigns {
		if !counted(c) {
			continue
		}
		y := c.SendDate.Year()
		if !include(years, y) {
			continue
		}
		buckets, ok := out[y]
		if !ok {
			buckets = &[12]Totals{}
			out[y] = buckets
		}
		buckets[int(c.SendDate.Month())-1].Add(c)
	}
	return out
}

// BucketByMonth computes the requested rate per (year, month) from bucket totals.
func BucketByMonth(campaigns []domain.LogicalCampaign, metric domain.RateMetric, years map[int]struct{}) MonthlySeries {
	series := make(MonthlySeries)
	for y, buckets := range MonthlyTotals(campaigns, years) {
		var row [12]*float64
		for m := range buckets {
			row[m] = buckets[m].Rate(metric)
		}
		series[y] = row
	}
	return series
}

// MonthOverMonth returns the percent change of each cell against the month
// before it. January compares against December of the prior year. A cell is
// nil when either side is missing or the prior value is 0.
func MonthOverMonth(series MonthlySeries) MonthlySeries {
	out := make(MonthlySeries, len(series))
	for y, row := range series {
		var deltas [12]*float64
		for m := 0; m < 12; m++ {
			cur := row[m]
			var prev *float64
			if m == 0 {
				if prior, ok := series[y-1]; ok {
					prev = prior[11]
				}
			} else {
				prev = row[m-1]
			}
			if cur == nil || prev == nil || *prev == 0 {
				continue
			}
			d := (*cur - *prev) / *prev * 100
			deltas[m] = &d
		}
		out[y] = deltas
	}
	return out
}

// BucketByYear computes the requested rate per calendar year.
func BucketByYear(campaigns []domain.LogicalCampaign, metric domain.RateMetric, years map[int]struct{}) map[int]*float64 {
	totals := make(map[int]*Totals)
	for _, c := range campaigns {
		if !counted(c) {
			continue
		}
		y := c.SendDate.Year()
		if !include(years, y) {
			continue
		}
		t, ok := totals[y]
		if !ok {
			t = &Totals{}
			totals[y] = t
		}
		t.Add(c)
	}

	out := make(map[int]*float64, len(totals))
	for y, t := range totals {
		out[y] = t.Rate(metric)
	}
	return out
}

// Years returns the sorted years present in a series.
func Years(series MonthlySeries) []int {
	ys := make([]int, 0, len(series))
	for y := range series {
		ys = append(ys, y)
	}
	sort.Ints(ys)
	return ys
}
