package domain

import (
	"fmt"
	"time"
)

// CampaignStatus distinguishes finished sends from sends still accumulating engagement.
type CampaignStatus string

const (
	CampaignCompleted CampaignStatus = "completed"
	CampaignLive      CampaignStatus = "live"
)

// Rates holds the derived engagement percentages for a campaign or bucket.
// They are always recomputed from counts.
type Rates struct {
	UniqueOpenRate  float64 `json:"unique_open_rate"`
	TotalOpenRate   float64 `json:"total_open_rate"`
	UniqueClickRate float64 `json:"unique_click_rate"`
	TotalClickRate  float64 `json:"total_click_rate"`
}

// CampaignRecord is one raw metric row, one per send or deployment.
type CampaignRecord struct {
	Name         string         `json:"campaign_name"`
	SendDate     *time.Time     `json:"send_date,omitempty"`
	Delivered    int64          `json:"delivered"`
	UniqueOpens  int64          `json:"unique_opens"`
	TotalOpens   int64          `json:"total_opens"`
	UniqueClicks int64          `json:"unique_clicks"`
	TotalClicks  int64          `json:"total_clicks"`
	Status       CampaignStatus `json:"status"`
}

// LogicalCampaign is the post-aggregation view: one per distinct cleaned name
// and status.
type LogicalCampaign struct {
	Name         string     `json:"campaign_name"`
	SendDate     *time.Time `json:"send_date,omitempty"`
	Delivered    int64      `json:"delivered"`
	UniqueOpens  int64      `json:"unique_opens"`
	TotalOpens   int64      `json:"total_opens"`
	UniqueClicks int64      `json:"unique_clicks"`
	TotalClicks  int64      `json:"total_clicks"`
	Rates
	IsLive      bool `json:"is_live"`
	Deployments int  `json:"deployments"`
}

// RateMetric names one of the four rate fields.
type RateMetric string

const (
	MetricUniqueOpenRate  RateMetric = "unique_open_rate"
	MetricTotalOpenRate   RateMetric = "total_open_rate"
	MetricUniqueClickRate RateMetric = "unique_click_rate"
	MetricTotalClickRate  RateMetric = "total_click_rate"
)

// AllRateMetrics lists the rate metrics in display order.
var AllRateMetrics = []RateMetric{
	MetricUniqueOpenRate,
	MetricTotalOpenRate,
	MetricUniqueClickRate,
	MetricTotalClickRate,
}

// ParseRateMetric validates a metric key coming from a query string.
// An empty key selects the unique open rate.
func ParseRateMetric(s string) (RateMetric, error) {
	if s == "" {
		return MetricUniqueOpenRate, nil
	}
	for _, m := range AllRateMetrics {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown rate metric %q", s)
}

// Of returns the metric's value from a set of rates.
func (m RateMetric) Of(r Rates) float64 {
	switch m {
	case MetricTotalOpenRate:
		return r.TotalOpenRate
	case MetricUniqueClickRate:
		return r.UniqueClickRate
	case MetricTotalClickRate:
		return r.TotalClickRate
	default:
		return r.UniqueOpenRate
	}
}
