package anomaly

import (
	"fmt"
	"time"

	"github.com/ignite/campaign-insights/internal/domain"
)

// GroupKey selects how campaigns are partitioned.
type GroupKey string

const (
	GroupByBucket   GroupKey = "bucket"
	GroupByIndustry GroupKey = "industry"
)

// Direction selects which tail of the distribution is flagged.
type Direction string

const (
	Under Direction = "under"
	Over  Direction = "over"
)

const (
	DefaultThreshold = 1.5
	DefaultMinSample = 5
)

// ParseGroupKey validates a group key; empty selects bucket.
func ParseGroupKey(s string) (GroupKey, error) {
	switch GroupKey(s) {
	case "", GroupByBucket:
		return GroupByBucket, nil
	case GroupByIndustry:
		return GroupByIndustry, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidGroupKey, s)
}

// ParseDirection validates a direction; empty selects under.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case "", Under:
		return Under, nil
	case Over:
		return Over, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// Options controls a detection run.
type Options struct {
	GroupKey         GroupKey
	SubdivideByTopic bool
	Metric           domain.RateMetric
	Direction        Direction
	Threshold        float64
	MinSample        int
}

func (o Options) withDefaults() Options {
	if o.GroupKey == "" {
		o.GroupKey = GroupByBucket
	}
	if o.Metric == "" {
		o.Metric = domain.MetricUniqueOpenRate
	}
	if o.Direction == "" {
		o.Direction = Under
	}
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if o.MinSample <= 0 {
		o.MinSample = DefaultMinSample
	}
	return o
}

// Anomaly is one flagged campaign.
type Anomaly struct {
	ID               string            `json:"id"`
	Name             string            `json:"campaign_name"`
	Group            string            `json:"group"`
	Topic            string            `json:"topic,omitempty"`
	Metric           domain.RateMetric `json:"metric"`
	Direction        Direction         `json:"direction"`
	Value            float64           `json:"value"`
	Mean             float64           `json:"mean"`
	StdDev           float64           `json:"std_dev"`
	ZScore           float64           `json:"z_score"`
	DeviationPercent float64           `json:"deviation_percent"`
	Severity         string            `json:"severity"`
	IsLive           bool              `json:"is_live"`
	SendDate         *time.Time        `json:"send_date,omitempty"`
	Delivered        int64             `json:"delivered"`
	BaselineSize     int               `json:"baseline_size"`
}
