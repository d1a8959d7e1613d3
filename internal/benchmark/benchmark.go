// Package benchmark ranks a campaign against a cohort of similar completed
// campaigns.
package benchmark

import (
	"errors"
	"fmt"

	"github.com/ignite/campaign-insights/internal/anomaly"
	"github.com/ignite/campaign-insights/internal/campaign"
	"github.com/ignite/campaign-insights/internal/classify"
	"github.com/ignite/campaign-insights/internal/domain"
)

var (
	ErrTargetNotFound = errors.New("benchmark target not found")
	ErrEmptyCohort    = errors.New("benchmark cohort is empty")
)

// CohortOptions narrows the cohort beyond the target's bucket.
type CohortOptions struct {
	SameTopic bool
	SameBrand bool
}

// MetricBenchmark is the cohort distribution for one rate metric and where
// the target falls in it.
type MetricBenchmark struct {
	Metric domain.RateMetric `json:"metric"`
	P25    float64           `json:"p25"`
	P50    float64           `json:"p50"`
	P75    float64           `json:"p75"`
	P90    float64           `json:"p90"`
	Mean   float64           `json:"mean"`
	Value  float64           `json:"value"`
	Rank   float64           `json:"percentile_rank"`
}

// Report is the benchmark for one target campaign.
type Report struct {
	Target         string                  `json:"campaign_name"`
	IsLive         bool                    `json:"is_live"`
	Classification classify.Classification `json:"classification"`
	Brand          string                  `json:"brand,omitempty"`
	Industry       string                  `json:"industry"`
	CohortSize     int                     `json:"cohort_size"`
	Metrics        []MetricBenchmark       `json:"metrics"`
}

// Benchmark finds the target by cleaned name and compares it with the
// completed campaigns in its bucket, excluding itself. A completed target is
// preferred over a live one with the same name.
func Benchmark(target string, campaigns []domain.LogicalCampaign, industries *classify.IndustryClassifier, opts CohortOptions) (Report, error) {
	name := campaign.CleanName(target)
	t, ok := findTarget(name, campaigns)
	if !ok {
		return Report{}, fmt.Errorf("%w: %q", ErrTargetNotFound, name)
	}

	tc := classify.Classify(t.Name)
	industry, brand := industries.Industry(t.Name)

	var cohort []domain.LogicalCampaign
	for _, c := range campaigns {
		if c.IsLive || (c.Name == t.Name && c.IsLive == t.IsLive) {
			continue
		}
		cc := classify.Classify(c.Name)
		if cc.Bucket != tc.Bucket {
			continue
		}
		if opts.SameTopic && cc.Topic != tc.Topic {
			continue
		}
		if opts.SameBrand {
			if _, b := industries.Industry(c.Name); b != brand {
				continue
			}
		}
		cohort = append(cohort, c)
	}
	if len(cohort) == 0 {
		return Report{}, fmt.Errorf("%w: %q", ErrEmptyCohort, name)
	}

	report := Report{
		Target:         t.Name,
		IsLive:         t.IsLive,
		Classification: tc,
		Brand:          brand,
		Industry:       industry,
		CohortSize:     len(cohort),
		Metrics:        make([]MetricBenchmark, 0, len(domain.AllRateMetrics)),
	}
	for _, m := range domain.AllRateMetrics {
		values := make([]float64, len(cohort))
		for i, c := range cohort {
			values[i] = m.Of(c.Rates)
		}
		sorted := sortedCopy(values)
		mean, _ := anomaly.Stats(values)
		v := m.Of(t.Rates)

		report.Metrics = append(report.Metrics, MetricBenchmark{
			Metric: m,
			P25:    Percentile(sorted, 25),
			P50:    Percentile(sorted, 50),
			P75:    Percentile(sorted, 75),
			P90:    Percentile(sorted, 90),
			Mean:   mean,
			Value:  v,
			Rank:   PercentileRank(values, v),
		})
	}
	return report, nil
}

func findTarget(name string, campaigns []domain.LogicalCampaign) (domain.LogicalCampaign, bool) {
	var live *domain.LogicalCampaign
	for i := range campaigns {
		c := campaigns[i]
		if c.Name != name {
			continue
		}
		if !c.IsLive {
			return c, true
		}
		if live == nil {
			live = &campaigns[i]
		}
	}
	if live != nil {
		return *live, true
	}
	return domain.LogicalCampaign{}, false
}
