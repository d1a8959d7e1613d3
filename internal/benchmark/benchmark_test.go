package benchmark

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/campaign-insights/internal/classify"
	"github.com/ignite/campaign-insights/internal/domain"
)

func TestPercentile(t *testing.T) {
	sorted := []float64{10, 20, 30, 40, 50}

	tests := []struct {
		p        float64
		expected float64
	}{
		{0, 10},
		{25, 20},
		{50, 30},
		{90, 46},
		{100, 50},
		{-5, 10},
		{150, 50},
	}
	for _, tc := range tests {
		assert.InDelta(t, tc.expected, Percentile(sorted, tc.p), 1e-9, "p=%v", tc.p)
	}

	assert.Equal(t, 0.0, Percentile(nil, 50))
	assert.Equal(t, 7.0, Percentile([]float64{7}, 75))
}

func TestPercentileRank(t *testing.T) {
	values := []float64{5, 1, 3, 3, 9}
	assert.InDelta(t, 60.0, PercentileRank(values, 3), 1e-9)
	assert.InDelta(t, 0.0, PercentileRank(values, 0), 1e-9)
	assert.InDelta(t, 100.0, PercentileRank(values, 9), 1e-9)
	assert.Equal(t, 0.0, PercentileRank(nil, 3))
}

func TestPercentileRankRoundTrip(t *testing.T) {
	cohort := []float64{12.5, 3, 44, 18, 18, 27.25, 9}
	for _, v := range []float64{0, 3, 17.9, 18, 50} {
		reported := PercentileRank(cohort, v)
		withSelf := append(append([]float64{}, cohort...), v)
		assert.GreaterOrEqual(t, PercentileRank(withSelf, v), reported, "v=%v", v)
	}
}

func rated(name string, uniqueOpenRate float64, live bool) domain.LogicalCampaign {
	return domain.LogicalCampaign{
		Name:   name,
		IsLive: live,
		Rates: domain.Rates{
			UniqueOpenRate:  uniqueOpenRate,
			TotalOpenRate:   uniqueOpenRate * 2,
			UniqueClickRate: 5,
			TotalClickRate:  6,
		},
	}
}

func clinicalCohort() []domain.LogicalCampaign {
	var out []domain.LogicalCampaign
	for i, r := range []float64{10, 20, 30, 40, 50} {
		out = append(out, rated(fmt.Sprintf("Clinical Updates: Cardiology %d", i+1), r, false))
	}
	return out
}

func TestBenchmark(t *testing.T) {
	campaigns := append(clinicalCohort(),
		rated("Clinical Updates: Oncology Target", 35, false),
		rated("Hot Topics: Cardiology Other Bucket", 99, false),
		rated("Clinical Updates: Cardiology Live", 1, true),
	)

	report, err := Benchmark("Clinical Updates: Oncology Target - Deployment #2", campaigns, nil, CohortOptions{})
	require.NoError(t, err)

	assert.Equal(t, "Clinical Updates: Oncology Target", report.Target)
	assert.Equal(t, classify.BucketClinicalUpdates, report.Classification.Bucket)
	assert.Equal(t, 5, report.CohortSize, "target, live and other-bucket campaigns are excluded")
	require.Len(t, report.Metrics, 4)

	uor := report.Metrics[0]
	assert.Equal(t, domain.MetricUniqueOpenRate, uor.Metric)
	assert.InDelta(t, 20.0, uor.P25, 1e-9)
	assert.InDelta(t, 30.0, uor.P50, 1e-9)
	assert.InDelta(t, 40.0, uor.P75, 1e-9)
	assert.InDelta(t, 46.0, uor.P90, 1e-9)
	assert.InDelta(t, 30.0, uor.Mean, 1e-9)
	assert.InDelta(t, 35.0, uor.Value, 1e-9)
	assert.InDelta(t, 60.0, uor.Rank, 1e-9)
}

func TestBenchmarkSameTopic(t *testing.T) {
	campaigns := append(clinicalCohort(),
		rated("Clinical Updates: Oncology Target", 35, false),
		rated("Clinical Updates: Oncology Peer", 25, false),
	)

	report, err := Benchmark("Clinical Updates: Oncology Target", campaigns, nil, CohortOptions{SameTopic: true})
	require.NoError(t, err)
	assert.Equal(t, 1, report.CohortSize)
	assert.Equal(t, "Oncology", report.Classification.Topic)
	assert.InDelta(t, 100.0, report.Metrics[0].Rank, 1e-9)
}

func TestBenchmarkSameBrand(t *testing.T) {
	industries := classify.NewIndustryClassifier(map[string]string{"Acme": "Pharma"})
	campaigns := append(clinicalCohort(),
		rated("Clinical Updates: Acme Target", 35, false),
		rated("Clinical Updates: Acme Peer", 45, false),
	)

	report, err := Benchmark("Clinical Updates: Acme Target", campaigns, industries, CohortOptions{SameBrand: true})
	require.NoError(t, err)
	assert.Equal(t, "Acme", report.Brand)
	assert.Equal(t, "Pharma", report.Industry)
	assert.Equal(t, 1, report.CohortSize)
	assert.InDelta(t, 0.0, report.Metrics[0].Rank, 1e-9)
}

func TestBenchmarkLiveTarget(t *testing.T) {
	campaigns := append(clinicalCohort(), rated("Clinical Updates: Cardiology Live", 15, true))

	report, err := Benchmark("Clinical Updates: Cardiology Live", campaigns, nil, CohortOptions{})
	require.NoError(t, err)
	assert.True(t, report.IsLive)
	assert.Equal(t, 5, report.CohortSize)
	assert.InDelta(t, 20.0, report.Metrics[0].Rank, 1e-9)
}

func TestBenchmarkErrors(t *testing.T) {
	_, err := Benchmark("Missing", clinicalCohort(), nil, CohortOptions{})
	assert.ErrorIs(t, err, ErrTargetNotFound)

	lonely := []domain.LogicalCampaign{rated("Hot Topics: Alone", 10, false)}
	_, err = Benchmark("Hot Topics: Alone", lonely, nil, CohortOptions{})
	assert.ErrorIs(t, err, ErrEmptyCohort)
}
