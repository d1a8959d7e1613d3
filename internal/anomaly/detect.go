package anomaly

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/ignite/campaign-insights/internal/classify"
	"github.com/ignite/campaign-insights/internal/domain"
)

var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("campaign-insights/anomaly"))

type partition struct {
	group   string
	topic   string
	members []domain.LogicalCampaign
}

// Detect scores every campaign against its partition's completed baseline and
// returns the ones beyond the threshold in the requested direction. The
// industry classifier is only consulted when grouping by industry.
func Detect(campaigns []domain.LogicalCampaign, industries *classify.IndustryClassifier, opts Options) ([]Anomaly, error) {
	opts = opts.withDefaults()
	if _, err := ParseGroupKey(string(opts.GroupKey)); err != nil {
		return nil, err
	}
	if _, err := ParseDirection(string(opts.Direction)); err != nil {
		return nil, err
	}

	parts := partitionCampaigns(campaigns, industries, opts)

	var out []Anomaly
	for _, p := range parts {
		baseline := make([]float64, 0, len(p.members))
		for _, c := range p.members {
			if !c.IsLive {
				baseline = append(baseline, opts.Metric.Of(c.Rates))
			}
		}
		if len(baseline) < opts.MinSample {
			continue
		}

		mean, stdDev := Stats(baseline)
		for _, c := range p.members {
			value := opts.Metric.Of(c.Rates)
			z := ZScore(value, mean, stdDev)
			if !flagged(z, opts.Threshold, opts.Direction) {
				continue
			}
			out = append(out, Anomaly{
				ID:               anomalyID(p.group, p.topic, c, opts.Metric),
				Name:             c.Name,
				Group:            p.group,
				Topic:            p.topic,
				Metric:           opts.Metric,
				Direction:        opts.Direction,
				Value:            value,
				Mean:             mean,
				StdDev:           stdDev,
				ZScore:           z,
				DeviationPercent: deviationPercent(value, mean),
				Severity:         Severity(z, opts.Direction),
				IsLive:           c.IsLive,
				SendDate:         c.SendDate,
				Delivered:        c.Delivered,
				BaselineSize:     len(baseline),
			})
		}
	}

	sortAnomalies(out, opts.Direction)
	return out, nil
}

func flagged(z, threshold float64, dir Direction) bool {
	if dir == Over {
		return z > threshold
	}
	return z < -threshold
}

func deviationPercent(value, mean float64) float64 {
	if mean == 0 {
		return 0
	}
	return (value - mean) / mean * 100
}

// partitionCampaigns groups campaigns in first-appearance order so output is
// deterministic before sorting.
func partitionCampaigns(campaigns []domain.LogicalCampaign, industries *classify.IndustryClassifier, opts Options) []*partition {
	index := make(map[string]*partition)
	var parts []*partition

	for _, c := range campaigns {
		var group string
		if opts.GroupKey == GroupByIndustry {
			group, _ = industries.Industry(c.Name)
		} else {
			group = classify.Classify(c.Name).Bucket
		}
		topic := ""
		if opts.SubdivideByTopic {
			topic = classify.Topic(c.Name)
		}

		key := group + "\x00" + topic
		p, ok := index[key]
		if !ok {
			p = &partition{group: group, topic: topic}
			index[key] = p
			parts = append(parts, p)
		}
		p.members = append(p.members, c)
	}
	return parts
}

func anomalyID(group, topic string, c domain.LogicalCampaign, metric domain.RateMetric) string {
	status := domain.CampaignCompleted
	if c.IsLive {
		status = domain.CampaignLive
	}
	name := strings.Join([]string{group, topic, c.Name, string(metric), string(status)}, "\x00")
	return uuid.NewSHA1(idNamespace, []byte(name)).String()
}

// sortAnomalies puts live campaigns first, then the most extreme scores.
func sortAnomalies(out []Anomaly, dir Direction) {
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsLive != b.IsLive {
			return a.IsLive
		}
		if a.ZScore != b.ZScore {
			if dir == Over {
				return a.ZScore > b.ZScore
			}
			return a.ZScore < b.ZScore
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Group < b.Group
	})
}
