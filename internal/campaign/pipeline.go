package campaign

import "github.com/ignite/campaign-insights/internal/domain"

type groupKey struct {
	name   string
	status domain.CampaignStatus
}

// Dedupe groups records by cleaned name and status and merges each group.
// Output order follows the first appearance of each group.
func Dedupe(records []domain.CampaignRecord) []domain.LogicalCampaign {
	groups := make(map[groupKey][]domain.CampaignRecord)
	order := make([]groupKey, 0)

	for _, r := range records {
		k := groupKey{name: CleanName(r.Name), status: r.Status}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}

	out := make([]domain.LogicalCampaign, 0, len(order))
	for _, k := range order {
		lc, err := MergeDeployments(groups[k])
		if err != nil {
			continue
		}
		out = append(out, lc)
	}
	return out
}

// Build runs the full pipeline: volume filter, then dedupe and merge.
func Build(records []domain.CampaignRecord, t Thresholds) []domain.LogicalCampaign {
	return Dedupe(FilterVolume(records, t))
}

// Completed returns only the finished campaigns from a pool.
func Completed(campaigns []domain.LogicalCampaign) []domain.LogicalCampaign {
	out := make([]domain.LogicalCampaign, 0, len(campaigns))
	for _, c := range campaigns {
		if !c.IsLive {
			out = append(out, c)
		}
	}
	return out
}
