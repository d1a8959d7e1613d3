package campaign

import "github.com/ignite/campaign-insights/internal/domain"

// MergeDeployments folds the deployments of one campaign into a single
// LogicalCampaign. All records must share the same cleaned name.
//
// Opens and clicks are summed. Delivered and send date come from the base
// deployment (deployment #1, or the first record when none is marked) since
// re-sends target the same base list.
func MergeDeployments(records []domain.CampaignRecord) (domain.LogicalCampaign, error) {
	if len(records) == 0 {
		return domain.LogicalCampaign{}, ErrNoRecords
	}

	base := records[0]
	if len(records) > 1 {
		for _, r := range records {
			if IsBaseDeployment(r.Name) {
				base = r
				break
			}
		}
	}

	var uniqueOpens, totalOpens, uniqueClicks, totalClicks int64
	for _, r := range records {
		uniqueOpens += r.UniqueOpens
		totalOpens += r.TotalOpens
		uniqueClicks += r.UniqueClicks
		totalClicks += r.TotalClicks
	}

	return domain.LogicalCampaign{
		Name:         CleanName(base.Name),
		SendDate:     base.SendDate,
		Delivered:    base.Delivered,
		UniqueOpens:  uniqueOpens,
		TotalOpens:   totalOpens,
		UniqueClicks: uniqueClicks,
		TotalClicks:  totalClicks,
		Rates:        ComputeRates(base.Delivered, uniqueOpens, totalOpens, uniqueClicks, totalClicks),
		IsLive:       base.Status == domain.CampaignLive,
		Deployments:  len(records),
	}, nil
}
