package campaign

import "github.com/ignite/campaign-insights/internal/domain"

// ComputeRates derives the four rate percentages from counts. Open rates are
// over delivered; click rates are over the matching opens. A zero denominator
// yields 0, never NaN or Inf.
func ComputeRates(delivered, uniqueOpens, totalOpens, uniqueClicks, totalClicks int64) domain.Rates {
	return domain.Rates{
		UniqueOpenRate:  pct(uniqueOpens, delivered),
		TotalOpenRate:   pct(totalOpens, delivered),
		UniqueClickRate: pct(uniqueClicks, uniqueOpens),
		TotalClickRate:  pct(totalClicks, totalOpens),
	}
}

func pct(num, den int64) float64 {
	if den <= 0 {
		return 0
	}
	return float64(num) / float64(den) * 100
}
