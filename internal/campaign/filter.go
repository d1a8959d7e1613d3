package campaign

import "github.com/ignite/campaign-insights/internal/domain"

// Default minimum delivered counts per status. Live sends are held to a lower
// bar because they are still in flight.
const (
	DefaultMinDeliveredCompleted = 100
	DefaultMinDeliveredLive      = 20
)

// Thresholds holds the minimum delivered count a raw record needs, per status.
// A record is kept when its own delivered count is >= the minimum.
type Thresholds struct {
	Completed int64 `yaml:"completed" json:"completed"`
	Live      int64 `yaml:"live" json:"live"`
}

// DefaultThresholds returns the thresholds used by the dashboard views.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Completed: DefaultMinDeliveredCompleted,
		Live:      DefaultMinDeliveredLive,
	}
}

// Min returns the threshold for a status.
func (t Thresholds) Min(status domain.CampaignStatus) int64 {
	if status == domain.CampaignLive {
		return t.Live
	}
	return t.Completed
}

// FilterVolume drops low-volume raw records. It runs per record, before
// grouping, so a merged campaign disappears only when every deployment falls
// below the bar.
func FilterVolume(records []domain.CampaignRecord, t Thresholds) []domain.CampaignRecord {
	out := make([]domain.CampaignRecord, 0, len(records))
	for _, r := range records {
		if r.Delivered < t.Min(r.Status) {
			continue
		}
		out = append(out, r)
	}
	return out
}
