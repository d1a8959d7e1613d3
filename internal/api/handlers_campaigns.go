package api

import (
	"net/http"
	"strings"

	"github.com/ignite/campaign-insights/internal/campaign"
	"github.com/ignite/campaign-insights/internal/classify"
	"github.com/ignite/campaign-insights/internal/domain"
	"github.com/ignite/campaign-insights/internal/pkg/httputil"
)

type campaignView struct {
	domain.LogicalCampaign
	Bucket   string `json:"bucket"`
	Topic    string `json:"topic"`
	Industry string `json:"industry"`
	Brand    string `json:"brand,omitempty"`
}

// ListCampaigns returns the deduplicated campaign pool.
//
//	GET /api/campaigns?status=completed|live&q=&page=&limit=
func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	switch status {
	case "", "all", string(domain.CampaignCompleted), string(domain.CampaignLive):
	default:
		httputil.BadRequest(w, "status must be completed, live or all")
		return
	}

	snap, ok := h.currentSnapshot(w)
	if !ok {
		return
	}

	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	industries := snap.Industries()

	views := make([]campaignView, 0, len(snap.Campaigns))
	for _, c := range snap.Campaigns {
		if status == string(domain.CampaignCompleted) && c.IsLive {
			continue
		}
		if status == string(domain.CampaignLive) && !c.IsLive {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(c.Name), q) {
			continue
		}
		cl := classify.Classify(c.Name)
		industry, brand := industries.Industry(c.Name)
		views = append(views, campaignView{
			LogicalCampaign: c,
			Bucket:          cl.Bucket,
			Topic:           cl.Topic,
			Industry:        industry,
			Brand:           brand,
		})
	}

	page, err := parsePage(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.OK(w, Paginate(views, page))
}

type classifyResponse struct {
	Name        string `json:"name"`
	CleanedName string `json:"cleaned_name"`
	classify.Classification
	Industry string `json:"industry"`
	Brand    string `json:"brand,omitempty"`
}

// ClassifyCampaign classifies an arbitrary campaign name. Industry lookup
// uses the current snapshot's brands when one is loaded.
//
//	GET /api/campaigns/classify?name=
func (h *Handlers) ClassifyCampaign(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		httputil.BadRequest(w, "name is required")
		return
	}

	var industries *classify.IndustryClassifier
	if snap, err := h.snapshots.Snapshot(); err == nil {
		industries = snap.Industries()
	}

	cleaned := campaign.CleanName(name)
	industry, brand := industries.Industry(cleaned)
	httputil.OK(w, classifyResponse{
		Name:           name,
		CleanedName:    cleaned,
		Classification: classify.Classify(cleaned),
		Industry:       industry,
		Brand:          brand,
	})
}
