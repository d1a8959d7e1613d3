package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/campaign-insights/internal/domain"
)

// FlexInt decodes counts that arrive as numbers, numeric strings, "NA",
// empty strings or null. Anything that is not a non-negative number that
// fits in an int64 leaves Valid false.
type FlexInt struct {
	Value int64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler for FlexInt.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	*f = FlexInt{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("FlexInt: %w", err)
		}
		f.parse(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("FlexInt: cannot unmarshal %s", string(data))
	}
	f.parse(n.String())
	return nil
}

func (f *FlexInt) parse(s string) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	switch strings.ToUpper(s) {
	case "", "NA", "N/A", "NULL", "-":
		return
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n >= 0 {
			f.Value, f.Valid = n, true
		}
		return
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return
	}
	// 2^63 is the first float64 past MaxInt64.
	if v = math.Round(v); v >= 0 && v < math.Exp2(63) {
		f.Value, f.Valid = int64(v), true
	}
}

// Or returns the value when valid, otherwise def.
func (f FlexInt) Or(def int64) int64 {
	if f.Valid {
		return f.Value
	}
	return def
}

// MarshalJSON writes null for invalid values.
func (f FlexInt) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(f.Value, 10)), nil
}

// CompletedRow is one row of the completed-campaign metrics blob.
type CompletedRow struct {
	Campaign     string  `json:"Campaign"`
	SendDate     string  `json:"Send_Date"`
	Delivered    FlexInt `json:"Delivered"`
	UniqueOpens  FlexInt `json:"Unique_Opens"`
	TotalOpens   FlexInt `json:"Total_Opens"`
	UniqueClicks FlexInt `json:"Unique_Clicks"`
	TotalClicks  FlexInt `json:"Total_Clicks"`
}

// LiveRow is one row of the live-campaign metrics blob.
type LiveRow struct {
	Campaign     string  `json:"Campaign"`
	SendDate     string  `json:"Send_Date"`
	Sent         FlexInt `json:"Sent"`
	Delivered    FlexInt `json:"Delivered"`
	UniqueOpens  FlexInt `json:"Unique_Opens"`
	TotalOpens   FlexInt `json:"Total_Opens"`
	UniqueClicks FlexInt `json:"Unique_Clicks"`
	TotalClicks  FlexInt `json:"Total_Clicks"`
}

// Record converts the row. Missing counts become 0; an unparseable date
// leaves SendDate nil so the row drops out of time-bucketed views.
func (r CompletedRow) Record() domain.CampaignRecord {
	return domain.CampaignRecord{
		Name:         r.Campaign,
		SendDate:     ParseSendDate(r.SendDate),
		Delivered:    r.Delivered.Or(0),
		UniqueOpens:  r.UniqueOpens.Or(0),
		TotalOpens:   r.TotalOpens.Or(0),
		UniqueClicks: r.UniqueClicks.Or(0),
		TotalClicks:  r.TotalClicks.Or(0),
		Status:       domain.CampaignCompleted,
	}
}

// Record converts the row. Live sends often report Delivered as "NA" while
// in flight, so Sent stands in for it.
func (r LiveRow) Record() domain.CampaignRecord {
	return domain.CampaignRecord{
		Name:         r.Campaign,
		SendDate:     ParseSendDate(r.SendDate),
		Delivered:    r.Delivered.Or(r.Sent.Or(0)),
		UniqueOpens:  r.UniqueOpens.Or(0),
		TotalOpens:   r.TotalOpens.Or(0),
		UniqueClicks: r.UniqueClicks.Or(0),
		TotalClicks:  r.TotalClicks.Or(0),
		Status:       domain.CampaignLive,
	}
}

var sendDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000",
	"1/2/2006",
	"1/2/2006 15:04",
}

// ParseSendDate accepts the date formats seen in exports. It returns nil for
// blank or unrecognised input.
func ParseSendDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range sendDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// DecodeCompleted parses a completed-campaign blob.
func DecodeCompleted(data []byte) ([]domain.CampaignRecord, error) {
	var rows []CompletedRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decoding completed rows: %w", err)
	}
	out := make([]domain.CampaignRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Record())
	}
	return out, nil
}

// DecodeLive parses a live-campaign blob.
func DecodeLive(data []byte) ([]domain.CampaignRecord, error) {
	var rows []LiveRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decoding live rows: %w", err)
	}
	out := make([]domain.CampaignRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Record())
	}
	return out, nil
}
