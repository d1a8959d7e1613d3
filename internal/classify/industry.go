package classify

import (
	"sort"
	"strings"
)

// IndustryOther is returned when no brand matches.
const IndustryOther = "Other"

type brandEntry struct {
	brand    string
	lower    string
	industry string
}

// IndustryClassifier matches campaign names against a brand -> industry
// lookup. It is immutable once built and safe for concurrent use.
type IndustryClassifier struct {
	brands []brandEntry
}

// NewIndustryClassifier builds a classifier from a brand -> industry map.
// Blank brand names are ignored.
func NewIndustryClassifier(brands map[string]string) *IndustryClassifier {
	entries := make([]brandEntry, 0, len(brands))
	for brand, industry := range brands {
		b := strings.TrimSpace(brand)
		if b == "" {
			continue
		}
		ind := strings.TrimSpace(industry)
		if ind == "" {
			ind = IndustryOther
		}
		entries = append(entries, brandEntry{brand: b, lower: strings.ToLower(b), industry: ind})
	}

	// Longest brand first; alphabetical among equal lengths keeps ties stable.
	sort.Slice(entries, func(i, j int) bool {
		if len(entries[i].lower) != len(entries[j].lower) {
			return len(entries[i].lower) > len(entries[j].lower)
		}
		return entries[i].lower < entries[j].lower
	})
	return &IndustryClassifier{brands: entries}
}

// Industry returns the industry and matched brand for a campaign name.
func (c *IndustryClassifier) Industry(name string) (industry, brand string) {
	if c == nil {
		return IndustryOther, ""
	}
	lower := strings.ToLower(name)
	for _, e := range c.brands {
		if strings.Contains(lower, e.lower) {
			return e.industry, e.brand
		}
	}
	return IndustryOther, ""
}

// Len reports how many brands the classifier knows.
func (c *IndustryClassifier) Len() int {
	if c == nil {
		return 0
	}
	return len(c.brands)
}
