package classify

import "regexp"

// rule pairs a compiled pattern with the label it assigns. Rule slices are
// evaluated in order and the first match wins.
type rule struct {
	pattern *regexp.Regexp
	label   string
}

func r(expr, label string) rule {
	return rule{pattern: regexp.MustCompile(`(?i)` + expr), label: label}
}

const (
	BucketClinicalUpdates    = "Clinical Updates"
	BucketExpertPerspectives = "Expert Perspectives"
	BucketHotTopics          = "Hot Topics"
	BucketCustomEmail        = "Custom Email"

	TopicOther = "Other"
)

// Buckets lists every content bucket, fallback last.
var Buckets = []string{
	BucketClinicalUpdates,
	BucketExpertPerspectives,
	BucketHotTopics,
	BucketCustomEmail,
}

var bucketRules = []rule{
	r(`\bhot\s*topics?\b`, BucketHotTopics),
	r(`\bexpert\s+(perspectives?|insights?|roundtable|interview)\b`, BucketExpertPerspectives),
	r(`\bkol\b`, BucketExpertPerspectives),
	r(`\bclinical\s+(updates?|news|insights?|highlights?)\b`, BucketClinicalUpdates),
	r(`\bconference\s+(coverage|recap|highlights?)\b`, BucketClinicalUpdates),
}

// topicOverrides name specific diseases and are checked before the generic
// vocabulary so "Breast Cancer" is never reduced to "Oncology".
var topicOverrides = []rule{
	r(`\bbreast\s+cancer\b`, "Breast Cancer"),
	r(`\b(nsclc|lung\s+cancer|non[-\s]small[-\s]cell)\b`, "Lung Cancer"),
	r(`\bprostate\s+cancer\b`, "Prostate Cancer"),
	r(`\bmultiple\s+sclerosis\b|\bms\b`, "Multiple Sclerosis"),
	r(`\bmigraines?\b`, "Migraine"),
	r(`\b(atopic\s+dermatitis|eczema)\b`, "Atopic Dermatitis"),
	r(`\bheart\s+failure\b`, "Heart Failure"),
	r(`\b(t2d|type\s*2\s+diabetes)\b`, "Type 2 Diabetes"),
	r(`\balzheimer'?s?\b`, "Alzheimer's"),
}

var topicVocabulary = []rule{
	r(`\b(oncology|cancers?|tumou?rs?|carcinoma)\b`, "Oncology"),
	r(`\b(hematology|haematology|anemia|leukemia|lymphoma|myeloma)\b`, "Hematology"),
	r(`\b(cardiology|cardiovascular|cardiac|heart|hypertension)\b`, "Cardiology"),
	r(`\b(dermatology|psoriasis|acne)\b`, "Dermatology"),
	r(`\b(neurology|epilepsy|parkinson'?s?|neuropathy)\b`, "Neurology"),
	r(`\b(diabetes|diabetic|endocrinology)\b`, "Diabetes"),
	r(`\b(obesity|weight\s+management)\b`, "Obesity"),
	r(`\b(respiratory|asthma|copd|pulmonology)\b`, "Respiratory"),
	r(`\b(rheumatology|arthritis|lupus)\b`, "Rheumatology"),
	r(`\b(gastroenterology|crohn'?s?|colitis|ibd)\b`, "Gastroenterology"),
	r(`\b(hiv|hepatitis|vaccines?|infectious\s+disease)\b`, "Infectious Disease"),
	r(`\b(ophthalmology|retina|glaucoma)\b`, "Ophthalmology"),
	r(`\b(psychiatry|depression|schizophrenia|adhd)\b`, "Psychiatry"),
	r(`\b(nephrology|kidney|ckd)\b`, "Nephrology"),
}

func firstMatch(rules []rule, s string) (string, bool) {
	for _, rl := range rules {
		if rl.pattern.MatchString(s) {
			return rl.label, true
		}
	}
	return "", false
}
