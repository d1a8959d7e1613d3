package campaign

import (
	"regexp"
	"strings"
)

// deploymentSuffix matches "- Deployment #2", "– deployment 3", " deployment#4"
// and friends. The marker must start the name or follow whitespace or a dash,
// so "Redeployment 2" is left alone. The earliest match and everything after
// it is dropped.
var deploymentSuffix = regexp.MustCompile(`(?i)(?:^|[\s\-\x{2013}\x{2014}])[-\x{2013}\x{2014}]?\s*deployment\s*#?\s*\d+`)

// baseDeployment matches the first deployment of a multi-send campaign.
var baseDeployment = regexp.MustCompile(`(?i)\bdeployment\s*#?\s*1\b`)

// CleanName strips a trailing deployment marker from a campaign name. The
// result is the dedup key. Names without a marker come back trimmed.
func CleanName(raw string) string {
	loc := deploymentSuffix.FindStringIndex(raw)
	if loc == nil {
		return strings.TrimSpace(raw)
	}
	return strings.TrimSpace(raw[:loc[0]])
}

// IsBaseDeployment reports whether a raw name is deployment #1.
func IsBaseDeployment(raw string) bool {
	return baseDeployment.MatchString(raw)
}
