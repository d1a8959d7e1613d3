package brand

import "errors"

// Sentinel errors for the brand service layer.
var (
	ErrNotFound        = errors.New("brand not found")
	ErrMissingBrand    = errors.New("brand is required")
	ErrMissingIndustry = errors.New("industry is required")
)
