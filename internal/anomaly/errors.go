package anomaly

import "errors"

var (
	ErrInvalidGroupKey  = errors.New("invalid group key")
	ErrInvalidDirection = errors.New("invalid direction")
)
