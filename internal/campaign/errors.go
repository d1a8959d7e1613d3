package campaign

import "errors"

// ErrNoRecords is returned when a merge is asked to combine zero deployments.
var ErrNoRecords = errors.New("no records to merge")
