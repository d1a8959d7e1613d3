package httputil

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// QueryBool parses a boolean query parameter. Absent means false.
func QueryBool(r *http.Request, key string) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean", key)
	}
	return v, nil
}

// QueryIntSet parses a comma-separated integer list such as "2023,2024".
// Repeated keys are merged. An absent parameter yields an empty set.
func QueryIntSet(r *http.Request, key string) (map[int]struct{}, error) {
	out := make(map[int]struct{})
	for _, raw := range r.URL.Query()[key] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("%s must be a comma-separated list of integers", key)
			}
			out[n] = struct{}{}
		}
	}
	return out, nil
}

// QueryInt parses an integer query parameter, returning def when absent.
func QueryInt(r *http.Request, key string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}
