// Package httputil holds the JSON response and query parsing helpers shared
// by every handler, so error envelopes and status codes stay uniform.
package httputil
