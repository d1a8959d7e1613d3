// Package brand manages the brand -> industry lookup used for industry
// grouping.
//
// The service validates input and exposes the lookup in the same shape the
// campaign collector consumes, so a deployment without a separate backend can
// serve brands from its own database.
//
// Repository implementations live in repository/postgres/.
package brand
