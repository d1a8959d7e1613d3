// Package domain defines the core analytics types for the campaign insights service.
//
// Types in this package are pure value objects with no behavior beyond small
// pure helpers. They are the shared language between the aggregation pipeline,
// the ingestion layer, and the HTTP handlers.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no http.Request, no context.Context in struct fields
//   - JSON tags are allowed (they're metadata, not behavior)
//   - Constants and enums belong here
package domain
