// Package source loads raw campaign metric rows and the brand lookup, and
// turns them into the in-memory campaign pool the API serves from.
//
// Completed and live rows come from JSON blobs behind presigned S3 URLs (or,
// for completed rows, from the Snowflake warehouse). Brands come from the
// brand-management endpoint. The Collector joins the three fetches, builds
// the pool, and publishes a Snapshot. Every fetch failure is returned to the
// caller as a *FetchError; a failed refresh keeps the previous snapshot.
package source
