// Package campaign implements the deduplication and aggregation pipeline that
// every analytics view is built on.
//
// Raw per-deployment rows are filtered by volume, grouped by cleaned name, and
// merged into one LogicalCampaign each. Rates are always recomputed from the
// merged counts. Everything here is pure and safe for concurrent use.
package campaign
