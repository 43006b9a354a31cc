// Package reconcile implements the multi-provider reconciliation engine.
//
// A run fetches every registered provider's inventory concurrently,
// upserts canonical device and SIM records, supplements last-seen
// timestamps from provider heartbeats, auto-links assets to devices by
// serial match, and recomputes the store-wide consistency metrics
// (duplicate ICCIDs, unmatched SIMs, orphaned devices).
//
// Per-provider fetch failures are absorbed into the run result; only a
// failure in a later stage fails the run. Upserts commit one record at a
// time, so re-running after a partial failure converges.
//
// # HTTP Endpoints
//
//   - POST /reconcile/run : Trigger a synchronous run.
//   - GET /reconcile/health : Provider, database, and queue health.
//   - GET /audit/events : Paged audit event listing.
package reconcile
