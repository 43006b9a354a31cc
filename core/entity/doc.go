// Package entity defines the canonical persisted records of the platform:
// devices, SIMs, assets, the two link tables, reports, and audit events.
//
// Links carry composite primary keys and cascade-deleting foreign keys, so
// every link row always references existing Device/Sim/Asset rows.
// Reconciliation upserts devices and SIMs with a full field overwrite and
// never deletes them; a record that disappears from a feed simply keeps a
// stale last_synced_at.
package entity
