// Package provider defines the adapter contract for upstream device and
// SIM sources and the registry that fans inventory fetches out across them.
//
// Every source implements Adapter (inventory, heartbeats, health check);
// SIM-platform sources additionally implement SimPlatform (SIM inventory
// plus metadata updates). Adapters are registered as a flat collection with
// no ordering dependency, so Registry.FetchAll issues all fetches
// concurrently and a single source's failure never aborts the rest.
//
// Three concrete adapters ship with the platform:
//   - RESTAdapter: JSON-over-HTTP inventory API (DigitalMatter, Teltonika)
//   - SimPlatformAdapter: RESTAdapter plus the extended SIM capability
//   - SnapshotAdapter: inventory JSON object read from storage
package provider
