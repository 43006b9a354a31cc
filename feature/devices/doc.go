// Package devices implements the unified device view and the explicit
// linking operations.
//
// The unified view is a single left-joined projection of devices, SIM
// links, SIMs, asset links, and assets. A device with multiple links fans
// out to multiple rows; ordering is stable by device id, ICCID, asset id.
//
// # Components
//
//   - Service: UnifiedView plus the four transactional link/unlink
//     operations and SIM metadata passthrough. Every mutation emits an
//     audit event.
//   - Handler: Exposes the HTTP endpoints.
//   - Loader: Registers the feature with the application.
//
// # HTTP Endpoints
//
//   - GET /devices : Filtered, paginated unified view.
//   - POST /devices/link-sim : Link a device to a SIM.
//   - POST /devices/link-asset : Link an asset to a device.
//   - DELETE /devices/unlink-sim : Remove a device-SIM link.
//   - DELETE /devices/unlink-asset : Remove an asset-device link.
//   - PATCH /sims/:iccid : Update SIM description/tags.
package devices
