// Package audit records structured audit events for every mutating
// operation on links, SIM metadata, and reports.
//
// The Recorder contract is fire-and-forget: sink failures are logged and
// swallowed, never surfaced to the calling operation. Events carry the
// operation's effective parameters as a JSON payload plus optional request
// context (actor, IP, user agent).
package audit
