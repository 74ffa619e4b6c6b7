// Package session composes the voice manager, playback controller, catalog
// and acquisition pipeline behind one command façade.
//
// [State] holds the shared session record under a single-writer discipline:
// the manager's hooks write the connection fields, the controller's hooks
// write the playback fields, and every read is a snapshot. The
// [Orchestrator] is the only surface the front end calls; each operation
// resolves to exactly one terminal message or one typed error.
package session
