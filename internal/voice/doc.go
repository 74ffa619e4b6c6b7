// Package voice defines the transport and audio engine capabilities and
// owns the connection lifecycle.
//
// # Capabilities
//
// [Transport], [Session], [Engine], [Player] and [Resource] describe the
// voice transport and audio encoder as opaque services. The engine never
// reaches into their internals; it reacts to [Status] changes and player
// [Event]s.
//
// # Connection lifecycle
//
// [Manager] drives Idle → Connecting → Ready → {Signalling/Reconnecting} →
// Ready | Destroyed:
//
//   - Connect is idempotent and concurrent calls share one dial
//     (singleflight).
//   - A dial that does not reach ready within the connect timeout destroys
//     the half-open session and fails with [shared.ErrConnectionTimeout].
//   - An unexpected drop starts a bounded race for the transport's own
//     recovery signals; losing the race destroys the session, marks the
//     engine disconnected and fires the halt hook so playback stops.
//
// # Local mode
//
// [LocalTransport] and [LocalEngine] are in-process implementations used in
// development and tests: sessions dial instantly and players pace through
// files at a fixed byte rate.
package voice
