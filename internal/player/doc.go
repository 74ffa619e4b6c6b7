// Package player drives the single active audio player and the track
// rotation over the catalog.
//
// Rotation is round-robin by default: the working list's head is the
// current track, natural completion pops it to the tail and advances to
// the new head, so every track replays before any repeats. Shuffle is an
// explicit opt-in policy.
//
// One player instance is live at a time. Instances are identified by a
// generation counter; the previous instance's listeners are detached and
// stopped before the next one subscribes, and handlers for replaced
// instances drop their events instead of mutating current state. Skip sets
// a guard before stopping so the natural-end handler cannot double-advance.
//
// Transient playback errors retry the same track once; anything else is
// classified as failed and rotation advances.
package player
