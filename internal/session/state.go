package session

import (
	"sync"

	"github.com/tgillam/jukebox/internal/models"
)

// State is the engine's shared session record. Connection fields are
// written by the voice manager's hooks and playback fields by the
// controller's; everyone else reads snapshots.
type State struct {
	mu            sync.Mutex
	connected     bool
	transitioning bool
	sessionID     string
	currentTrack  *models.Track
	volume        float64
}

// Snapshot is a point-in-time copy of State.
type Snapshot struct {
	Connected     bool
	Transitioning bool
	SessionID     string
	CurrentTrack  *models.Track
	Volume        float64
}

// NewState creates a disconnected State at full volume.
func NewState() *State {
	return &State{volume: 1.0}
}

// SetConnection records the live session, or clears it when connected is
// false.
func (s *State) SetConnection(sessionID string, connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = connected
	if connected {
		s.sessionID = sessionID
	} else {
		s.sessionID = ""
	}
}

// SetTransitioning flags an operation that is changing connection or
// playback state.
func (s *State) SetTransitioning(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitioning = v
}

// SetTrack records the now-playing track; nil means nothing playing.
func (s *State) SetTrack(track *models.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentTrack = track
}

// SetVolume records the applied volume level in [0.0, 2.0].
func (s *State) SetVolume(level float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = level
}

// Snapshot returns a copy of the current state. No lock is held by the
// caller afterwards.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Connected:     s.connected,
		Transitioning: s.transitioning,
		SessionID:     s.sessionID,
		CurrentTrack:  s.currentTrack,
		Volume:        s.volume,
	}
}
