// package testing contains shared testing utilities
package testing

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/tgillam/jukebox/internal/voice"
)

// FakeSession is a test double for [voice.Session] with a scripted status stream.
type FakeSession struct {
	SessionID string

	mu           sync.Mutex
	status       voice.Status
	changes      chan voice.Status
	subscribed   []voice.Player
	unsubscribes int
	destroyed    bool
}

func NewFakeSession(id string) *FakeSession {
	return &FakeSession{
		SessionID: id,
		status:    voice.StatusConnecting,
		changes:   make(chan voice.Status, 16),
	}
}

func (s *FakeSession) ID() string { return s.SessionID }

func (s *FakeSession) Status() voice.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *FakeSession) Changes() <-chan voice.Status { return s.changes }

func (s *FakeSession) Subscribe(p voice.Player) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribed = append(s.subscribed, p)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.unsubscribes++
	}
}

func (s *FakeSession) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	s.status = voice.StatusDestroyed
	s.mu.Unlock()
	s.Emit(voice.StatusDestroyed)
}

func (s *FakeSession) Destroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

func (s *FakeSession) Unsubscribes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsubscribes
}

// Emit records and publishes a status transition.
func (s *FakeSession) Emit(status voice.Status) {
	s.mu.Lock()
	if status != voice.StatusDestroyed {
		s.status = status
	}
	s.mu.Unlock()
	select {
	case s.changes <- status:
	default:
	}
}

// FakeTransport is a test double for [voice.Transport].
//
// Dials pop scripted sessions in order; when the script is exhausted a new
// session is created, emitting ready immediately unless HoldReady is set.
type FakeTransport struct {
	HoldReady bool
	DialErr   error

	mu        sync.Mutex
	scripted  []*FakeSession
	dialCount int
}

func NewFakeTransport(sessions ...*FakeSession) *FakeTransport {
	return &FakeTransport{scripted: sessions}
}

func (t *FakeTransport) Dial(_ context.Context, _ voice.ChannelRef) (voice.Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dialCount++
	if t.DialErr != nil {
		return nil, t.DialErr
	}
	if len(t.scripted) > 0 {
		s := t.scripted[0]
		t.scripted = t.scripted[1:]
		return s, nil
	}
	s := NewFakeSession("fake-session")
	if !t.HoldReady {
		s.Emit(voice.StatusReady)
	}
	return s, nil
}

func (t *FakeTransport) DialCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dialCount
}

// FakePlayer is a manually driven test double for [voice.Player].
type FakePlayer struct {
	mu      sync.Mutex
	events  chan voice.Event
	played  []string
	stopped bool
}

func NewFakePlayer() *FakePlayer {
	return &FakePlayer{events: make(chan voice.Event, 8)}
}

func (p *FakePlayer) Play(r voice.Resource) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.played = append(p.played, r.Path())
}

func (p *FakePlayer) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()
	p.emit(voice.Event{Kind: voice.EventIdle})
}

func (p *FakePlayer) Events() <-chan voice.Event { return p.events }

func (p *FakePlayer) Played() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.played))
	copy(out, p.played)
	return out
}

func (p *FakePlayer) IsStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// EmitPlaying simulates output starting.
func (p *FakePlayer) EmitPlaying() { p.emit(voice.Event{Kind: voice.EventPlaying}) }

// Finish simulates natural completion.
func (p *FakePlayer) Finish() { p.emit(voice.Event{Kind: voice.EventIdle}) }

// Fail simulates a playback error.
func (p *FakePlayer) Fail(err error) { p.emit(voice.Event{Kind: voice.EventError, Err: err}) }

func (p *FakePlayer) emit(e voice.Event) {
	select {
	case p.events <- e:
	default:
	}
}

// FakeResource is a test double for [voice.Resource].
type FakeResource struct {
	FilePath string

	mu     sync.Mutex
	volume float64
	closed bool
}

func (r *FakeResource) Path() string { return r.FilePath }

func (r *FakeResource) SetVolume(level float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.volume = level
}

func (r *FakeResource) Volume() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.volume
}

func (r *FakeResource) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// FakeEngine is a test double for [voice.Engine] that records every player
// and resource it creates.
type FakeEngine struct {
	ResourceErr error

	mu        sync.Mutex
	players   []*FakePlayer
	resources []*FakeResource
}

func NewFakeEngine() *FakeEngine { return &FakeEngine{} }

func (e *FakeEngine) NewPlayer() voice.Player {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := NewFakePlayer()
	e.players = append(e.players, p)
	return p
}

func (e *FakeEngine) NewResource(path string, volume float64) (voice.Resource, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ResourceErr != nil {
		return nil, e.ResourceErr
	}
	r := &FakeResource{FilePath: path, volume: volume}
	e.resources = append(e.resources, r)
	return r, nil
}

// Players returns every player created so far, oldest first.
func (e *FakeEngine) Players() []*FakePlayer {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*FakePlayer, len(e.players))
	copy(out, e.players)
	return out
}

// Resources returns every resource created so far, oldest first.
func (e *FakeEngine) Resources() []*FakeResource {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*FakeResource, len(e.resources))
	copy(out, e.resources)
	return out
}

// WriteLibrary populates dir with empty-ish media files named by ids.
func WriteLibrary(t *testing.T, dir string, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if err := os.WriteFile(filepath.Join(dir, id), []byte("audio"), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", id, err)
		}
	}
}

// AssertFileExists fails the test when path does not exist.
func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

// AssertFileMissing fails the test when path exists.
func AssertFileMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
	}
}
