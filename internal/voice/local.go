package voice

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/tgillam/jukebox/internal/shared"
)

// localPaceBytesPerSec approximates a 128kbps mp3 so local playback lasts
// roughly as long as the real track would.
const localPaceBytesPerSec = 16 * 1024

// LocalTransport is an in-process transport used in development mode: it
// dials instantly and sessions only end when destroyed. Production
// transports implement the same interfaces over the real protocol.
type LocalTransport struct {
	// DialDelay, when set, delays the transition to ready.
	DialDelay time.Duration
}

// NewLocalTransport creates a LocalTransport.
func NewLocalTransport() *LocalTransport {
	return &LocalTransport{}
}

// Dial creates a session that becomes ready after DialDelay.
func (t *LocalTransport) Dial(ctx context.Context, _ ChannelRef) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := &localSession{
		id:      shared.GenerateID(),
		changes: make(chan Status, 8),
		status:  StatusConnecting,
		players: map[int]Player{},
	}

	delay := t.DialDelay
	go func() {
		if delay > 0 {
			select {
			case <-ctx.Done():
				s.Destroy()
				return
			case <-time.After(delay):
			}
		}
		s.setStatus(StatusReady)
	}()

	return s, nil
}

var _ Transport = (*LocalTransport)(nil)

type localSession struct {
	id      string
	changes chan Status

	mu        sync.Mutex
	status    Status
	players   map[int]Player
	nextSub   int
	destroyed bool
}

func (s *localSession) ID() string { return s.id }

func (s *localSession) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *localSession) Changes() <-chan Status { return s.changes }

func (s *localSession) Subscribe(p Player) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.players[id] = p
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.players, id)
	}
}

func (s *localSession) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	s.status = StatusDestroyed
	players := make([]Player, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, p)
	}
	s.players = map[int]Player{}
	s.mu.Unlock()

	for _, p := range players {
		p.Stop()
	}
	s.emit(StatusDestroyed)
}

func (s *localSession) setStatus(status Status) {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.status = status
	s.mu.Unlock()
	s.emit(status)
}

func (s *localSession) emit(status Status) {
	select {
	case s.changes <- status:
	default:
	}
}

// LocalEngine is the in-process audio engine: resources are plain files
// and players pace through them at a fixed byte rate.
type LocalEngine struct {
	// Pace overrides the default byte rate (bytes per second). Zero uses
	// localPaceBytesPerSec.
	Pace int
}

// NewLocalEngine creates a LocalEngine.
func NewLocalEngine() *LocalEngine {
	return &LocalEngine{}
}

// NewResource validates the path and wraps it as a playable resource.
func (e *LocalEngine) NewResource(path string, volume float64) (Resource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open resource: %w", err)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%w: empty file %s", shared.ErrPlaybackFatal, path)
	}
	return &localResource{path: path, volume: volume}, nil
}

// NewPlayer creates a player paced at the engine's byte rate.
func (e *LocalEngine) NewPlayer() Player {
	pace := e.Pace
	if pace <= 0 {
		pace = localPaceBytesPerSec
	}
	return &localPlayer{
		pace:   pace,
		events: make(chan Event, 4),
		stop:   make(chan struct{}),
	}
}

var _ Engine = (*LocalEngine)(nil)

type localResource struct {
	path string

	mu     sync.Mutex
	volume float64
}

func (r *localResource) Path() string { return r.path }

func (r *localResource) SetVolume(level float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.volume = level
}

func (r *localResource) Close() error { return nil }

type localPlayer struct {
	pace   int
	events chan Event

	mu      sync.Mutex
	stop    chan struct{}
	stopped bool
	playing bool
}

func (p *localPlayer) Events() <-chan Event { return p.events }

func (p *localPlayer) Play(r Resource) {
	p.mu.Lock()
	if p.stopped || p.playing {
		p.mu.Unlock()
		return
	}
	p.playing = true
	stop := p.stop
	p.mu.Unlock()

	go p.run(r, stop)
}

func (p *localPlayer) run(r Resource, stop <-chan struct{}) {
	f, err := os.Open(r.Path())
	if err != nil {
		p.emit(Event{Kind: EventError, Err: fmt.Errorf("%w: %v", shared.ErrPlaybackFatal, err)})
		return
	}
	defer f.Close()
	defer r.Close()

	p.emit(Event{Kind: EventPlaying})

	buf := make([]byte, 4096)
	ticker := time.NewTicker(time.Second / time.Duration(p.pace/len(buf)+1))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			p.emit(Event{Kind: EventIdle})
			return
		case <-ticker.C:
			if _, err := f.Read(buf); err != nil {
				if err == io.EOF {
					p.emit(Event{Kind: EventIdle})
				} else {
					p.emit(Event{Kind: EventError, Err: fmt.Errorf("%w: %v", shared.ErrPlaybackTransient, err)})
				}
				return
			}
		}
	}
}

func (p *localPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.stopped = true
	close(p.stop)
}

func (p *localPlayer) emit(e Event) {
	select {
	case p.events <- e:
	default:
	}
}
