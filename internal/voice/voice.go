package voice

import "context"

// ChannelRef identifies a remote voice channel to dial.
type ChannelRef string

// Status enumerates the lifecycle of a transport session.
type Status int

const (
	StatusConnecting Status = iota
	StatusReady
	StatusSignalling
	StatusReconnecting
	StatusDisconnected
	StatusDestroyed
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusReady:
		return "ready"
	case StatusSignalling:
		return "signalling"
	case StatusReconnecting:
		return "reconnecting"
	case StatusDisconnected:
		return "disconnected"
	case StatusDestroyed:
		return "destroyed"
	default:
		return ""
	}
}

// Transport dials voice channels. Implementations wrap the real wire
// protocol; the engine treats it as opaque.
type Transport interface {
	Dial(ctx context.Context, channel ChannelRef) (Session, error)
}

// Session is one live membership of a remote voice channel.
//
// Changes delivers status transitions in order. Destroy is idempotent and
// terminates the session, emitting StatusDestroyed as the final change.
type Session interface {
	ID() string
	Status() Status
	Changes() <-chan Status
	Subscribe(p Player) (cancel func())
	Destroy()
}

// EventKind enumerates player lifecycle events.
type EventKind int

const (
	EventPlaying EventKind = iota
	EventIdle
	EventError
)

// Event is emitted by a player on state transitions. Err is set only for
// EventError.
type Event struct {
	Kind EventKind
	Err  error
}

// Resource is one playable audio stream with inline volume.
type Resource interface {
	Path() string
	SetVolume(level float64)
	Close() error
}

// Player feeds one resource at a time into a subscribed session.
//
// Events delivers EventPlaying when output starts, EventIdle on natural
// completion or Stop, and EventError on failure. Stop is idempotent.
type Player interface {
	Play(r Resource)
	Stop()
	Events() <-chan Event
}

// Engine is the audio encoder capability: it creates players and turns
// file paths into playable resources.
type Engine interface {
	NewPlayer() Player
	NewResource(path string, volume float64) (Resource, error)
}
