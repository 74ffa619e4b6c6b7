package voice

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tgillam/jukebox/internal/shared"
	"golang.org/x/sync/singleflight"
)

// Manager owns the lifecycle of the single live transport session.
//
// Connect is idempotent: while a non-destroyed session exists it is
// returned without re-dialing, and concurrent calls share one in-flight
// dial. On an unexpected drop the manager waits a short grace period for
// transport-level recovery before destroying the session and invoking the
// halt hook.
type Manager struct {
	transport      Transport
	channel        ChannelRef
	connectTimeout time.Duration
	reconnectGrace time.Duration
	logger         *log.Logger

	group  singleflight.Group
	mu     sync.Mutex
	onHalt func(reason error)

	session     Session
	watchCancel context.CancelFunc
}

// NewManager creates a connection manager for the configured channel.
func NewManager(transport Transport, cfg shared.VoiceConfig, logger *log.Logger) *Manager {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	connectTimeout := cfg.ConnectTimeout()
	if connectTimeout <= 0 {
		connectTimeout = 30 * time.Second
	}
	reconnectGrace := cfg.ReconnectGrace()
	if reconnectGrace <= 0 {
		reconnectGrace = 5 * time.Second
	}

	return &Manager{
		transport:      transport,
		channel:        ChannelRef(cfg.Channel),
		connectTimeout: connectTimeout,
		reconnectGrace: reconnectGrace,
		logger:         shared.WithLogger(logger, "component", "voice"),
	}
}

// SetOnHalt registers a hook invoked when the session is torn down outside
// an explicit Disconnect, so playback can be halted.
func (m *Manager) SetOnHalt(fn func(reason error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onHalt = fn
}

// Current returns the live session, or nil when there is none.
func (m *Manager) Current() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil && m.session.Status() == StatusDestroyed {
		return nil
	}
	return m.session
}

// Connect dials the configured channel and waits for the session to reach
// ready. The second return reports whether an existing session was reused.
func (m *Manager) Connect(ctx context.Context) (Session, bool, error) {
	if s := m.Current(); s != nil {
		return s, true, nil
	}

	v, err, reused := m.group.Do("connect", func() (any, error) {
		return m.dial(ctx)
	})
	if err != nil {
		return nil, false, err
	}
	return v.(Session), reused, nil
}

func (m *Manager) dial(ctx context.Context) (Session, error) {
	m.logger.Info("dialing voice channel", "channel", m.channel)

	session, err := m.transport.Dial(ctx, m.channel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrConnectionLost, err)
	}

	if err := awaitStatus(ctx, session, m.connectTimeout, StatusReady); err != nil {
		// Never leave a half-open session behind.
		session.Destroy()
		return nil, err
	}

	watchCtx, cancel := context.WithCancel(context.Background())

	m.mu.Lock()
	m.session = session
	m.watchCancel = cancel
	m.mu.Unlock()

	go m.watch(watchCtx, session)

	m.logger.Info("voice session ready", "session", session.ID())
	return session, nil
}

// Disconnect destroys the current session. Returns false when there was
// nothing to disconnect.
func (m *Manager) Disconnect() bool {
	m.mu.Lock()
	session := m.session
	cancel := m.watchCancel
	m.session = nil
	m.watchCancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if session == nil {
		return false
	}
	session.Destroy()
	m.logger.Info("voice session destroyed", "session", session.ID())
	return true
}

// watch monitors a live session for unexpected drops.
func (m *Manager) watch(ctx context.Context, session Session) {
	for {
		select {
		case <-ctx.Done():
			return
		case status, ok := <-session.Changes():
			if !ok {
				m.teardown(session, shared.ErrConnectionLost)
				return
			}
			switch status {
			case StatusDisconnected:
				m.logger.Warn("voice session dropped, waiting for recovery", "session", session.ID())
				if m.awaitRecovery(ctx, session) {
					m.logger.Info("voice session recovering", "session", session.ID())
					continue
				}
				m.teardown(session, shared.ErrConnectionLost)
				return
			case StatusDestroyed:
				m.teardown(session, shared.ErrConnectionLost)
				return
			}
		}
	}
}

// awaitRecovery races the transport's recovery signals against the grace
// period. Signalling and Reconnecting both indicate the transport is
// re-establishing on its own; Ready means it already has.
func (m *Manager) awaitRecovery(ctx context.Context, session Session) bool {
	timer := time.NewTimer(m.reconnectGrace)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return true
		case status, ok := <-session.Changes():
			if !ok {
				return false
			}
			switch status {
			case StatusSignalling, StatusReconnecting, StatusReady:
				return true
			case StatusDestroyed:
				return false
			}
		case <-timer.C:
			return false
		}
	}
}

// teardown clears the session (if still current), destroys it and fires
// the halt hook.
func (m *Manager) teardown(session Session, reason error) {
	m.mu.Lock()
	if m.session == session {
		m.session = nil
		m.watchCancel = nil
	}
	hook := m.onHalt
	m.mu.Unlock()

	session.Destroy()
	m.logger.Error("voice session lost", "session", session.ID(), "reason", reason)

	if hook != nil {
		hook(reason)
	}
}

// awaitStatus waits until the session reports want, bounded by timeout.
func awaitStatus(ctx context.Context, session Session, timeout time.Duration, want Status) error {
	if session.Status() == want {
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case status, ok := <-session.Changes():
			if !ok {
				return shared.ErrConnectionLost
			}
			if status == want {
				return nil
			}
			if status == StatusDestroyed {
				return shared.ErrConnectionLost
			}
		case <-timer.C:
			return shared.ErrConnectionTimeout
		}
	}
}
