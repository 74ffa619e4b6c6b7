package player

import (
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/tgillam/jukebox/internal/catalog"
	"github.com/tgillam/jukebox/internal/models"
	"github.com/tgillam/jukebox/internal/shared"
	"github.com/tgillam/jukebox/internal/voice"
)

// RotationPolicy selects what plays next after natural completion.
type RotationPolicy int

const (
	// PolicyRoundRobin pops the finished head, appends it to the tail and
	// advances to the new head: every track replays before any repeats.
	PolicyRoundRobin RotationPolicy = iota
	// PolicyShuffle picks the next track at random. Non-deterministic;
	// explicit opt-in only.
	PolicyShuffle
)

// ParsePolicy maps a config string to a RotationPolicy.
func ParsePolicy(s string) (RotationPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "round_robin", "roundrobin":
		return PolicyRoundRobin, nil
	case "shuffle", "random":
		return PolicyShuffle, nil
	default:
		return PolicyRoundRobin, fmt.Errorf("%w: unknown rotation policy %q", shared.ErrInvalidConfig, s)
	}
}

// Controller owns the single active player and drives track rotation.
//
// Exactly one player instance is live at a time; every instance gets a
// generation number and event handlers compare it before mutating state,
// so a replaced instance can never apply a stale transition.
type Controller struct {
	engine  voice.Engine
	catalog *catalog.Catalog
	logger  *log.Logger

	mu          sync.Mutex
	session     voice.Session
	queue       []models.Track
	current     *models.Track
	policy      RotationPolicy
	volume      float64
	player      voice.Player
	resource    voice.Resource
	unsubscribe func()
	generation  int
	skipping    bool
	retried     bool
	rng         *rand.Rand

	onTrackChanged func(track *models.Track)
}

// NewController creates a playback controller over the given engine and catalog.
func NewController(engine voice.Engine, cat *catalog.Catalog, cfg shared.PlaybackConfig, logger *log.Logger) (*Controller, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	policy, err := ParsePolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}
	volume := float64(cfg.Volume) / 100
	if cfg.Volume == 0 {
		volume = 1.0
	}

	return &Controller{
		engine:  engine,
		catalog: cat,
		logger:  shared.WithLogger(logger, "component", "player"),
		policy:  policy,
		volume:  clampVolume(volume),
		rng:     rand.New(rand.NewSource(rand.Int63())),
	}, nil
}

// SetOnTrackChanged registers the now-playing hook. It fires with the track
// on every transition to playing and with nil when playback stops.
func (c *Controller) SetOnTrackChanged(fn func(track *models.Track)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTrackChanged = fn
}

// Current returns the track currently playing, or nil.
func (c *Controller) Current() *models.Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Volume returns the stored volume level in [0.0, 2.0].
func (c *Controller) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

// SetVolume clamps level to [0.0, 2.0], stores it as the default for future
// tracks and applies it to the active resource when one exists. Returns the
// level actually applied.
func (c *Controller) SetVolume(level float64) float64 {
	level = clampVolume(level)
	c.mu.Lock()
	c.volume = level
	resource := c.resource
	c.mu.Unlock()

	if resource != nil {
		resource.SetVolume(level)
	}
	return level
}

// StartRotation begins rotating through the full catalog on the session.
func (c *Controller) StartRotation(session voice.Session) error {
	tracks := c.catalog.Tracks()
	if len(tracks) == 0 {
		return shared.ErrCatalogEmpty
	}

	c.mu.Lock()
	c.session = session
	c.queue = tracks
	if c.policy == PolicyShuffle {
		c.rng.Shuffle(len(c.queue), func(i, j int) {
			c.queue[i], c.queue[j] = c.queue[j], c.queue[i]
		})
	}
	c.mu.Unlock()

	return c.playHead()
}

// PlaySpecific moves the given track to the head of the working list and
// plays it; rotation continues from there.
func (c *Controller) PlaySpecific(trackID string, session voice.Session) error {
	track, ok := c.catalog.ByID(trackID)
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, trackID)
	}

	c.mu.Lock()
	c.session = session
	if len(c.queue) == 0 {
		c.queue = c.catalog.Tracks()
	}
	queue := make([]models.Track, 0, len(c.queue)+1)
	queue = append(queue, track)
	for _, t := range c.queue {
		if t.ID != track.ID {
			queue = append(queue, t)
		}
	}
	c.queue = queue
	c.mu.Unlock()

	return c.playHead()
}

// Skip stops the current track and advances to the next one.
func (c *Controller) Skip() error {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return shared.ErrNothingPlaying
	}
	// Guard before stopping so the natural-end handler does not also advance.
	c.skipping = true
	player := c.player
	c.mu.Unlock()

	if player != nil {
		player.Stop()
	}
	return c.advance()
}

// Stop halts playback and detaches the active player without advancing.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.detachLocked()
	c.current = nil
	hook := c.onTrackChanged
	c.mu.Unlock()

	if hook != nil {
		hook(nil)
	}
}

// RefreshQueue rebuilds the working list from the catalog, keeping the
// current track at the head when it still exists. Wired to the catalog's
// change hook.
func (c *Controller) RefreshQueue() {
	tracks := c.catalog.Tracks()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		c.queue = tracks
		return
	}
	queue := make([]models.Track, 0, len(tracks))
	queue = append(queue, *c.current)
	for _, track := range tracks {
		if track.ID != c.current.ID {
			queue = append(queue, track)
		}
	}
	c.queue = queue
}

// playHead starts the track at the head of the working list.
func (c *Controller) playHead() error {
	c.mu.Lock()
	if len(c.queue) == 0 {
		c.mu.Unlock()
		return shared.ErrCatalogEmpty
	}
	track := c.queue[0]
	c.mu.Unlock()
	return c.startTrack(track, false)
}

// startTrack replaces the active player instance with a new one for track.
// replay marks the one-shot transient retry of the same resource.
func (c *Controller) startTrack(track models.Track, replay bool) error {
	c.mu.Lock()
	session := c.session
	if session == nil {
		c.mu.Unlock()
		return shared.ErrNotConnected
	}

	// Old listeners must be gone before the next instance subscribes.
	c.detachLocked()
	c.generation++
	generation := c.generation
	if !replay {
		c.retried = false
	}
	c.skipping = false
	volume := c.volume
	c.mu.Unlock()

	resource, err := c.engine.NewResource(filepath.Join(c.catalog.Dir(), track.ID), volume)
	if err != nil {
		c.logger.Error("failed to create resource", "track", track.ID, "error", err)
		return fmt.Errorf("%w: %v", shared.ErrPlaybackFatal, err)
	}

	player := c.engine.NewPlayer()
	unsubscribe := session.Subscribe(player)

	c.mu.Lock()
	if c.generation != generation {
		// A newer instance raced us; stand down.
		c.mu.Unlock()
		unsubscribe()
		player.Stop()
		resource.Close()
		return nil
	}
	c.player = player
	c.resource = resource
	c.unsubscribe = unsubscribe
	c.current = &track
	c.mu.Unlock()

	go c.watch(generation, player, track)
	player.Play(resource)

	c.logger.Info("playing", "track", track.ID)
	return nil
}

// watch consumes one player instance's events until it goes stale.
func (c *Controller) watch(generation int, player voice.Player, track models.Track) {
	for event := range player.Events() {
		c.mu.Lock()
		stale := c.generation != generation
		c.mu.Unlock()
		if stale {
			return
		}

		switch event.Kind {
		case voice.EventPlaying:
			c.mu.Lock()
			hook := c.onTrackChanged
			c.mu.Unlock()
			if hook != nil {
				hook(&track)
			}
		case voice.EventIdle:
			c.mu.Lock()
			if c.skipping {
				// Skip already owns the advance.
				c.skipping = false
				c.mu.Unlock()
				return
			}
			c.mu.Unlock()
			if err := c.advance(); err != nil {
				c.logger.Error("failed to advance rotation", "error", err)
			}
			return
		case voice.EventError:
			c.handleError(event.Err, track)
			return
		}
	}
}

// handleError retries the same track once for transient errors and
// otherwise advances.
func (c *Controller) handleError(err error, track models.Track) {
	if isTransient(err) {
		c.mu.Lock()
		retried := c.retried
		c.retried = true
		c.mu.Unlock()

		if !retried {
			c.logger.Warn("transient playback error, retrying", "track", track.ID, "error", err)
			if rerr := c.startTrack(track, true); rerr == nil {
				return
			}
		}
	}

	c.logger.Error("playback failed, advancing", "track", track.ID, "error", err)
	if aerr := c.advance(); aerr != nil {
		c.logger.Error("failed to advance rotation", "error", aerr)
	}
}

// advance rotates the working list and starts the new head. A head that
// fails to load is rotated past, bounded by one full revolution.
func (c *Controller) advance() error {
	c.mu.Lock()
	size := len(c.queue)
	c.mu.Unlock()
	if size == 0 {
		return shared.ErrCatalogEmpty
	}

	var lastErr error
	for range size {
		c.mu.Lock()
		switch c.policy {
		case PolicyShuffle:
			if len(c.queue) > 1 {
				next := 1 + c.rng.Intn(len(c.queue)-1)
				c.queue[0], c.queue[next] = c.queue[next], c.queue[0]
			}
		default:
			c.queue = append(c.queue[1:], c.queue[0])
		}
		track := c.queue[0]
		c.mu.Unlock()

		if lastErr = c.startTrack(track, false); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

// detachLocked tears down the active instance's subscription and player.
// Callers hold c.mu.
func (c *Controller) detachLocked() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	if c.player != nil {
		c.player.Stop()
		c.player = nil
	}
	if c.resource != nil {
		c.resource.Close()
		c.resource = nil
	}
	c.generation++
}

// isTransient classifies a playback error by kind first, message second.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, shared.ErrPlaybackTransient) {
		return true
	}
	if errors.Is(err, shared.ErrPlaybackFatal) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range []string{"timeout", "reset", "temporar", "interrupted"} {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

func clampVolume(level float64) float64 {
	if level < 0 {
		return 0
	}
	if level > 2 {
		return 2
	}
	return level
}
