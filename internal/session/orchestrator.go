package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/tgillam/jukebox/internal/acquire"
	"github.com/tgillam/jukebox/internal/catalog"
	"github.com/tgillam/jukebox/internal/models"
	"github.com/tgillam/jukebox/internal/player"
	"github.com/tgillam/jukebox/internal/shared"
	"github.com/tgillam/jukebox/internal/voice"
)

// Orchestrator is the command façade over the engine: the front end only
// ever talks to it. Every operation resolves to exactly one terminal
// message or one error.
type Orchestrator struct {
	manager    *voice.Manager
	controller *player.Controller
	catalog    *catalog.Catalog
	pipeline   *acquire.Pipeline
	state      *State
	logger     *log.Logger
	ext        string

	mu            sync.Mutex
	localResults  []catalog.ScoredTrack
	remoteResults []models.RemoteCandidate
}

// New wires the orchestrator over its collaborators and hooks the shared
// state to the manager's halt signal, the controller's now-playing signal
// and the catalog's change signal.
func New(manager *voice.Manager, controller *player.Controller, cat *catalog.Catalog, pipeline *acquire.Pipeline, cfg *shared.Config, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	o := &Orchestrator{
		manager:    manager,
		controller: controller,
		catalog:    cat,
		pipeline:   pipeline,
		state:      NewState(),
		logger:     shared.WithLogger(logger, "component", "session"),
		ext:        cfg.Library.Extension,
	}
	o.state.SetVolume(controller.Volume())

	controller.SetOnTrackChanged(func(track *models.Track) {
		o.state.SetTrack(track)
		if track != nil {
			o.logger.Info("now playing", "track", track.ID)
		}
	})
	manager.SetOnHalt(func(reason error) {
		o.logger.Warn("voice session halted", "reason", reason)
		controller.Stop()
		o.state.SetConnection("", false)
	})
	cat.SetOnChange(func(count int) {
		o.logger.Debug("library changed", "tracks", count)
		controller.RefreshQueue()
	})

	return o
}

// Connect joins the configured voice channel and starts rotating through
// the library. Reconnecting while already live reports "already connected"
// without re-dialing.
func (o *Orchestrator) Connect(ctx context.Context) (string, error) {
	o.state.SetTransitioning(true)
	defer o.state.SetTransitioning(false)

	session, reused, err := o.manager.Connect(ctx)
	if err != nil {
		o.state.SetConnection("", false)
		return "", err
	}
	o.state.SetConnection(session.ID(), true)
	if reused {
		return "already connected", nil
	}

	if err := o.controller.StartRotation(session); err != nil {
		if errors.Is(err, shared.ErrCatalogEmpty) {
			o.logger.Warn("library is empty, nothing to rotate")
			return "connected", nil
		}
		return "", err
	}
	return "connected", nil
}

// Disconnect stops playback and destroys the live session.
func (o *Orchestrator) Disconnect() (string, error) {
	if o.manager.Current() == nil {
		return "not connected", nil
	}
	o.state.SetTransitioning(true)
	defer o.state.SetTransitioning(false)

	o.controller.Stop()
	o.manager.Disconnect()
	o.state.SetConnection("", false)
	return "disconnected", nil
}

// Skip advances the rotation past the current track.
func (o *Orchestrator) Skip() (string, error) {
	err := o.controller.Skip()
	if errors.Is(err, shared.ErrNothingPlaying) {
		return "nothing playing", nil
	}
	if err != nil {
		return "", err
	}
	return "skipped", nil
}

// LocalSearch ranks library tracks against query and remembers the result
// set for LocalPlay.
func (o *Orchestrator) LocalSearch(query string) []catalog.ScoredTrack {
	results := o.catalog.Search(query)
	o.mu.Lock()
	o.localResults = results
	o.mu.Unlock()
	return results
}

// LocalPlay resolves a 1-based rank against the most recent LocalSearch
// and plays that track, connecting first when necessary.
func (o *Orchestrator) LocalPlay(ctx context.Context, rank int) (string, error) {
	o.mu.Lock()
	results := o.localResults
	o.mu.Unlock()

	if len(results) == 0 {
		return "", fmt.Errorf("%w: no search results to pick from", shared.ErrInvalidSelection)
	}
	if rank < 1 || rank > len(results) {
		return "", fmt.Errorf("%w: rank %d out of 1..%d", shared.ErrInvalidSelection, rank, len(results))
	}
	track := results[rank-1].Track

	session, err := o.ensureSession(ctx)
	if err != nil {
		return "", err
	}
	if err := o.controller.PlaySpecific(track.ID, session); err != nil {
		return "", err
	}
	return "playing " + track.Title, nil
}

// RemoteSearch queries the provider and remembers the candidate set for
// RemotePlay.
func (o *Orchestrator) RemoteSearch(ctx context.Context, query string) ([]models.RemoteCandidate, error) {
	candidates, err := o.pipeline.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	o.mu.Lock()
	o.remoteResults = candidates
	o.mu.Unlock()
	return candidates, nil
}

// RemotePlay acquires the candidate at the 1-based rank from the most
// recent RemoteSearch and plays it. onProgress receives acquisition
// percentages and may be nil.
func (o *Orchestrator) RemotePlay(ctx context.Context, rank int, onProgress func(percent int)) (string, error) {
	o.mu.Lock()
	candidates := o.remoteResults
	o.mu.Unlock()

	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: no remote results to pick from", shared.ErrInvalidSelection)
	}
	if rank < 1 || rank > len(candidates) {
		return "", fmt.Errorf("%w: rank %d out of 1..%d", shared.ErrInvalidSelection, rank, len(candidates))
	}
	candidate := candidates[rank-1]

	destID := acquire.DestinationID(candidate.Title, o.ext)
	track, err := o.pipeline.Acquire(ctx, candidate, destID, onProgress)
	if err != nil {
		return "", err
	}

	session, err := o.ensureSession(ctx)
	if err != nil {
		return "", err
	}
	if err := o.controller.PlaySpecific(track.ID, session); err != nil {
		return "", err
	}
	return "playing " + track.Title, nil
}

// SetVolume applies a percentage in [0, 200], clamping out-of-range input.
func (o *Orchestrator) SetVolume(percent int) (string, error) {
	applied := o.controller.SetVolume(float64(percent) / 100)
	o.state.SetVolume(applied)
	return fmt.Sprintf("volume set to %d%%", int(applied*100)), nil
}

// Status returns a snapshot of the shared session state.
func (o *Orchestrator) Status() Snapshot {
	return o.state.Snapshot()
}

// Jobs returns the acquisition jobs currently in flight.
func (o *Orchestrator) Jobs() []models.DownloadJob {
	return o.pipeline.Jobs()
}

// NowPlaying renders the current track as a terminal message.
func (o *Orchestrator) NowPlaying() string {
	snapshot := o.state.Snapshot()
	if snapshot.CurrentTrack == nil {
		return "nothing playing"
	}
	return fmt.Sprintf("playing %s (volume %d%%)", snapshot.CurrentTrack.Title, int(snapshot.Volume*100))
}

// ensureSession returns the live session, dialing one when none exists.
func (o *Orchestrator) ensureSession(ctx context.Context) (voice.Session, error) {
	if session := o.manager.Current(); session != nil {
		return session, nil
	}
	session, _, err := o.manager.Connect(ctx)
	if err != nil {
		return nil, err
	}
	o.state.SetConnection(session.ID(), true)
	return session, nil
}
