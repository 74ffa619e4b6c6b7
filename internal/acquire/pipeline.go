package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tgillam/jukebox/internal/catalog"
	"github.com/tgillam/jukebox/internal/models"
	"github.com/tgillam/jukebox/internal/shared"
	"golang.org/x/sync/errgroup"
)

// Pipeline downloads remote candidates, transcodes them into library audio
// and publishes them into the catalog.
//
// The destination file only ever appears complete: the download writes to a
// ".part" artifact, the transcoder to a ".tmp" artifact, and the final
// rename is the publish step. At most one job runs per destination; a
// second Acquire for the same destination and source attaches to the
// running job instead of starting another download.
type Pipeline struct {
	provider   Provider
	transcoder Transcoder
	catalog    *catalog.Catalog
	logger     *log.Logger
	timeout    time.Duration
	stall      time.Duration

	mu   sync.Mutex
	jobs map[string]*job
}

// NewPipeline creates an acquisition pipeline over the provider, transcoder
// and catalog.
func NewPipeline(provider Provider, transcoder Transcoder, cat *catalog.Catalog, cfg shared.ProviderConfig, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	timeout := cfg.DownloadTimeout()
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	stall := cfg.StallWindow()
	if stall <= 0 {
		stall = 10 * time.Second
	}
	return &Pipeline{
		provider:   provider,
		transcoder: transcoder,
		catalog:    cat,
		logger:     shared.WithLogger(logger, "component", "acquire"),
		timeout:    timeout,
		stall:      stall,
		jobs:       make(map[string]*job),
	}
}

// Search queries the provider for remote candidates.
func (p *Pipeline) Search(ctx context.Context, query string) ([]models.RemoteCandidate, error) {
	return p.provider.Search(ctx, query)
}

// Jobs returns a snapshot of the jobs currently in flight.
func (p *Pipeline) Jobs() []models.DownloadJob {
	p.mu.Lock()
	defer p.mu.Unlock()
	jobs := make([]models.DownloadJob, 0, len(p.jobs))
	for _, j := range p.jobs {
		jobs = append(jobs, j.snapshot())
	}
	return jobs
}

// Acquire fetches candidate into the library under destID and returns the
// published track. A destination that already holds audio short-circuits
// without touching the network. onProgress, when non-nil, receives monotonic
// percentages from 0 to 100.
func (p *Pipeline) Acquire(ctx context.Context, candidate models.RemoteCandidate, destID string, onProgress func(percent int)) (models.Track, error) {
	dest := filepath.Join(p.catalog.Dir(), destID)
	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		track, ok := p.catalog.ByID(destID)
		if !ok {
			if _, err := p.catalog.Reload(); err != nil {
				return models.Track{}, err
			}
			track, _ = p.catalog.ByID(destID)
		}
		p.logger.Debug("already in library", "track", destID)
		if onProgress != nil {
			onProgress(100)
		}
		return track, nil
	}

	p.mu.Lock()
	if j, ok := p.jobs[destID]; ok {
		p.mu.Unlock()
		if j.source != candidate.SourceURL {
			return models.Track{}, fmt.Errorf("%w: %s is being acquired from another source", shared.ErrAcquisitionInProgress, destID)
		}
		p.logger.Debug("attaching to in-flight job", "track", destID)
		if onProgress != nil {
			j.subscribe(onProgress)
		}
		select {
		case <-j.done:
			return j.result()
		case <-ctx.Done():
			return models.Track{}, ctx.Err()
		}
	}
	j := newJob(destID, candidate.SourceURL)
	p.jobs[destID] = j
	p.mu.Unlock()

	if onProgress != nil {
		j.subscribe(onProgress)
	}

	track, err := p.run(ctx, j, candidate, dest)
	j.finish(track, err)

	p.mu.Lock()
	delete(p.jobs, destID)
	p.mu.Unlock()

	return track, err
}

// run executes a single owned job end to end.
func (p *Pipeline) run(ctx context.Context, j *job, candidate models.RemoteCandidate, dest string) (models.Track, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	rawPath := dest + ".part"
	tmpPath := dest + ".tmp"
	cleanup := func() {
		os.Remove(rawPath)
		os.Remove(tmpPath)
	}

	j.setState(models.JobDownloading)
	p.logger.Info("downloading", "track", j.destID, "source", candidate.SourceURL)
	if err := p.download(ctx, j, candidate.SourceURL, rawPath); err != nil {
		cleanup()
		return models.Track{}, p.classify(err)
	}

	j.setState(models.JobTranscoding)
	p.logger.Info("transcoding", "track", j.destID)
	hint := parseDurationLabel(candidate.DurationLabel)
	err := p.transcoder.Transcode(ctx, rawPath, tmpPath, hint, func(percent int) {
		j.report(50 + percent/2)
	})
	if err != nil {
		cleanup()
		return models.Track{}, p.classify(err)
	}

	if info, err := os.Stat(tmpPath); err != nil || info.Size() == 0 {
		cleanup()
		return models.Track{}, fmt.Errorf("%w: transcode produced no audio for %s", shared.ErrAcquisitionDecode, j.destID)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		cleanup()
		return models.Track{}, fmt.Errorf("failed to publish %s: %w", j.destID, err)
	}
	os.Remove(rawPath)
	j.report(100)

	if _, err := p.catalog.Reload(); err != nil {
		p.logger.Warn("failed to reload catalog after publish", "error", err)
	}
	track, ok := p.catalog.ByID(j.destID)
	if !ok {
		track = models.Track{ID: j.destID, Title: shared.NormalizeTitle(j.destID)}
	}
	p.logger.Info("published", "track", j.destID)
	return track, nil
}

// download streams the source into rawPath, reporting the first half of the
// job's progress. A watchdog aborts the transfer when no bytes arrive for
// the configured stall window.
func (p *Pipeline) download(ctx context.Context, j *job, sourceURL, rawPath string) error {
	g, gctx := errgroup.WithContext(ctx)

	stream, size, err := p.provider.Stream(gctx, sourceURL)
	if err != nil {
		return err
	}
	defer stream.Close()
	// Unblock a stuck Read when the watchdog cancels the group.
	stop := context.AfterFunc(gctx, func() { stream.Close() })
	defer stop()

	out, err := os.Create(rawPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", rawPath, err)
	}
	defer out.Close()

	var received atomic.Int64
	finished := make(chan struct{})

	g.Go(func() error {
		defer close(finished)
		buf := make([]byte, 32*1024)
		for {
			n, rerr := stream.Read(buf)
			if n > 0 {
				if _, werr := out.Write(buf[:n]); werr != nil {
					return fmt.Errorf("failed to write %s: %w", rawPath, werr)
				}
				total := received.Add(int64(n))
				if size > 0 {
					percent := int(total * 50 / size)
					if percent > 50 {
						percent = 50
					}
					j.report(percent)
				}
			}
			if rerr == io.EOF {
				j.report(50)
				return nil
			}
			if rerr != nil {
				if cerr := gctx.Err(); cerr != nil {
					return cerr
				}
				return rerr
			}
		}
	})

	g.Go(func() error {
		interval := p.stall / 4
		if interval <= 0 {
			interval = time.Second
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		last := received.Load()
		lastChange := time.Now()
		for {
			select {
			case <-finished:
				return nil
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				now := received.Load()
				if now != last {
					last = now
					lastChange = time.Now()
					continue
				}
				if time.Since(lastChange) >= p.stall {
					return fmt.Errorf("%w: no bytes for %s", shared.ErrAcquisitionStalled, p.stall)
				}
			}
		}
	})

	return g.Wait()
}

// classify maps raw failures onto the acquisition error kinds. Already
// classified errors pass through.
func (p *Pipeline) classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, shared.ErrAcquisitionStalled),
		errors.Is(err, shared.ErrAcquisitionDecode),
		errors.Is(err, shared.ErrAcquisitionNetwork),
		errors.Is(err, shared.ErrAcquisitionTimeout):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: exceeded %s", shared.ErrAcquisitionTimeout, p.timeout)
	default:
		return fmt.Errorf("%w: %v", shared.ErrAcquisitionNetwork, err)
	}
}

// job tracks one in-flight acquisition. All waiters share it.
type job struct {
	id     string
	destID string
	source string

	mu          sync.Mutex
	state       models.JobState
	progress    int
	subscribers []func(percent int)
	track       models.Track
	err         error
	done        chan struct{}
}

func newJob(destID, source string) *job {
	return &job{
		id:     shared.GenerateID(),
		destID: destID,
		source: source,
		state:  models.JobPending,
		done:   make(chan struct{}),
	}
}

// subscribe registers a progress callback and replays the current value.
func (j *job) subscribe(fn func(percent int)) {
	j.mu.Lock()
	j.subscribers = append(j.subscribers, fn)
	current := j.progress
	j.mu.Unlock()
	fn(current)
}

// report publishes a new progress value. Values never move backwards.
func (j *job) report(percent int) {
	if percent > 100 {
		percent = 100
	}
	j.mu.Lock()
	if percent <= j.progress {
		j.mu.Unlock()
		return
	}
	j.progress = percent
	subscribers := make([]func(int), len(j.subscribers))
	copy(subscribers, j.subscribers)
	j.mu.Unlock()

	for _, fn := range subscribers {
		fn(percent)
	}
}

func (j *job) setState(state models.JobState) {
	j.mu.Lock()
	j.state = state
	j.mu.Unlock()
}

func (j *job) finish(track models.Track, err error) {
	j.mu.Lock()
	j.track = track
	j.err = err
	if err != nil {
		j.state = models.JobFailed
	} else {
		j.state = models.JobDone
	}
	j.mu.Unlock()
	close(j.done)
}

func (j *job) result() (models.Track, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.track, j.err
}

func (j *job) snapshot() models.DownloadJob {
	j.mu.Lock()
	defer j.mu.Unlock()
	return models.DownloadJob{
		ID:              j.id,
		DestinationID:   j.destID,
		SourceURL:       j.source,
		ProgressPercent: j.progress,
		State:           j.state,
	}
}

// DestinationID derives a stable library file name from a candidate title.
func DestinationID(title, ext string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	id := strings.Trim(b.String(), "_")
	if id == "" {
		id = "track"
	}
	return id + ext
}

// parseDurationLabel reads "m:ss" or "h:mm:ss" labels. Unparseable labels
// yield zero.
func parseDurationLabel(label string) time.Duration {
	parts := strings.Split(strings.TrimSpace(label), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}
	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second
}
