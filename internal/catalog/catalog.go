package catalog

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"github.com/charmbracelet/log"
	"github.com/tgillam/jukebox/internal/models"
	"github.com/tgillam/jukebox/internal/shared"
)

// minQueryLength is the shortest query Search will attempt to match.
// Anything shorter returns an empty result set rather than an error.
const minQueryLength = 2

// ScoredTrack pairs a track with its normalized fuzzy distance.
//
// Score is in [0,1]; lower means a closer match.
type ScoredTrack struct {
	Track models.Track
	Score float64
}

// MatchPercent converts the distance into the displayed match percentage.
func (s ScoredTrack) MatchPercent() int {
	return int(math.Round((1 - s.Score) * 100))
}

// Catalog indexes the tracks in a library directory and exposes fuzzy search.
//
// The track set is derived entirely from the directory listing; Reload
// rebuilds it from scratch and is safe to call at any time.
type Catalog struct {
	dir       string
	ext       string
	threshold float64
	cap       int
	logger    *log.Logger

	mu       sync.RWMutex
	tracks   []models.Track
	byID     map[string]models.Track
	onChange func(count int)
}

// New creates a Catalog over the configured library directory. The
// directory is created if missing so an empty deployment starts clean.
func New(cfg shared.LibraryConfig, logger *log.Logger) (*Catalog, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if cfg.LocalResults <= 0 {
		cfg.LocalResults = 5
	}
	if cfg.FuzzyThreshold <= 0 {
		cfg.FuzzyThreshold = 0.55
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create library directory: %w", err)
	}

	return &Catalog{
		dir:       cfg.Dir,
		ext:       strings.ToLower(cfg.Extension),
		threshold: cfg.FuzzyThreshold,
		cap:       cfg.LocalResults,
		logger:    shared.WithLogger(logger, "component", "catalog"),
		byID:      map[string]models.Track{},
	}, nil
}

// Dir returns the library directory backing this catalog.
func (c *Catalog) Dir() string { return c.dir }

// Extension returns the supported media extension (including the dot).
func (c *Catalog) Extension() string { return c.ext }

// SetOnChange registers a hook invoked after every successful Reload with
// the new track count. Used by the playback controller to refresh its
// working list.
func (c *Catalog) SetOnChange(fn func(count int)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Reload rescans the library directory and rebuilds the search index.
//
// Idempotent; an empty directory yields an empty catalog, not an error.
// Returns the number of indexed tracks.
func (c *Catalog) Reload() (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read library directory: %w", err)
	}

	tracks := make([]models.Track, 0, len(entries))
	byID := make(map[string]models.Track, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(strings.ToLower(name), c.ext) {
			continue
		}
		track := models.Track{
			ID:    name,
			Title: shared.NormalizeTitle(name),
		}
		tracks = append(tracks, track)
		byID[name] = track
	}

	sort.Slice(tracks, func(i, j int) bool { return tracks[i].ID < tracks[j].ID })

	c.mu.Lock()
	c.tracks = tracks
	c.byID = byID
	hook := c.onChange
	c.mu.Unlock()

	c.logger.Debug("library reloaded", "tracks", len(tracks))
	if hook != nil {
		hook(len(tracks))
	}

	return len(tracks), nil
}

// Tracks returns a snapshot of the current track set in id order.
func (c *Catalog) Tracks() []models.Track {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Track, len(c.tracks))
	copy(out, c.tracks)
	return out
}

// Len returns the number of indexed tracks.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tracks)
}

// ByID looks up a track by its on-disk id.
func (c *Catalog) ByID(id string) (models.Track, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	track, ok := c.byID[id]
	return track, ok
}

// Search performs fuzzy matching of query against the indexed titles and
// returns the closest matches under the similarity threshold, best first,
// capped at the configured result count.
//
// Queries shorter than the minimum length return an empty list.
func (c *Catalog) Search(query string) []ScoredTrack {
	query = strings.ToLower(strings.Join(strings.Fields(query), " "))
	if len(query) < minQueryLength {
		return nil
	}

	c.mu.RLock()
	tracks := c.tracks
	c.mu.RUnlock()

	results := make([]ScoredTrack, 0, len(tracks))
	for _, track := range tracks {
		score := distance(query, track.Title)
		if score > c.threshold {
			continue
		}
		results = append(results, ScoredTrack{Track: track, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score < results[j].Score
		}
		return results[i].Track.ID < results[j].Track.ID
	})

	if len(results) > c.cap {
		results = results[:c.cap]
	}
	return results
}

// distance computes the normalized edit distance between two strings.
func distance(a, b string) float64 {
	if a == b {
		return 0
	}
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 0
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(longest)
}
