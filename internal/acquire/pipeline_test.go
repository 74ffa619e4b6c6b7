package acquire

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tgillam/jukebox/internal/catalog"
	"github.com/tgillam/jukebox/internal/models"
	"github.com/tgillam/jukebox/internal/shared"
	jbtesting "github.com/tgillam/jukebox/internal/testing"
)

// gatedStream serves data only after release is closed. Close unblocks a
// pending Read the way an aborted HTTP body does.
type gatedStream struct {
	data    *bytes.Reader
	release chan struct{}
	once    sync.Once
	closed  chan struct{}
}

func newGatedStream(data []byte) *gatedStream {
	return &gatedStream{
		data:    bytes.NewReader(data),
		release: make(chan struct{}),
		closed:  make(chan struct{}),
	}
}

func (s *gatedStream) Read(p []byte) (int, error) {
	select {
	case <-s.release:
		return s.data.Read(p)
	case <-s.closed:
		return 0, errors.New("stream closed")
	}
}

func (s *gatedStream) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

// fakeProvider serves a fixed payload, optionally through gated streams.
type fakeProvider struct {
	data  []byte
	gated bool

	mu      sync.Mutex
	streams int
	gates   []*gatedStream
}

func (f *fakeProvider) Search(context.Context, string) ([]models.RemoteCandidate, error) {
	return nil, nil
}

func (f *fakeProvider) Stream(context.Context, string) (io.ReadCloser, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.streams++
	if f.gated {
		s := newGatedStream(f.data)
		f.gates = append(f.gates, s)
		return s, int64(len(f.data)), nil
	}
	return io.NopCloser(bytes.NewReader(f.data)), int64(len(f.data)), nil
}

func (f *fakeProvider) streamCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.streams
}

func (f *fakeProvider) releaseAll() {
	f.mu.Lock()
	gates := f.gates
	f.mu.Unlock()
	for _, g := range gates {
		close(g.release)
	}
}

// fakeTranscoder copies the raw artifact. When failing it still writes a
// partial destination to prove cleanup removes it.
type fakeTranscoder struct {
	fail bool
}

func (f *fakeTranscoder) Transcode(_ context.Context, src, dst string, _ time.Duration, onProgress func(int)) error {
	if f.fail {
		os.WriteFile(dst, []byte("partial"), 0644)
		return fmt.Errorf("%w: unsupported codec", shared.ErrAcquisitionDecode)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return err
	}
	if onProgress != nil {
		onProgress(100)
	}
	return nil
}

func newTestPipeline(t *testing.T, provider Provider, transcoder Transcoder) (*Pipeline, *catalog.Catalog) {
	t.Helper()
	cat, err := catalog.New(shared.LibraryConfig{Dir: t.TempDir(), Extension: ".mp3", LocalResults: 5}, nil)
	if err != nil {
		t.Fatalf("failed to create catalog: %v", err)
	}
	if _, err := cat.Reload(); err != nil {
		t.Fatalf("failed to reload catalog: %v", err)
	}
	p := NewPipeline(provider, transcoder, cat, shared.ProviderConfig{DownloadTimeoutSecs: 10, StallWindowSecs: 5}, nil)
	return p, cat
}

func candidate() models.RemoteCandidate {
	return models.RemoteCandidate{
		Title:         "Song A",
		SourceURL:     "https://example.com/a",
		DurationLabel: "3:45",
		AuthorLabel:   "Artist A",
	}
}

func TestAcquirePublishes(t *testing.T) {
	provider := &fakeProvider{data: []byte("raw audio payload")}
	p, cat := newTestPipeline(t, provider, &fakeTranscoder{})

	var mu sync.Mutex
	var seen []int
	track, err := p.Acquire(context.Background(), candidate(), "song_a.mp3", func(percent int) {
		mu.Lock()
		seen = append(seen, percent)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if track.ID != "song_a.mp3" {
		t.Errorf("expected track song_a.mp3, got %q", track.ID)
	}

	dest := filepath.Join(cat.Dir(), "song_a.mp3")
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("destination missing: %v", err)
	}
	if string(data) != "raw audio payload" {
		t.Errorf("destination content mismatch: %q", data)
	}
	jbtesting.AssertFileMissing(t, dest+".part")
	jbtesting.AssertFileMissing(t, dest+".tmp")

	if _, ok := cat.ByID("song_a.mp3"); !ok {
		t.Error("published track should be in the catalog")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) == 0 || seen[len(seen)-1] != 100 {
		t.Fatalf("expected progress ending at 100, got %v", seen)
	}
	for i, percent := range seen {
		if percent < 0 || percent > 100 {
			t.Errorf("progress out of bounds: %d", percent)
		}
		if i > 0 && percent < seen[i-1] {
			t.Errorf("progress moved backwards: %v", seen)
		}
	}
}

func TestAcquireIdempotent(t *testing.T) {
	provider := &fakeProvider{data: []byte("raw audio payload")}
	p, cat := newTestPipeline(t, provider, &fakeTranscoder{})

	jbtesting.WriteLibrary(t, cat.Dir(), "song_a.mp3")
	if _, err := cat.Reload(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	final := -1
	track, err := p.Acquire(context.Background(), candidate(), "song_a.mp3", func(percent int) { final = percent })
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if track.ID != "song_a.mp3" {
		t.Errorf("expected existing track, got %q", track.ID)
	}
	if provider.streamCount() != 0 {
		t.Errorf("expected no downloads, got %d", provider.streamCount())
	}
	if final != 100 {
		t.Errorf("expected immediate 100%%, got %d", final)
	}
}

func TestDuplicateAcquireAttaches(t *testing.T) {
	provider := &fakeProvider{data: []byte("raw audio payload"), gated: true}
	p, cat := newTestPipeline(t, provider, &fakeTranscoder{})

	type result struct {
		track models.Track
		err   error
	}
	results := make(chan result, 2)
	for range 2 {
		go func() {
			track, err := p.Acquire(context.Background(), candidate(), "song_a.mp3", nil)
			results <- result{track, err}
		}()
	}

	// Wait for the owner to register its job, then let the download finish.
	deadline := time.Now().Add(2 * time.Second)
	for len(p.Jobs()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	provider.releaseAll()

	for range 2 {
		select {
		case r := <-results:
			if r.err != nil {
				t.Fatalf("acquire failed: %v", r.err)
			}
			if r.track.ID != "song_a.mp3" {
				t.Errorf("expected song_a.mp3, got %q", r.track.ID)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("acquire did not finish")
		}
	}

	if n := provider.streamCount(); n != 1 {
		t.Errorf("expected exactly one download, got %d", n)
	}
	jbtesting.AssertFileExists(t, filepath.Join(cat.Dir(), "song_a.mp3"))
}

func TestConflictingSourceRejected(t *testing.T) {
	provider := &fakeProvider{data: []byte("raw audio payload"), gated: true}
	p, _ := newTestPipeline(t, provider, &fakeTranscoder{})

	done := make(chan error, 1)
	go func() {
		_, err := p.Acquire(context.Background(), candidate(), "song_a.mp3", nil)
		done <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for len(p.Jobs()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	other := candidate()
	other.SourceURL = "https://example.com/other"
	if _, err := p.Acquire(context.Background(), other, "song_a.mp3", nil); !errors.Is(err, shared.ErrAcquisitionInProgress) {
		t.Errorf("expected ErrAcquisitionInProgress, got %v", err)
	}

	provider.releaseAll()
	if err := <-done; err != nil {
		t.Fatalf("owner acquire failed: %v", err)
	}
}

func TestTranscodeFailureLeavesNoFile(t *testing.T) {
	provider := &fakeProvider{data: []byte("raw audio payload")}
	p, cat := newTestPipeline(t, provider, &fakeTranscoder{fail: true})

	_, err := p.Acquire(context.Background(), candidate(), "song_a.mp3", nil)
	if !errors.Is(err, shared.ErrAcquisitionDecode) {
		t.Fatalf("expected ErrAcquisitionDecode, got %v", err)
	}

	dest := filepath.Join(cat.Dir(), "song_a.mp3")
	jbtesting.AssertFileMissing(t, dest)
	jbtesting.AssertFileMissing(t, dest+".part")
	jbtesting.AssertFileMissing(t, dest+".tmp")

	if _, ok := cat.ByID("song_a.mp3"); ok {
		t.Error("failed acquisition must not appear in the catalog")
	}
	if len(p.Jobs()) != 0 {
		t.Error("failed job should be cleared")
	}
}

func TestStallDetection(t *testing.T) {
	provider := &fakeProvider{data: []byte("raw audio payload"), gated: true}
	p, cat := newTestPipeline(t, provider, &fakeTranscoder{})
	p.stall = 200 * time.Millisecond
	p.timeout = 5 * time.Second

	start := time.Now()
	_, err := p.Acquire(context.Background(), candidate(), "song_a.mp3", nil)
	if !errors.Is(err, shared.ErrAcquisitionStalled) {
		t.Fatalf("expected ErrAcquisitionStalled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("stall detection took too long: %s", elapsed)
	}
	jbtesting.AssertFileMissing(t, filepath.Join(cat.Dir(), "song_a.mp3"))
}

func TestDestinationID(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Song A", "song_a.mp3"},
		{"  Weird -- Title!! (Live) ", "weird_title_live.mp3"},
		{"ALLCAPS", "allcaps.mp3"},
		{"///", "track.mp3"},
		{"99 problems", "99_problems.mp3"},
	}
	for _, tt := range tests {
		if got := DestinationID(tt.title, ".mp3"); got != tt.want {
			t.Errorf("DestinationID(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestParseDurationLabel(t *testing.T) {
	tests := []struct {
		label string
		want  time.Duration
	}{
		{"3:45", 225 * time.Second},
		{"1:02:03", 3723 * time.Second},
		{"0:07", 7 * time.Second},
		{"", 0},
		{"live", 0},
		{"-1:30", 0},
	}
	for _, tt := range tests {
		if got := parseDurationLabel(tt.label); got != tt.want {
			t.Errorf("parseDurationLabel(%q) = %v, want %v", tt.label, got, tt.want)
		}
	}
}
