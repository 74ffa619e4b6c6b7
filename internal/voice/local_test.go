package voice

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tgillam/jukebox/internal/shared"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func awaitReady(t *testing.T, s Session) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.Status() == StatusReady {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("session never became ready, status %s", s.Status())
}

func TestLocalTransportDial(t *testing.T) {
	transport := NewLocalTransport()

	session, err := transport.Dial(context.Background(), "lounge")
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	awaitReady(t, session)

	engine := NewLocalEngine()
	player := engine.NewPlayer()
	unsubscribe := session.Subscribe(player)
	defer unsubscribe()

	resource, err := engine.NewResource(writeFile(t, "song.mp3", make([]byte, 1<<20)), 1.0)
	if err != nil {
		t.Fatalf("resource failed: %v", err)
	}
	player.Play(resource)
	select {
	case event := <-player.Events():
		if event.Kind != EventPlaying {
			t.Fatalf("expected playing, got %v", event.Kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for playing")
	}

	session.Destroy()
	if session.Status() != StatusDestroyed {
		t.Errorf("expected destroyed, got %s", session.Status())
	}

	// Destroy stops subscribed players, which surfaces as an idle event.
	select {
	case event := <-player.Events():
		if event.Kind != EventIdle {
			t.Errorf("expected idle on destroy, got %v", event.Kind)
		}
	case <-time.After(time.Second):
		t.Error("expected player to be stopped on destroy")
	}
}

func TestLocalEngineResource(t *testing.T) {
	engine := NewLocalEngine()

	if _, err := engine.NewResource(filepath.Join(t.TempDir(), "missing.mp3"), 1.0); err == nil {
		t.Error("expected error for missing file")
	}

	empty := writeFile(t, "empty.mp3", nil)
	if _, err := engine.NewResource(empty, 1.0); !errors.Is(err, shared.ErrPlaybackFatal) {
		t.Errorf("expected ErrPlaybackFatal for empty file, got %v", err)
	}

	path := writeFile(t, "song.mp3", []byte("audio"))
	resource, err := engine.NewResource(path, 0.5)
	if err != nil {
		t.Fatalf("resource failed: %v", err)
	}
	if resource.Path() != path {
		t.Errorf("expected path %s, got %s", path, resource.Path())
	}
}

func TestLocalPlayerCompletion(t *testing.T) {
	engine := &LocalEngine{Pace: 1 << 20}
	path := writeFile(t, "song.mp3", make([]byte, 64))

	resource, err := engine.NewResource(path, 1.0)
	if err != nil {
		t.Fatalf("resource failed: %v", err)
	}
	player := engine.NewPlayer()
	player.Play(resource)

	want := []EventKind{EventPlaying, EventIdle}
	for _, kind := range want {
		select {
		case event := <-player.Events():
			if event.Kind != kind {
				t.Fatalf("expected %v, got %v (err %v)", kind, event.Kind, event.Err)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %v", kind)
		}
	}
}

func TestLocalPlayerStop(t *testing.T) {
	engine := NewLocalEngine()
	path := writeFile(t, "song.mp3", make([]byte, 1<<20))

	resource, err := engine.NewResource(path, 1.0)
	if err != nil {
		t.Fatalf("resource failed: %v", err)
	}
	player := engine.NewPlayer()
	player.Play(resource)

	select {
	case event := <-player.Events():
		if event.Kind != EventPlaying {
			t.Fatalf("expected playing, got %v", event.Kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for playing")
	}

	player.Stop()
	select {
	case event := <-player.Events():
		if event.Kind != EventIdle {
			t.Errorf("expected idle after stop, got %v", event.Kind)
		}
	case <-time.After(time.Second):
		t.Error("timed out waiting for idle")
	}
}
