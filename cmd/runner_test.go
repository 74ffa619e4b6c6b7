package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/tgillam/jukebox/internal/shared"
	jbtesting "github.com/tgillam/jukebox/internal/testing"
	"github.com/urfave/cli/v3"
)

func testConfig(t *testing.T) *shared.Config {
	t.Helper()
	config := shared.DefaultConfig()
	config.Library.Dir = t.TempDir()
	return config
}

func newTestRunner(t *testing.T, ids ...string) (*Runner, *bytes.Buffer) {
	t.Helper()
	config := testConfig(t)
	jbtesting.WriteLibrary(t, config.Library.Dir, ids...)

	output := &bytes.Buffer{}
	runner, err := NewRunner(RunnerOpts{
		Config:    config,
		Output:    output,
		Transport: jbtesting.NewFakeTransport(),
		Engine:    jbtesting.NewFakeEngine(),
	})
	if err != nil {
		t.Fatalf("failed to create runner: %v", err)
	}
	return runner, output
}

func runCommand(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{Name: "jukebox", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"jukebox"}, args...))
}

func TestNewRunner(t *testing.T) {
	t.Run("with all dependencies provided", func(t *testing.T) {
		config := testConfig(t)
		output := &bytes.Buffer{}
		logger := shared.NewLogger(nil)

		runner, err := NewRunner(RunnerOpts{
			Config:    config,
			Logger:    logger,
			Output:    output,
			Transport: jbtesting.NewFakeTransport(),
			Engine:    jbtesting.NewFakeEngine(),
		})
		if err != nil {
			t.Fatalf("failed to create runner: %v", err)
		}
		if runner.config != config {
			t.Error("expected config to be set")
		}
		if runner.logger != logger {
			t.Error("expected logger to be set")
		}
		if runner.output != output {
			t.Error("expected output to be set")
		}
		if runner.orchestrator == nil || runner.catalog == nil || runner.pipeline == nil {
			t.Error("expected the engine to be fully wired")
		}
	})

	t.Run("with nil output uses stdout", func(t *testing.T) {
		runner, err := NewRunner(RunnerOpts{
			Config:    testConfig(t),
			Transport: jbtesting.NewFakeTransport(),
			Engine:    jbtesting.NewFakeEngine(),
		})
		if err != nil {
			t.Fatalf("failed to create runner: %v", err)
		}
		if runner.output != os.Stdout {
			t.Error("expected output to default to os.Stdout")
		}
	})
}

func TestStatusCommand(t *testing.T) {
	runner, output := newTestRunner(t, "song_a.mp3")

	if err := runCommand(t, runner, "status"); err != nil {
		t.Fatalf("status failed: %v", err)
	}
	got := output.String()
	for _, want := range []string{"disconnected", "nothing playing", "1 tracks"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, got)
		}
	}
}

func TestSearchCommand(t *testing.T) {
	runner, output := newTestRunner(t, "song_a.mp3", "song_b.mp3")

	if err := runCommand(t, runner, "search", "song", "a"); err != nil {
		t.Fatalf("search failed: %v", err)
	}
	got := output.String()
	if !strings.Contains(got, "1. song a") {
		t.Errorf("expected ranked output, got:\n%s", got)
	}

	if err := runCommand(t, runner, "search"); !errors.Is(err, shared.ErrMissingArgument) {
		t.Errorf("expected ErrMissingArgument, got %v", err)
	}
}

func TestVolumeCommand(t *testing.T) {
	runner, output := newTestRunner(t, "song_a.mp3")

	if err := runCommand(t, runner, "volume", "150"); err != nil {
		t.Fatalf("volume failed: %v", err)
	}
	if !strings.Contains(output.String(), "volume set to 150%") {
		t.Errorf("unexpected output:\n%s", output.String())
	}

	if err := runCommand(t, runner, "volume", "loud"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
	if err := runCommand(t, runner, "volume"); !errors.Is(err, shared.ErrMissingArgument) {
		t.Errorf("expected ErrMissingArgument, got %v", err)
	}
}

func TestSkipCommand(t *testing.T) {
	runner, output := newTestRunner(t, "song_a.mp3")

	if err := runCommand(t, runner, "skip"); err != nil {
		t.Fatalf("skip failed: %v", err)
	}
	if !strings.Contains(output.String(), "nothing playing") {
		t.Errorf("unexpected output:\n%s", output.String())
	}
}

func TestLibraryCommands(t *testing.T) {
	runner, output := newTestRunner(t, "song_a.mp3", "song_b.mp3")

	if err := runCommand(t, runner, "library", "list"); err != nil {
		t.Fatalf("library list failed: %v", err)
	}
	got := output.String()
	if !strings.Contains(got, "song a") || !strings.Contains(got, "2 tracks") {
		t.Errorf("unexpected output:\n%s", got)
	}

	output.Reset()
	if err := runCommand(t, runner, "library", "reload"); err != nil {
		t.Fatalf("library reload failed: %v", err)
	}
	if !strings.Contains(output.String(), "reloaded 2 tracks") {
		t.Errorf("unexpected output:\n%s", output.String())
	}
}
