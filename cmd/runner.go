package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/tgillam/jukebox/internal/acquire"
	"github.com/tgillam/jukebox/internal/catalog"
	"github.com/tgillam/jukebox/internal/player"
	"github.com/tgillam/jukebox/internal/session"
	"github.com/tgillam/jukebox/internal/shared"
	"github.com/tgillam/jukebox/internal/voice"
	"github.com/tgillam/jukebox/internal/web"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for
// each command action.
type Runner struct {
	config       *shared.Config
	logger       *log.Logger
	output       io.Writer
	catalog      *catalog.Catalog
	manager      *voice.Manager
	controller   *player.Controller
	pipeline     *acquire.Pipeline
	orchestrator *session.Orchestrator
	web          *web.Service
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Logger     *log.Logger
	Output     io.Writer
	Transport  voice.Transport
	Engine     voice.Engine
	Provider   acquire.Provider
	Transcoder acquire.Transcoder
	HTTPClient *http.Client
}

// NewRunner wires the full engine from the provided capabilities.
func NewRunner(opts RunnerOpts) (*Runner, error) {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Transport == nil {
		switch opts.Config.Voice.Transport {
		case "", "local":
			opts.Transport = &voice.LocalTransport{}
		default:
			return nil, fmt.Errorf("%w: unknown voice transport %q", shared.ErrInvalidConfig, opts.Config.Voice.Transport)
		}
	}
	if opts.Engine == nil {
		opts.Engine = &voice.LocalEngine{}
	}
	if opts.Provider == nil {
		opts.Provider = acquire.NewProviderClient(opts.Config.Provider, opts.Config.Library.RemoteResults, opts.HTTPClient, opts.Logger)
	}
	if opts.Transcoder == nil {
		opts.Transcoder = &acquire.FFmpegTranscoder{}
	}

	cat, err := catalog.New(opts.Config.Library, opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open library: %w", err)
	}
	if _, err := cat.Reload(); err != nil {
		return nil, fmt.Errorf("failed to scan library: %w", err)
	}

	manager := voice.NewManager(opts.Transport, opts.Config.Voice, opts.Logger)
	controller, err := player.NewController(opts.Engine, cat, opts.Config.Playback, opts.Logger)
	if err != nil {
		return nil, err
	}
	pipeline := acquire.NewPipeline(opts.Provider, opts.Transcoder, cat, opts.Config.Provider, opts.Logger)
	orchestrator := session.New(manager, controller, cat, pipeline, opts.Config, opts.Logger)
	webService := web.NewService(cat, opts.Config.Server, opts.Config.Library.Extension, opts.Logger)

	return &Runner{
		config:       opts.Config,
		logger:       opts.Logger,
		output:       opts.Output,
		catalog:      cat,
		manager:      manager,
		controller:   controller,
		pipeline:     pipeline,
		orchestrator: orchestrator,
		web:          webService,
	}, nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, connectCommand, disconnectCommand, skipCommand, volumeCommand,
		statusCommand, searchCommand, playCommand, remoteCommand, libraryCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}
	return commands
}

// SetLogger swaps the runner's logger, rewiring is not needed because
// components hold their own child loggers.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	return r.writePlain(format+"\n", args...)
}
