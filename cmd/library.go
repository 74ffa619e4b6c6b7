package main

import (
	"context"
	"os"

	"github.com/tgillam/jukebox/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes a starter config file from the embedded example.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil {
		r.logger.Warn("config file already exists", "path", configPath)
		return r.writePlainln("config already exists at %s", configPath)
	}
	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", configPath)
	return r.writePlainln("wrote %s", configPath)
}

// LibraryList prints every track in the catalog.
func (r *Runner) LibraryList(ctx context.Context, cmd *cli.Command) error {
	tracks := r.catalog.Tracks()
	if len(tracks) == 0 {
		return r.writePlainln("library is empty (%s)", r.catalog.Dir())
	}
	for _, track := range tracks {
		r.writePlainln("%s  (%s)", track.Title, track.ID)
	}
	return r.writePlainln("%d tracks", len(tracks))
}

// LibraryReload rescans the library directory.
func (r *Runner) LibraryReload(ctx context.Context, cmd *cli.Command) error {
	count, err := r.catalog.Reload()
	if err != nil {
		return err
	}
	return r.writePlainln("reloaded %d tracks", count)
}

// Serve runs the upload web service until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.catalog.Watch(ctx); err != nil {
		r.logger.Warn("library watcher unavailable", "error", err)
	}
	r.writePlainln("serving library uploads on %s", r.web.Addr())
	return r.web.Run(ctx)
}
