package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tgillam/jukebox/internal/shared"
	"github.com/urfave/cli/v3"
)

// Connect joins the voice channel and keeps the session alive until the
// process is interrupted.
func (r *Runner) Connect(ctx context.Context, cmd *cli.Command) error {
	msg, err := r.orchestrator.Connect(ctx)
	if err != nil {
		return err
	}
	r.writePlainln("%s", msg)

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := r.catalog.Watch(sessionCtx); err != nil {
		r.logger.Warn("library watcher unavailable", "error", err)
	}

	if cmd.Bool("serve") {
		go func() {
			if err := r.web.Run(sessionCtx); err != nil {
				r.logger.Error("upload service failed", "error", err)
			}
		}()
	}

	<-ctx.Done()
	msg, err = r.orchestrator.Disconnect()
	if err != nil {
		return err
	}
	return r.writePlainln("%s", msg)
}

// Disconnect leaves the voice channel.
func (r *Runner) Disconnect(ctx context.Context, cmd *cli.Command) error {
	msg, err := r.orchestrator.Disconnect()
	if err != nil {
		return err
	}
	return r.writePlainln("%s", msg)
}

// Skip advances past the current track.
func (r *Runner) Skip(ctx context.Context, cmd *cli.Command) error {
	msg, err := r.orchestrator.Skip()
	if err != nil {
		return err
	}
	return r.writePlainln("%s", msg)
}

// Volume applies a playback volume percentage.
func (r *Runner) Volume(ctx context.Context, cmd *cli.Command) error {
	arg := cmd.Args().First()
	if arg == "" {
		return fmt.Errorf("%w: volume percent", shared.ErrMissingArgument)
	}
	percent, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("%w: %q is not a number", shared.ErrInvalidArgument, arg)
	}

	msg, err := r.orchestrator.SetVolume(percent)
	if err != nil {
		return err
	}
	return r.writePlainln("%s", msg)
}

// Status reports session state, now playing and in-flight downloads.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	snapshot := r.orchestrator.Status()

	connected := "disconnected"
	if snapshot.Connected {
		connected = fmt.Sprintf("connected (session %s)", snapshot.SessionID)
	}
	r.writePlainln("session:  %s", connected)
	r.writePlainln("playback: %s", r.orchestrator.NowPlaying())
	r.writePlainln("library:  %d tracks", r.catalog.Len())

	jobs := r.orchestrator.Jobs()
	if len(jobs) > 0 {
		r.writePlainln("downloads:")
		for _, job := range jobs {
			r.writePlainln("  %s  %s  %d%%", job.DestinationID, job.State, job.ProgressPercent)
		}
	}
	return nil
}
