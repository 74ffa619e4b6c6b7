package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tgillam/jukebox/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search ranks library tracks against the query.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.Join(cmd.Args().Slice(), " ")
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	results := r.orchestrator.LocalSearch(query)
	if len(results) == 0 {
		return r.writePlainln("no matches for %q", query)
	}
	for i, result := range results {
		r.writePlainln("%d. %s (%d%%)", i+1, result.Track.Title, result.MatchPercent())
	}
	return nil
}

// Play searches the library and plays the best match, holding the session
// open until interrupted.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	query := strings.Join(cmd.Args().Slice(), " ")
	if query == "" {
		return fmt.Errorf("%w: track query", shared.ErrMissingArgument)
	}

	if results := r.orchestrator.LocalSearch(query); len(results) == 0 {
		return fmt.Errorf("%w: no match for %q", shared.ErrTrackNotFound, query)
	}
	msg, err := r.orchestrator.LocalPlay(ctx, 1)
	if err != nil {
		return err
	}
	r.writePlainln("%s", msg)

	<-ctx.Done()
	r.orchestrator.Disconnect()
	return nil
}

// RemoteSearch lists provider candidates for the query.
func (r *Runner) RemoteSearch(ctx context.Context, cmd *cli.Command) error {
	query := strings.Join(cmd.Args().Slice(), " ")
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	candidates, err := r.orchestrator.RemoteSearch(ctx, query)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return r.writePlainln("no remote results for %q", query)
	}
	for i, candidate := range candidates {
		r.writePlainln("%d. %s — %s [%s]", i+1, candidate.Title, candidate.AuthorLabel, candidate.DurationLabel)
	}
	return nil
}

// RemotePlay acquires a candidate and plays it. With a rank it runs
// non-interactively; without one it opens the picker TUI.
func (r *Runner) RemotePlay(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	rank := 0
	query := strings.Join(args, " ")
	if len(args) > 1 {
		if n, err := strconv.Atoi(args[len(args)-1]); err == nil {
			rank = n
			query = strings.Join(args[:len(args)-1], " ")
		}
	}

	if rank == 0 {
		return r.remotePlayTUI(ctx, query)
	}

	if _, err := r.orchestrator.RemoteSearch(ctx, query); err != nil {
		return err
	}
	lastReported := -1
	msg, err := r.orchestrator.RemotePlay(ctx, rank, func(percent int) {
		if percent/10 > lastReported/10 {
			r.logger.Info("acquiring", "progress", fmt.Sprintf("%d%%", percent))
		}
		lastReported = percent
	})
	if err != nil {
		return err
	}
	r.writePlainln("%s", msg)

	<-ctx.Done()
	r.orchestrator.Disconnect()
	return nil
}
