// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand writes a starter config file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create a starter configuration file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// connectCommand joins the voice channel and rotates until interrupted.
func connectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "connect",
		Usage: "Join the voice channel and rotate through the library",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "serve",
				Usage: "Also run the library upload service",
			},
		},
		Action: r.Connect,
	}
}

func disconnectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "disconnect",
		Usage:  "Leave the voice channel",
		Action: r.Disconnect,
	}
}

func skipCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "skip",
		Usage:  "Skip the current track",
		Action: r.Skip,
	}
}

func volumeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "volume",
		Usage:     "Set playback volume (0-200 percent)",
		ArgsUsage: "<percent>",
		Action:    r.Volume,
	}
}

func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show session state, now playing and in-flight downloads",
		Action: r.Status,
	}
}

// searchCommand ranks library tracks against a query.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Fuzzy-search the local library",
		ArgsUsage: "<query>",
		Action:    r.Search,
	}
}

// playCommand searches the library and plays the top match.
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     "Search the library and play the best match",
		ArgsUsage: "<query>",
		Action:    r.Play,
	}
}

// remoteCommand groups provider-backed operations.
func remoteCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "remote",
		Aliases: []string{"r"},
		Usage:   "Search and acquire tracks from the remote provider",
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "List remote candidates for a query",
				ArgsUsage: "<query>",
				Action:    r.RemoteSearch,
			},
			{
				Name:      "play",
				Usage:     "Acquire a candidate and play it (interactive without a rank)",
				ArgsUsage: "<query> [rank]",
				Action:    r.RemotePlay,
			},
		},
	}
}

// libraryCommand groups catalog maintenance operations.
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Inspect and maintain the track library",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List every track in the library",
				Action: r.LibraryList,
			},
			{
				Name:   "reload",
				Usage:  "Rescan the library directory",
				Action: r.LibraryReload,
			},
		},
	}
}

// serveCommand runs the upload web service on its own.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the library upload service",
		Action: r.Serve,
	}
}
