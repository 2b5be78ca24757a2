// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

func prettyFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "pretty",
		Usage: "Pretty-print JSON output",
		Value: true,
	}
}

// authCommand handles account and credential operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in and store the access token",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Account password (read from stdin when omitted)",
						Sources: cli.EnvVars("ROOMSYNC_PASSWORD"),
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account and store the access token",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Usage:    "Display name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Account password (read from stdin when omitted)",
						Sources: cli.EnvVars("ROOMSYNC_PASSWORD"),
					},
				},
				Action: r.AuthRegister,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored access token",
				Action: r.AuthLogout,
			},
			{
				Name:   "whoami",
				Usage:  "Show the signed-in user",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.AuthWhoami,
			},
		},
	}
}

// roomsCommand handles room management
func roomsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "rooms",
		Usage: "List and manage rooms",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List rooms",
				Flags:  []cli.Flag{jsonFlag(), prettyFlag()},
				Action: r.RoomsList,
			},
			{
				Name:  "create",
				Usage: "Create a room",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "private",
						Usage: "Hide the room from public listings",
					},
					jsonFlag(),
				},
				Action: r.RoomsCreate,
			},
			{
				Name:  "show",
				Usage: "Show a room with its participants and queue",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{jsonFlag(), prettyFlag()},
				Action: r.RoomsShow,
			},
			{
				Name:  "delete",
				Usage: "Delete a room",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.RoomsDelete,
			},
			{
				Name:      "export",
				Usage:     "Export the queues of several rooms",
				ArgsUsage: "[room-id...]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Export every listed room",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: json, csv, markdown, txt",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: queue_export_{epoch})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent export workers",
						Value: 3,
					},
					&cli.BoolFlag{
						Name:  "cover",
						Usage: "Download cover art for markdown exports",
					},
				},
				Action: r.RoomsExport,
			},
		},
	}
}

// roomCommand handles live room sessions
func roomCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "room",
		Usage: "Join a room and follow it live",
		Commands: []*cli.Command{
			{
				Name:  "listen",
				Usage: "Join a room and print its state on every change until interrupted",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.RoomListen,
			},
			{
				Name:    "tui",
				Aliases: []string{"ui"},
				Usage:   "Join a room in the interactive terminal UI",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.RoomTUI,
			},
		},
	}
}

// queueCommand handles queue operations against any room
func queueCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "queue",
		Usage: "Inspect and edit a room's queue",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show a room's queue",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "room"},
				},
				Flags:  []cli.Flag{jsonFlag(), prettyFlag()},
				Action: r.QueueShow,
			},
			{
				Name:  "add",
				Usage: "Add a track to a room's queue",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "room"},
					&cli.StringArg{Name: "track"},
				},
				Action: r.QueueAdd,
			},
			{
				Name:  "remove",
				Usage: "Remove a queue item",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "room"},
					&cli.StringArg{Name: "item"},
				},
				Action: r.QueueRemove,
			},
			{
				Name:  "vote",
				Usage: "Vote a queue item up or down",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "room"},
					&cli.StringArg{Name: "item"},
					&cli.StringArg{Name: "direction", Value: "up"},
				},
				Action: r.QueueVote,
			},
			{
				Name:  "export",
				Usage: "Export a room's queue to a file",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "room"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: json, csv, markdown, txt",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path (directory for markdown); prints to stdout when omitted",
					},
					&cli.BoolFlag{
						Name:  "cover",
						Usage: "Download cover art for markdown exports",
					},
				},
				Action: r.QueueExport,
			},
			{
				Name:  "import",
				Usage: "Add tracks from a file of track IDs or search: lines",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "room"},
					&cli.StringArg{Name: "file"},
				},
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.QueueImport,
			},
		},
	}
}

// tracksCommand handles catalog operations
func tracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tracks",
		Usage: "Search and manage the track catalog",
		Commands: []*cli.Command{
			{
				Name:  "search",
				Usage: "Search the catalog",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "query"},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results to print",
						Value: 25,
					},
					jsonFlag(),
					prettyFlag(),
				},
				Action: r.TracksSearch,
			},
			{
				Name:  "show",
				Usage: "Show one track",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{jsonFlag(), prettyFlag()},
				Action: r.TracksShow,
			},
			{
				Name:  "create",
				Usage: "Register a track manually",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "path",
						Usage:    "Audio file path on the server",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Track name",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Artist name",
					},
					&cli.StringFlag{
						Name:  "image",
						Usage: "Cover image URL",
					},
					&cli.IntFlag{
						Name:  "duration",
						Usage: "Duration in seconds",
					},
					jsonFlag(),
				},
				Action: r.TracksCreate,
			},
		},
	}
}
