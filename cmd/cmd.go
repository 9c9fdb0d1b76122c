// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/urfave/cli/v3"
)

const defaultConfigPath = "config.toml"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   defaultConfigPath,
	}
}

// configPathFromArgs finds the config flag before the CLI parses anything,
// since every command is built from the loaded config.
func configPathFromArgs(args []string) string {
	for i := 1; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		for _, name := range []string{"-c", "--config", "-config"} {
			if arg == name && i+1 < len(args) {
				return args[i+1]
			}
			if v, ok := strings.CutPrefix(arg, name+"="); ok {
				return v
			}
		}
	}
	return defaultConfigPath
}

// serveCommand runs the gateway
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the catalog gateway, login bridge and static client",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Interface to listen on (overrides server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides server.port)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the web client in a browser once listening",
			},
			&cli.BoolFlag{
				Name:  "no-journal",
				Usage: "Do not record login runs in the database",
			},
		},
		Action: r.Serve,
	}
}

// regionCommand prints the region stored with the token
func regionCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "region",
		Usage: "Print the region stored alongside the token",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Region,
	}
}

// apiCommand handles direct authenticated upstream calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the upstream catalog API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Authenticated GET relative to upstream.api_url, prints the body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Query parameter as key=value, may be repeated",
					},
					&cli.BoolFlag{
						Name:  "web",
						Usage: "Send the request to upstream.web_url instead",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON bodies",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
		},
	}
}

// loginCommand runs the login task locally
func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Run the login task in an interactive terminal UI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the UI owns the terminal",
				Value: "./tmp/hifi-login.log",
			},
		},
		Action: r.Login,
	}
}

// loginsCommand lists recorded login runs
func loginsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "logins",
		Usage: "List recent login runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to show",
				Value: 20,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, csv or markdown",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to this file instead of stdout",
			},
			&cli.StringFlag{
				Name:  "source",
				Usage: "Only show runs started from this source (websocket or cli)",
			},
		},
		Action: r.Logins,
	}
}

// setupCommand writes the config and prepares the journal database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml from the template and run database migrations",
		Action: r.Setup,
	}
}
