package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/leaflora/memoria/internal"
	pkgconfig "github.com/leaflora/memoria/pkg/config"
)

func main() {
	cmd := &cli.Command{
		Name:  "memoria",
		Usage: "Personal media journal client with a searchable timeline, media staging, and a lightbox viewer",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("MEMORIA_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			loginCommand(),
			logoutCommand(),
			timelineCommand(),
			addCommand(),
			editCommand(),
			rmCommand(),
			viewCommand(),
			watchCommand(),
			mcpCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// loadConfig reads the config file named by the root flag, falling back to
// defaults when the file does not exist.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadIfPresent(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// newApp assembles the application for one command invocation. The caller
// must defer app.Close().
func newApp(cmd *cli.Command) (*internal.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return internal.NewApp(internal.WithConfig(cfg))
}
