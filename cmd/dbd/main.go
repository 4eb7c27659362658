package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"dbd/internal/di"
	"dbd/internal/structures"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "dbd",
		Usage: "per-domain discussion board daemon",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "path to the yaml config file",
				EnvVars: []string{"DBD_CONFIG"},
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug mode",
				EnvVars: []string{"DBD_DEBUG"},
			},
		},
		Action: func(c *cli.Context) error {
			flags := &structures.CliFlags{
				ConfigPath: c.String("config"),
				DebugMode:  c.Bool("debug"),
			}
			_, err := di.InitApp(flags)
			return err
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
