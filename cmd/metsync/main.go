package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"

	"github.com/atmosdata/metsync/internal/api"
	"github.com/atmosdata/metsync/internal/config"
	"github.com/atmosdata/metsync/internal/job"
	"github.com/atmosdata/metsync/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "metsync",
		Usage: "Transfer and validate hourly meteorological data archives between object stores",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Execute a single batch transfer and print the result",
				Action: runOnce,
			},
			{
				Name:   "serve",
				Usage:  "Serve the HTTP trigger endpoint",
				Action: serve,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("metsync failed")
	}
}

func runOnce(c *cli.Context) error {
	cfg := config.Load()
	logger.SetLevel(cfg.App.LogLevel)

	runner, err := job.NewFromConfig(c.Context, cfg)
	if err != nil {
		return fmt.Errorf("failed to assemble batch runner: %w", err)
	}

	resp := runner.Run(c.Context)

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Println(string(out))

	if resp.StatusCode >= http.StatusInternalServerError {
		return cli.Exit("batch failed", 1)
	}
	return nil
}

func serve(c *cli.Context) error {
	cfg := config.Load()
	logger.SetLevel(cfg.App.LogLevel)

	runner, err := job.NewFromConfig(c.Context, cfg)
	if err != nil {
		return fmt.Errorf("failed to assemble batch runner: %w", err)
	}

	gin.SetMode(cfg.Server.Mode)
	router := api.NewRouter(runner, cfg.Server.AllowedOrigins)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Log.Info().Str("addr", addr).Msg("trigger server starting")
	if err := router.Run(addr); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}
