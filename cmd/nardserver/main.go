// Command nardserver runs the Nard analysis API server.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/yourusername/nardengine/internal/config"
	"github.com/yourusername/nardengine/internal/logging"
	"github.com/yourusername/nardengine/pkg/api"
	"github.com/yourusername/nardengine/pkg/engine"
)

const version = "0.1.0"

func main() {
	configFile := flag.String("config", "", "Path to YAML config file")
	envFile := flag.String("env-file", ".env", "Path to .env file (ignored if missing)")
	host := flag.String("host", "", "Host to bind to (overrides config)")
	port := flag.Int("port", 0, "Port to listen on (overrides config)")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("Nard API Server v%s\n", version)
		os.Exit(0)
	}

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	logger, err := logging.Setup(cfg.Log.Level, cfg.Log.Pretty)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	eng := engine.NewEngine(engine.EngineOptions{
		CacheSize: cfg.Engine.CacheSize,
		Logger:    &logger,
	})

	server := api.NewServer(eng, api.ServerConfig{
		Host:              cfg.Server.Host,
		Port:              cfg.Server.Port,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
		MaxFastWorkers:    cfg.Server.MaxFastWorkers,
		MaxSlowWorkers:    cfg.Server.MaxSlowWorkers,
		QueueTimeout:      cfg.Server.QueueTimeout,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		RolloutGames:      cfg.Rollout.Games,
		RolloutMaxPlies:   cfg.Rollout.MaxPlies,
		MaxRolloutGames:   cfg.Rollout.MaxGames,
		MaxRolloutWorkers: cfg.Rollout.MaxWorkers,
	}, version, logger)

	if err := server.ListenAndServeWithGracefulShutdown(); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
