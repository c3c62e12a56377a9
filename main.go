package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/gisthub/internal/config"
	"github.com/debemdeboas/gisthub/internal/db"
	"github.com/debemdeboas/gisthub/internal/editor"
	"github.com/debemdeboas/gisthub/internal/gists"
	"github.com/debemdeboas/gisthub/internal/logger"
	"github.com/debemdeboas/gisthub/internal/model"
	"github.com/debemdeboas/gisthub/internal/remote"
	"github.com/debemdeboas/gisthub/internal/session"
	"github.com/debemdeboas/gisthub/internal/sse"
)

func main() {
	os.Exit(run())
}

// run owns every deferred cleanup and returns the process exit code.
func run() int {
	configPath := flag.String("config", config.DefaultConfigPath, "Path to the configuration file")
	flag.Parse()

	bootLogger := logger.New(config.DefaultLogLevel)
	if err := godotenv.Load(); err != nil {
		bootLogger.Info().Msg("No .env file loaded")
	}

	config.SetLogger(bootLogger)
	if err := config.LoadConfig(*configPath); err != nil {
		bootLogger.Error().Err(err).Str("path", *configPath).Msg("Failed to load config")
		return 1
	}
	cfg := config.AppConfig

	log := logger.New(cfg.Logging.Level)
	wireLoggers(log)

	mode, err := model.ParseListMode(cfg.Client.DefaultMode)
	if err != nil {
		log.Error().Err(err).Msg("Invalid client.default_mode")
		return 1
	}

	ctx := context.Background()
	service, closeBackend, err := remote.Open(ctx, cfg.Remote)
	if err != nil {
		log.Error().Err(err).Str("backend", cfg.Remote.Backend).Msg("Failed to open backend")
		return 1
	}
	defer closeBackend()

	list := gists.NewController(service, gists.Options{
		LoadTimeout: cfg.Client.LoadTimeout,
		Mode:        mode,
	})
	defer list.Close()

	workspace := editor.NewMemoryWorkspace(service, cfg.Client.CommitTimeout)
	srv := newServer(session.New(list, workspace), mode, logger.Component(log, "http"))

	go func() {
		if err := list.Load(ctx, mode); err != nil {
			log.Warn().Err(err).Msg("Initial load did not complete")
		}
	}()

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	log.Info().Str("addr", addr).Str("backend", cfg.Remote.Backend).Msg("Listening")
	if err := http.ListenAndServe(addr, srv.routes()); err != nil {
		log.Error().Err(err).Msg("Server stopped")
		return 1
	}
	return 0
}

func wireLoggers(l zerolog.Logger) {
	config.SetLogger(logger.Component(l, "config"))
	db.SetLogger(logger.Component(l, "db"))
	remote.SetLogger(logger.Component(l, "remote"))
	gists.SetLogger(logger.Component(l, "gists"))
	editor.SetLogger(logger.Component(l, "editor"))
	session.SetLogger(logger.Component(l, "session"))
	sse.SetLogger(logger.Component(l, "sse"))
}
