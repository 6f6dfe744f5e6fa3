// Package main provides the interview service entry point.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm/logger"

	"github.com/Alex-Pennington/MARS-History-Project/internal/auth"
	"github.com/Alex-Pennington/MARS-History-Project/internal/claude"
	"github.com/Alex-Pennington/MARS-History-Project/internal/config"
	dbgorm "github.com/Alex-Pennington/MARS-History-Project/internal/db/gorm"
	"github.com/Alex-Pennington/MARS-History-Project/internal/interview"
	"github.com/Alex-Pennington/MARS-History-Project/internal/server"
	"github.com/Alex-Pennington/MARS-History-Project/internal/tts"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	host := flag.String("host", "", "Bind address (overrides config)")
	port := flag.Int("port", 0, "Listen port (overrides config)")
	dbPath := flag.String("db-path", "", "SQLite database path (overrides config)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("failed to load config, using defaults")
		cfg = config.Default()
	}
	if *host != "" {
		cfg.Host = *host
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	for _, warning := range cfg.Validate() {
		log.Warn().Msg(warning)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatal().Err(err).Msg("failed to create data directories")
	}

	store, err := dbgorm.NewStore(dbgorm.Config{
		Path:     cfg.DBPath,
		MaxConns: cfg.MaxConns,
		LogLevel: logger.Silent,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize SQLite store")
	}
	defer store.Close()

	model, err := claude.NewClient(claude.Config{
		APIKey:    cfg.AnthropicAPIKey,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize conversational model client")
	}

	synth, err := tts.NewClient(tts.Config{
		APIKey:       cfg.GoogleAPIKey,
		LanguageCode: cfg.TTSLanguageCode,
		CacheDir:     cfg.AudioCacheDir,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize speech synthesis client")
	}

	manager := interview.NewManager(interview.ManagerConfig{
		MaxContextMessages: cfg.MaxContextMessages,
		ExtractionInterval: cfg.ExtractionInterval,
		MaxTokens:          cfg.MaxTokens,
	},
		model, synth,
		dbgorm.NewSessionStore(store),
		dbgorm.NewMessageStore(store),
		dbgorm.NewExtractionStore(store))

	tokens, err := auth.NewStore(cfg.TokensFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load tokens file")
	}

	tokenWatcher, err := auth.NewWatcher(tokens)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create tokens watcher")
	}

	svc := server.NewService(Version, cfg, manager, tokens)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("shutting down")
		cancel()
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return svc.Run(gctx)
	})
	g.Go(func() error {
		if err := tokenWatcher.Start(); err != nil {
			return err
		}
		<-gctx.Done()
		return tokenWatcher.Stop()
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("service exited with error")
	}
}
