package cli

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"duck-adapter/internal/adapter"
	"duck-adapter/internal/config"
	"duck-adapter/internal/engine"
)

// session carries the resolved configuration of one CLI invocation and the
// engine opened on first use.
type session struct {
	dbPath   string
	envFile  string
	logLevel string

	cfg    *config.Config
	logger *slog.Logger
	eng    *engine.Engine
	db     *adapter.Database
}

// load resolves configuration with precedence flag > env > .env > default.
func (s *session) load(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(s.envFile); err != nil {
		return err
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	flags := cmd.Root().PersistentFlags()
	if flags.Changed("db") {
		cfg.DBPath = s.dbPath
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = s.logLevel
	}
	s.cfg = cfg
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	return nil
}

// database opens the engine on first call.
func (s *session) database() (*adapter.Database, error) {
	if s.db != nil {
		return s.db, nil
	}
	if s.cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	for _, w := range s.cfg.Warnings {
		s.logger.Warn(w)
	}
	s.eng = engine.New(s.cfg.EngineOptions(), s.logger)
	s.db = adapter.New(s.eng, adapter.Options{
		Logger:          s.logger,
		SchemaCacheSize: s.cfg.SchemaCacheSize,
		SchemaCacheTTL:  s.cfg.SchemaCacheTTL,
	})
	return s.db, nil
}

func (s *session) close() error {
	if s.eng == nil {
		return nil
	}
	err := s.eng.Close()
	s.eng, s.db = nil, nil
	return err
}
