package gormdialect

import (
	"database/sql"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// LogLevel maps an slog level onto gorm's logger levels.
func LogLevel(level slog.Level) logger.LogLevel {
	switch {
	case level <= slog.LevelDebug:
		return logger.Info
	case level <= slog.LevelWarn:
		return logger.Warn
	default:
		return logger.Error
	}
}

// NewLogger returns gorm's default logger at the level matching level.
func NewLogger(level slog.Level) logger.Interface {
	return logger.Default.LogMode(LogLevel(level))
}

// OpenDB opens gorm over an existing pool with error translation on and
// gorm's logger at level.
func OpenDB(pool *sql.DB, level slog.Level) (*gorm.DB, error) {
	return gorm.Open(New(Config{Conn: pool}), &gorm.Config{
		TranslateError: true,
		Logger:         NewLogger(level),
	})
}
