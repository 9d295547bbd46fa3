package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"

	"github.com/rpupo63/consulting-site-backend/models"
)

type LocalConfig struct {
	Driver        string // sqlite or postgres
	DSN           string
	ReplicaDSNs   []string
	SlowThreshold time.Duration
	AutoMigrate   bool
}

// Local keeps content in a relational database through gorm.
type Local struct {
	db     *gorm.DB
	logger zerolog.Logger
}

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch strings.ToLower(driver) {
	case "", "sqlite":
		if dsn == "" {
			dsn = "file:consulting.db?_foreign_keys=on"
		}
		return sqlite.Open(dsn), nil
	case "postgres":
		return postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true}), nil
	}
	return nil, fmt.Errorf("unsupported local database driver %q", driver)
}

// OpenLocal connects, registers read replicas and migrates when asked.
func OpenLocal(ctx context.Context, cfg LocalConfig) (*Local, error) {
	primary, err := dialector(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	slow := cfg.SlowThreshold
	if slow <= 0 {
		slow = time.Second
	}
	db, err := gorm.Open(primary, &gorm.Config{
		Logger: logger.New(gormWriter{log.With().Str("component", "gorm").Logger()}, logger.Config{
			SlowThreshold:             slow,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to %s database: %w", cfg.Driver, err)
	}

	if len(cfg.ReplicaDSNs) > 0 {
		replicas := make([]gorm.Dialector, 0, len(cfg.ReplicaDSNs))
		for _, dsn := range cfg.ReplicaDSNs {
			replica, err := dialector(cfg.Driver, dsn)
			if err != nil {
				return nil, err
			}
			replicas = append(replicas, replica)
		}
		if err := db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		})); err != nil {
			return nil, fmt.Errorf("registering read replicas: %w", err)
		}
	}

	local, err := NewLocal(db)
	if err != nil {
		return nil, err
	}
	if err := local.Ping(ctx); err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := models.Migrate(db); err != nil {
			return nil, err
		}
	}
	local.logger.Info().Str("driver", cfg.Driver).Int("replicas", len(cfg.ReplicaDSNs)).Msg("local storage ready")
	return local, nil
}

// NewLocal wraps an open gorm handle.
func NewLocal(db *gorm.DB) (*Local, error) {
	if err := db.SetupJoinTable(&models.Post{}, "Tags", &models.PostTag{}); err != nil {
		return nil, fmt.Errorf("registering post_tags join table: %w", err)
	}
	return &Local{db: db, logger: log.With().Str("component", "localStore").Logger()}, nil
}

// DB exposes the gorm handle for schema tooling.
func (l *Local) DB() *gorm.DB {
	return l.db
}

func (l *Local) Ping(ctx context.Context) error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return storeErr("ping", "database", err)
	}
	return storeErr("ping", "database", sqlDB.PingContext(ctx))
}

func (l *Local) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// gormWriter sends gorm's log lines to zerolog.
type gormWriter struct {
	logger zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...any) {
	w.logger.Warn().Msgf(format, args...)
}
