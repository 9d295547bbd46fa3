package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rpupo63/consulting-site-backend/accounts"
	"github.com/rpupo63/consulting-site-backend/config"
	"github.com/rpupo63/consulting-site-backend/content"
)

// Backend is everything the services need from storage. Local and Remote both
// implement it; callers never branch on which one is in use.
type Backend interface {
	content.Store
	accounts.Store
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Backend = (*Local)(nil)
	_ Backend = (*Remote)(nil)
)

const (
	TypeLocal  = "local"
	TypeRemote = "remote"
)

// Database is the backend chosen at startup.
type Database struct {
	Backend
	kind string
}

func (d Database) Kind() string {
	return d.kind
}

// Open selects the backend from DB_TYPE and connects to it.
func Open(ctx context.Context, cfg map[string]string) (Database, error) {
	kind := strings.ToLower(config.GetString(cfg, "DB_TYPE", TypeLocal))
	log.Info().Str("dbType", kind).Msg("opening storage")

	switch kind {
	case TypeLocal:
		local, err := OpenLocal(ctx, LocalConfig{
			Driver:        config.GetString(cfg, "LOCAL_DB_DRIVER", "sqlite"),
			DSN:           config.GetString(cfg, "LOCAL_DB_DSN", ""),
			ReplicaDSNs:   config.GetStrings(cfg, "LOCAL_DB_REPLICA_DSNS"),
			SlowThreshold: config.GetDuration(cfg, "DB_SLOW_QUERY_MS", time.Millisecond, 1000),
			AutoMigrate:   config.GetBool(cfg, "DB_AUTO_MIGRATE", true),
		})
		if err != nil {
			return Database{}, err
		}
		return Database{Backend: local, kind: kind}, nil

	case TypeRemote:
		remote, err := NewRemote(RemoteConfig{
			URL:       config.GetString(cfg, "REMOTE_DB_URL", ""),
			AuthToken: config.GetString(cfg, "REMOTE_DB_AUTH_TOKEN", ""),
		})
		if err != nil {
			return Database{}, err
		}
		if config.GetBool(cfg, "DB_AUTO_MIGRATE", true) {
			if err := remote.EnsureSchema(ctx); err != nil {
				return Database{}, err
			}
		}
		return Database{Backend: remote, kind: kind}, nil
	}
	return Database{}, fmt.Errorf("unsupported DB_TYPE %q (use %s or %s)", kind, TypeLocal, TypeRemote)
}
