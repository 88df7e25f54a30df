package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"bizreviews/internal/domain"
	"bizreviews/internal/shared"
	"bizreviews/internal/storage/memory"
	mysqlds "bizreviews/internal/storage/mysql"
	"bizreviews/internal/storage/sqlite"
)

// Open builds the configured backend, wrapped with metrics. The returned
// close func is never nil.
func Open(ctx context.Context, cfg shared.Config) (domain.Datastore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StoreBackend {
	case "memory", "":
		log.Warn().Msg("using in-memory datastore; data is lost on restart")
		return NewMetered("memory", memory.New()), noop, nil

	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, noop, fmt.Errorf("sql.Open: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, noop, fmt.Errorf("db.Ping: %w", err)
		}
		ds := mysqlds.New(db)
		if err := ds.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, noop, err
		}
		log.Info().Msg("database connection ok")
		return NewMetered("mysql", ds), db.Close, nil

	case "sqlite":
		st, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, noop, fmt.Errorf("sqlite open %s: %w", cfg.SQLitePath, err)
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("sqlite datastore ready")
		return NewMetered("sqlite", st), st.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
}
