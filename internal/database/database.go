package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"troop-cookies/internal/config"
	"troop-cookies/internal/logger"
	"troop-cookies/internal/models"
)

const maxConnectAttempts = 5

// PostgresDSN builds the connection string. The schema namespace is applied
// through search_path so queries stay unqualified.
func PostgresDSN(cfg config.DatabaseConfig) string {
	if cfg.DSN != "" {
		return withSearchPath(cfg.DSN, cfg.Schema)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.Username, cfg.Password),
		Host:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Path:     "/" + cfg.Database,
		RawQuery: "sslmode=disable",
	}
	return withSearchPath(u.String(), cfg.Schema)
}

func withSearchPath(dsn, schema string) string {
	if schema == "" {
		return dsn
	}
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return dsn
	}
	q := u.Query()
	if q.Get("search_path") == "" {
		q.Set("search_path", schema)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Connect opens the configured store, retrying the postgres ping a few times
// while the database container comes up.
func Connect(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*bun.DB, error) {
	if cfg.Driver == "sqlite" {
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "file:cookies.db?cache=shared"
		}
		log.LogDatabase("CONNECT", "sqlite", dsn)
		db, err := OpenSQLite(dsn)
		if err != nil {
			return nil, err
		}
		if err := CreateSchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	}

	var sqldb *sql.DB
	var err error
	for i := 0; i < maxConnectAttempts; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxConnectAttempts))
		sqldb, err = sql.Open("postgres", PostgresDSN(cfg))
		if err == nil {
			err = sqldb.PingContext(ctx)
			if err == nil {
				break
			}
			sqldb.Close()
		}
		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxConnectAttempts-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect to postgres after %d attempts: %w", maxConnectAttempts, err)
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	log.Info("DATABASE", "✅ PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New()), nil
}

// OpenSQLite opens a bun handle over the sqlite shim. The pool is pinned to a
// single connection so in-memory databases are shared by every query and
// writers serialize.
func OpenSQLite(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqldb.SetMaxOpenConns(1)
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// Models lists every table in creation order.
func Models() []interface{} {
	return []interface{}{
		(*models.CookieVariant)(nil),
		(*models.BoothEvent)(nil),
		(*models.PlannedInventory)(nil),
		(*models.Order)(nil),
		(*models.InventoryLedgerEntry)(nil),
		(*models.MoneyLedgerEntry)(nil),
	}
}

// CreateSchema creates the tables straight from the bun models. Postgres
// deployments use the migrations package instead.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, m := range Models() {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", m, err)
		}
	}
	return nil
}
