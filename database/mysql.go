package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"

	"storefront/config"
)

func mysqlConfig(cfg *config.Config) *mysql.Config {
	mc := mysql.NewConfig()
	mc.User = cfg.DBUser
	mc.Passwd = cfg.DBPassword
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.DBHost, cfg.DBPort)
	mc.DBName = cfg.DBName
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Timeout = cfg.DBConnectTimeout
	// Report matched rather than changed rows so an UPDATE that writes the
	// same quantity still counts as found.
	mc.ClientFoundRows = true
	return mc
}

// OpenMySQL connects to the primary store and verifies it answers within
// the configured connect timeout.
func OpenMySQL(ctx context.Context, cfg *config.Config) (*SQLStore, error) {
	connector, err := mysql.NewConnector(mysqlConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(3 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DBConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql ping: %w", err)
	}

	return newSQLStore(db, mysqlDialect{}), nil
}

// NewMySQLStore wraps an existing pool speaking the MySQL dialect.
func NewMySQLStore(db *sql.DB) *SQLStore {
	return newSQLStore(db, mysqlDialect{})
}
