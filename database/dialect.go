package database

import (
	_ "embed"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

//go:embed schema/mysql.sql
var mysqlSchema string

//go:embed schema/sqlite.sql
var sqliteSchema string

// dialect carries the few statements MySQL and SQLite disagree on. A store
// gets exactly one at open time.
type dialect interface {
	name() string
	schema() string
	// upsertCartSQL inserts a cart row or adds to the quantity of the
	// existing (user_id, product_id) row.
	upsertCartSQL() string
	// lockSuffix is appended to reads that must hold row locks until commit.
	lockSuffix() string
	isUniqueViolation(err error) bool
}

type mysqlDialect struct{}

func (mysqlDialect) name() string   { return "mysql" }
func (mysqlDialect) schema() string { return mysqlSchema }

func (mysqlDialect) upsertCartSQL() string {
	return `INSERT INTO cart (user_id, product_id, quantity) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE quantity = quantity + VALUES(quantity), updated_at = CURRENT_TIMESTAMP`
}

func (mysqlDialect) lockSuffix() string { return " FOR UPDATE" }

func (mysqlDialect) isUniqueViolation(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

type sqliteDialect struct{}

func (sqliteDialect) name() string   { return "sqlite" }
func (sqliteDialect) schema() string { return sqliteSchema }

func (sqliteDialect) upsertCartSQL() string {
	return `INSERT INTO cart (user_id, product_id, quantity) VALUES (?, ?, ?)
		ON CONFLICT(user_id, product_id) DO UPDATE SET quantity = cart.quantity + excluded.quantity, updated_at = CURRENT_TIMESTAMP`
}

// SQLite has no row locks; writes are serialised by the single connection
// and immediate transactions.
func (sqliteDialect) lockSuffix() string { return "" }

func (sqliteDialect) isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}
