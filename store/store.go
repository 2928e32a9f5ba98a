package store

import (
	"database/sql"
	"fmt"
	"strings"

	"pofcore/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
	dialect Dialect
	driver  string
}

// Open connects to the configured database and applies the schema.
func Open(cfg *config.DatabaseConfig) (*DB, error) {
	var (
		driverName string
		dsn        string
		dialect    Dialect
	)
	switch cfg.Driver {
	case "sqlite":
		driverName = "sqlite"
		dsn = fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", cfg.SQLite.Path)
		dialect = sqliteDialect{}
	case "postgres":
		driverName = "pgx"
		p := &cfg.Postgres
		dsn = fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
			p.Host, p.Port, p.Database, p.User, p.Password, p.SSLMode)
		dialect = postgresDialect{}
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	if cfg.Driver == "sqlite" {
		// A single connection serializes the ledger's writers.
		sqlDB.SetMaxOpenConns(1)
	}

	db := &DB{DB: sqlDB, dialect: dialect, driver: cfg.Driver}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate %s: %w", cfg.Driver, err)
	}
	return db, nil
}

func (db *DB) Dialect() Dialect { return db.dialect }
func (db *DB) Driver() string   { return db.driver }

// Q rewrites ? placeholders and datetime literals for PostgreSQL, passes through for SQLite.
func (db *DB) Q(query string) string {
	if db.driver == "postgres" {
		query = strings.ReplaceAll(query, "datetime('now','localtime')", "NOW()")
		return Rebind(query)
	}
	return query
}

func (db *DB) migrate() error {
	var schema string
	switch db.driver {
	case "sqlite":
		schema = schemaSQLite
	case "postgres":
		schema = schemaPostgres
	default:
		return fmt.Errorf("no schema for driver: %s", db.driver)
	}
	_, err := db.Exec(schema)
	return err
}

// insertID runs an INSERT and returns the generated id under either dialect.
func (db *DB) insertID(query string, args ...any) (int64, error) {
	if db.driver == "postgres" {
		var id int64
		err := db.QueryRow(db.Q(query)+db.dialect.ReturningID(), args...).Scan(&id)
		return id, err
	}
	result, err := db.Exec(db.Q(query), args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// txInsertID is insertID inside a transaction.
func (db *DB) txInsertID(tx *sql.Tx, query string, args ...any) (int64, error) {
	if db.driver == "postgres" {
		var id int64
		err := tx.QueryRow(db.Q(query)+db.dialect.ReturningID(), args...).Scan(&id)
		return id, err
	}
	result, err := tx.Exec(db.Q(query), args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}
