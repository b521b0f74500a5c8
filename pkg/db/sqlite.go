// Package db opens the app's sqlite database with WAL and a
// single-writer/multi-reader pool split.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"

	_ "modernc.org/sqlite"
)

// DB bundles the read and write connection pools for one database file.
type DB struct {
	read  *sql.DB
	write *sql.DB
}

func connString(file string, readonly bool) string {
	params := make(url.Values)
	params.Add("_journal_mode", "WAL")
	params.Add("_busy_timeout", "5000")
	params.Add("_synchronous", "NORMAL")
	params.Add("_foreign_keys", "true")

	if readonly {
		params.Add("mode", "ro")
	} else {
		params.Add("_txlock", "immediate")
		params.Add("mode", "rwc")
	}

	return "file:" + file + "?" + params.Encode()
}

func openPool(file string, readonly bool) (*sql.DB, error) {
	pool, err := sql.Open("sqlite", connString(file, readonly))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	for _, pragma := range []string{"temp_store=memory", "busy_timeout=10000"} {
		if _, err := pool.Exec("PRAGMA " + pragma + ";"); err != nil {
			pool.Close()
			return nil, fmt.Errorf("set PRAGMA %s: %w", pragma, err)
		}
	}

	if readonly {
		conns := max(4, runtime.NumCPU())
		pool.SetMaxOpenConns(conns)
		pool.SetMaxIdleConns(conns)
	} else {
		// Serialize writes on one connection to avoid SQLITE_BUSY.
		pool.SetMaxOpenConns(1)
		pool.SetMaxIdleConns(1)
	}

	return pool, nil
}

// Open creates the database file (and parent directory) if needed and
// returns the pool pair.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	write, err := openPool(path, false)
	if err != nil {
		return nil, err
	}

	read, err := openPool(path, true)
	if err != nil {
		write.Close()
		return nil, err
	}

	return &DB{read: read, write: write}, nil
}

// Read returns the read-only pool.
func (d *DB) Read() *sql.DB { return d.read }

// Write returns the single-connection write pool.
func (d *DB) Write() *sql.DB { return d.write }

// WithTx runs fn inside a write transaction, rolling back on error.
func (d *DB) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := d.write.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Close closes both pools.
func (d *DB) Close() error {
	var firstErr error
	if err := d.read.Close(); err != nil {
		firstErr = err
	}
	if err := d.write.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
