package db

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/mattn/go-sqlite3"
)

const MemoryPath = ":memory:"

const schema = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS gists (
    id TEXT PRIMARY KEY,
    description TEXT,
    owner TEXT,
    public INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS gist_files (
    gist_id TEXT NOT NULL,
    filename TEXT NOT NULL,
    language TEXT,
    content BLOB,
    content_hash TEXT,
    size INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (gist_id, filename),
    FOREIGN KEY(gist_id) REFERENCES gists(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS stars (
    gist_id TEXT PRIMARY KEY,
    starred_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY(gist_id) REFERENCES gists(id) ON DELETE CASCADE
);`

var ErrNotInitialized = errors.New("database not initialized")

type SQLite struct {
	path string
	conn *sql.DB
}

func NewSQLite(path string) *SQLite {
	if path == "" {
		path = "./gists.db"
	}
	return &SQLite{
		path: path,
		conn: nil,
	}
}

func (s *SQLite) InitDB() error {
	conn, err := sql.Open("sqlite3", s.path)
	if err != nil {
		return err
	}
	// One connection keeps :memory: databases and the foreign_keys pragma
	// consistent across the pool.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return err
	}

	s.conn = conn
	dbLogger.Info().Str("path", s.path).Msg("Database initialized")
	return nil
}

func (s *SQLite) Get() *sql.DB {
	return s.conn
}

func (s *SQLite) Close() error {
	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}

func (s *SQLite) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if s.conn == nil {
		return nil, ErrNotInitialized
	}
	dbLogger.Debug().Str("query", query).Msg("Query")
	return s.conn.QueryContext(ctx, query, args...)
}

func (s *SQLite) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if s.conn == nil {
		return nil, ErrNotInitialized
	}
	dbLogger.Debug().Str("query", query).Msg("Exec")
	return s.conn.ExecContext(ctx, query, args...)
}
