// Package sqlstore keeps documents in a single SQL table, one row per document
// with its fields as JSON. It serves the sqlite, postgres and mysql drivers.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oklog/ulid/v2"

	"github.com/Makepad-fr/tadasync/internal/store/docstore"
)

// Config selects the engine and how to reach it.
type Config struct {
	Dialect string // sqlite | postgres | mysql
	DSN     string // file path for sqlite
}

// Store implements docstore.Client over database/sql.
type Store struct {
	db *sql.DB
	d  dialect
}

var _ docstore.Client = (*Store)(nil)

// Open connects, applies the schema and returns a ready store.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	d, err := lookupDialect(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%s: dsn required", d.name)
	}
	if d.name == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open(d.driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.name, err)
	}
	if d.name == "sqlite" {
		// single writer
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.name, err)
	}
	for _, stmt := range d.schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &Store{db: db, d: d}, nil
}

// DB exposes the handle for tests.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Create(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	enc, err := docstore.EncodeFields(fields)
	if err != nil {
		return "", docstore.Wrap("create", collection, "", err)
	}
	id := ulid.Make().String()
	q := s.d.rebind(`INSERT INTO documents (collection, id, fields) VALUES (?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, q, collection, id, string(enc)); err != nil {
		return "", docstore.Wrap("create", collection, id, err)
	}
	return id, nil
}

func (s *Store) ListOrderedBy(ctx context.Context, collection, field string, dir docstore.Direction) ([]docstore.Document, error) {
	q := s.d.rebind(`SELECT id, fields FROM documents WHERE collection = ?`)
	rows, err := s.db.QueryContext(ctx, q, collection)
	if err != nil {
		return nil, docstore.Wrap("list", collection, "", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []docstore.Document
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, docstore.Wrap("list", collection, "", fmt.Errorf("scan: %w", err))
		}
		f, err := docstore.DecodeFields([]byte(raw))
		if err != nil {
			return nil, docstore.Wrap("list", collection, id, err)
		}
		docs = append(docs, docstore.Document{ID: id, Fields: f})
	}
	if err := rows.Err(); err != nil {
		return nil, docstore.Wrap("list", collection, "", err)
	}
	return docstore.SortDocuments(docs, field, dir), nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields docstore.Fields) error {
	return docstore.Wrap("update", collection, id, s.update(ctx, collection, id, fields))
}

func (s *Store) update(ctx context.Context, collection, id string, fields docstore.Fields) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var raw string
	q := s.d.rebind(`SELECT fields FROM documents WHERE collection = ? AND id = ?` + s.d.forUpdate)
	if err := tx.QueryRowContext(ctx, q, collection, id).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return docstore.ErrNotFound
		}
		return fmt.Errorf("select: %w", err)
	}
	cur, err := docstore.DecodeFields([]byte(raw))
	if err != nil {
		return err
	}
	cur.Merge(fields)
	enc, err := docstore.EncodeFields(cur)
	if err != nil {
		return err
	}
	q = s.d.rebind(`UPDATE documents SET fields = ? WHERE collection = ? AND id = ?`)
	if _, err := tx.ExecContext(ctx, q, string(enc), collection, id); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	return tx.Commit()
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	q := s.d.rebind(`DELETE FROM documents WHERE collection = ? AND id = ?`)
	_, err := s.db.ExecContext(ctx, q, collection, id)
	return docstore.Wrap("delete", collection, id, err)
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
