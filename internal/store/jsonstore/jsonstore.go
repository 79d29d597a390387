package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/Makepad-fr/tadasync/internal/store/docstore"
)

// JSON-backed storage. Single file, human-readable, portable.
// Every call reads the file and, for writes, rewrites it whole.

const DefaultFileName = "tada.json"

// file layout: collection -> id -> encoded fields
type fileData map[string]map[string]json.RawMessage

// Store implements docstore.Client on top of one JSON file.
type Store struct {
	mu   sync.Mutex
	path string
}

var _ docstore.Client = (*Store)(nil)

// New returns a store writing to path, or DefaultFileName in the working directory.
func New(path string) (*Store, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getwd: %w", err)
		}
		path = filepath.Join(wd, DefaultFileName)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	return &Store{path: path}, nil
}

// Path is the backing file.
func (s *Store) Path() string { return s.path }

func (s *Store) load() (fileData, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileData{}, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	data := fileData{}
	if len(b) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return data, nil
}

func (s *Store) save(data fileData) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", docstore.Wrap("create", collection, "", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return "", docstore.Wrap("create", collection, "", err)
	}
	enc, err := docstore.EncodeFields(fields)
	if err != nil {
		return "", docstore.Wrap("create", collection, "", err)
	}
	if data[collection] == nil {
		data[collection] = map[string]json.RawMessage{}
	}
	id := ulid.Make().String()
	data[collection][id] = enc
	if err := s.save(data); err != nil {
		return "", docstore.Wrap("create", collection, id, err)
	}
	return id, nil
}

func (s *Store) ListOrderedBy(ctx context.Context, collection, field string, dir docstore.Direction) ([]docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, docstore.Wrap("list", collection, "", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return nil, docstore.Wrap("list", collection, "", err)
	}
	docs := make([]docstore.Document, 0, len(data[collection]))
	for id, raw := range data[collection] {
		f, err := docstore.DecodeFields(raw)
		if err != nil {
			return nil, docstore.Wrap("list", collection, id, err)
		}
		docs = append(docs, docstore.Document{ID: id, Fields: f})
	}
	return docstore.SortDocuments(docs, field, dir), nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields docstore.Fields) error {
	if err := ctx.Err(); err != nil {
		return docstore.Wrap("update", collection, id, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return docstore.Wrap("update", collection, id, err)
	}
	raw, ok := data[collection][id]
	if !ok {
		return docstore.Wrap("update", collection, id, docstore.ErrNotFound)
	}
	cur, err := docstore.DecodeFields(raw)
	if err != nil {
		return docstore.Wrap("update", collection, id, err)
	}
	cur.Merge(fields)
	enc, err := docstore.EncodeFields(cur)
	if err != nil {
		return docstore.Wrap("update", collection, id, err)
	}
	data[collection][id] = enc
	return docstore.Wrap("update", collection, id, s.save(data))
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return docstore.Wrap("delete", collection, id, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return docstore.Wrap("delete", collection, id, err)
	}
	if _, ok := data[collection][id]; !ok {
		return nil
	}
	delete(data[collection], id)
	return docstore.Wrap("delete", collection, id, s.save(data))
}

func (s *Store) Close() error { return nil }
