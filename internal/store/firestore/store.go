// Package firestore adapts Cloud Firestore to docstore.Client.
// FIRESTORE_EMULATOR_HOST is honored by the underlying client.
package firestore

import (
	"context"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Makepad-fr/tadasync/internal/store/docstore"
)

// Config carries the connection parameters of a Firebase project.
type Config struct {
	ProjectID       string
	APIKey          string
	CredentialsFile string // service account json, preferred over APIKey when set
	DatabaseID      string // optional, default database otherwise
}

// Store implements docstore.Client with a Firestore client.
type Store struct {
	client *firestore.Client
}

var _ docstore.Client = (*Store)(nil)

// New dials Firestore. Connection setup fails without a project id.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("firestore: project id required")
	}
	var opts []option.ClientOption
	switch {
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	var (
		client *firestore.Client
		err    error
	)
	if cfg.DatabaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, cfg.ProjectID, cfg.DatabaseID, opts...)
	} else {
		client, err = firestore.NewClient(ctx, cfg.ProjectID, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("firestore: new client: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Create(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	ref, _, err := s.client.Collection(collection).Add(ctx, map[string]any(fields))
	if err != nil {
		return "", docstore.Wrap("create", collection, "", err)
	}
	return ref.ID, nil
}

func (s *Store) ListOrderedBy(ctx context.Context, collection, field string, dir docstore.Direction) ([]docstore.Document, error) {
	fdir := firestore.Asc
	if dir == docstore.Desc {
		fdir = firestore.Desc
	}
	snaps, err := s.client.Collection(collection).OrderBy(field, fdir).Documents(ctx).GetAll()
	if err != nil {
		return nil, docstore.Wrap("list", collection, "", err)
	}
	docs := make([]docstore.Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, docstore.Document{ID: snap.Ref.ID, Fields: docstore.Fields(snap.Data())})
	}
	return docs, nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields docstore.Fields) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	updates := make([]firestore.Update, 0, len(keys))
	for _, k := range keys {
		updates = append(updates, firestore.Update{Path: k, Value: fields[k]})
	}
	_, err := s.client.Collection(collection).Doc(id).Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		err = docstore.ErrNotFound
	}
	return docstore.Wrap("update", collection, id, err)
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	_, err := s.client.Collection(collection).Doc(id).Delete(ctx)
	return docstore.Wrap("delete", collection, id, err)
}

func (s *Store) Close() error { return s.client.Close() }
