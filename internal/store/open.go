// Package store picks and constructs the configured document store backend.
package store

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/golang/glog"

	"github.com/Makepad-fr/tadasync/internal/config"
	"github.com/Makepad-fr/tadasync/internal/store/docstore"
	"github.com/Makepad-fr/tadasync/internal/store/firestore"
	"github.com/Makepad-fr/tadasync/internal/store/jsonstore"
	"github.com/Makepad-fr/tadasync/internal/store/memstore"
	"github.com/Makepad-fr/tadasync/internal/store/s3store"
	"github.com/Makepad-fr/tadasync/internal/store/sqlstore"
)

// Open validates cfg and returns a connected client. Missing parameters fail here,
// before any UI starts. A non-nil metrics set instruments the client.
func Open(ctx context.Context, cfg config.Config, metrics *docstore.Metrics) (docstore.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c, err := open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	glog.Infof("[store] driver=%s collection=%s", cfg.Driver, cfg.Collection)
	if metrics != nil {
		c = docstore.Instrument(c, metrics)
	}
	return c, nil
}

func open(ctx context.Context, cfg config.Config) (docstore.Client, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memstore.New(), nil
	case config.DriverFile:
		return jsonstore.New(cfg.Path)
	case config.DriverSQLite:
		path := cfg.Path
		if path == "" {
			dir, err := config.Dir()
			if err != nil {
				return nil, err
			}
			path = filepath.Join(dir, "tada.db")
		}
		return sqlstore.Open(ctx, sqlstore.Config{Dialect: "sqlite", DSN: path})
	case config.DriverPostgres, config.DriverMySQL:
		return sqlstore.Open(ctx, sqlstore.Config{Dialect: cfg.Driver, DSN: cfg.DSN})
	case config.DriverS3:
		return s3store.New(ctx, s3store.Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			Prefix:    cfg.S3.Prefix,
			PathStyle: cfg.S3.PathStyle,
		})
	case config.DriverFirestore:
		return firestore.New(ctx, firestore.Config{
			ProjectID:       cfg.Firebase.ProjectID,
			APIKey:          cfg.Firebase.APIKey,
			CredentialsFile: cfg.Firebase.Credentials,
			DatabaseID:      cfg.Firebase.DatabaseID,
		})
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
