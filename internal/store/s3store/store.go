// Package s3store keeps each document as a JSON object in an S3-compatible
// bucket (AWS S3 or MinIO): <prefix><collection>/<id>.json.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/oklog/ulid/v2"

	"github.com/Makepad-fr/tadasync/internal/store/docstore"
)

// Config holds explicit construction parameters.
type Config struct {
	Bucket          string
	Region          string // default us-east-1
	Endpoint        string // optional, e.g. MinIO
	Prefix          string // optional key prefix
	PathStyle       bool
	AccessKeyID     string // optional, falls back to the default chain
	SecretAccessKey string
	SessionToken    string
	HTTPClient      *http.Client // optional, tests inject a fake transport
}

// Store implements docstore.Client on S3.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
}

var _ docstore.Client = (*Store)(nil)

// New builds a store from cfg.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// checksums only where the operation requires them
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		}
		if cfg.HTTPClient != nil {
			o.HTTPClient = cfg.HTTPClient
		}
	})
	return &Store{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *Store) dir(collection string) string { return s.prefix + collection + "/" }

func (s *Store) key(collection, id string) string { return s.dir(collection) + id + ".json" }

func (s *Store) put(ctx context.Context, collection, id string, fields docstore.Fields) error {
	enc, err := docstore.EncodeFields(fields)
	if err != nil {
		return err
	}
	key := s.key(collection, id)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        bytes.NewReader(enc),
		ContentType: aws.String("application/json"),
	})
	return err
}

func (s *Store) get(ctx context.Context, key string) (docstore.Fields, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		if isNotFound(err) {
			return nil, docstore.ErrNotFound
		}
		return nil, err
	}
	defer func() { _ = out.Body.Close() }()
	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	return docstore.DecodeFields(b)
}

func (s *Store) Create(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	id := ulid.Make().String()
	if err := s.put(ctx, collection, id, fields); err != nil {
		return "", docstore.Wrap("create", collection, id, err)
	}
	return id, nil
}

func (s *Store) ListOrderedBy(ctx context.Context, collection, field string, dir docstore.Direction) ([]docstore.Document, error) {
	prefix := s.dir(collection)
	var docs []docstore.Document
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{Bucket: &s.bucket, Prefix: &prefix, ContinuationToken: token})
		if err != nil {
			return nil, docstore.Wrap("list", collection, "", err)
		}
		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			id := strings.TrimSuffix(strings.TrimPrefix(key, prefix), ".json")
			if id == "" || strings.Contains(id, "/") {
				continue
			}
			f, err := s.get(ctx, key)
			if err != nil {
				if errors.Is(err, docstore.ErrNotFound) {
					// deleted between list and get
					continue
				}
				return nil, docstore.Wrap("list", collection, id, err)
			}
			docs = append(docs, docstore.Document{ID: id, Fields: f})
		}
		if aws.ToBool(out.IsTruncated) && out.NextContinuationToken != nil {
			token = out.NextContinuationToken
			continue
		}
		break
	}
	return docstore.SortDocuments(docs, field, dir), nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields docstore.Fields) error {
	cur, err := s.get(ctx, s.key(collection, id))
	if err != nil {
		return docstore.Wrap("update", collection, id, err)
	}
	cur.Merge(fields)
	return docstore.Wrap("update", collection, id, s.put(ctx, collection, id, cur))
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	key := s.key(collection, id)
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil && isNotFound(err) {
		return nil
	}
	return docstore.Wrap("delete", collection, id, err)
}

func (s *Store) Close() error { return nil }

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var re *awshttp.ResponseError
	return errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound
}
