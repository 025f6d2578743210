/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package s3 stores blobs in an S3 bucket.
package s3

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sdk "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/suparena/estatestore/blobstore"
	"github.com/suparena/estatestore/errors"
)

// DefaultURLExpiry is the lifetime of presigned URLs.
const DefaultURLExpiry = 7 * 24 * time.Hour

// API is the subset of the S3 client used by Store. *s3.Client satisfies it.
type API interface {
	PutObject(ctx context.Context, params *sdk.PutObjectInput, optFns ...func(*sdk.Options)) (*sdk.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *sdk.HeadObjectInput, optFns ...func(*sdk.Options)) (*sdk.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *sdk.DeleteObjectInput, optFns ...func(*sdk.Options)) (*sdk.DeleteObjectOutput, error)
}

// Presigner signs GET requests. *s3.PresignClient satisfies it.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *sdk.GetObjectInput, optFns ...func(*sdk.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Config holds the settings for NewClient and New.
type Config struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	// Endpoint overrides the service endpoint, e.g. for MinIO.
	Endpoint     string
	UsePathStyle bool
	// PublicBaseURL, when set, replaces presigned URLs with PublicBaseURL/<path>.
	PublicBaseURL string
	URLExpiry     time.Duration
}

// Store implements blobstore.BlobStore on S3.
type Store struct {
	client    API
	presigner Presigner
	bucket    string
	publicURL string
	expiry    time.Duration
	logger    *slog.Logger
}

var _ blobstore.BlobStore = (*Store)(nil)

// NewClient initializes an S3 client. Static credentials are used when both keys
// are set; otherwise the default credential chain applies.
func NewClient(ctx context.Context, cfg Config) (*sdk.Client, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return sdk.NewFromConfig(awsCfg, func(o *sdk.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// Connect creates the client and the store.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(client, sdk.NewPresignClient(client), cfg, logger)
}

// New wraps existing clients. presigner may be nil when PublicBaseURL is set.
func New(client API, presigner Presigner, cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket required")
	}
	if presigner == nil && cfg.PublicBaseURL == "" {
		return nil, fmt.Errorf("a presigner or a public base URL is required")
	}
	if cfg.URLExpiry <= 0 {
		cfg.URLExpiry = DefaultURLExpiry
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{
		client:    client,
		presigner: presigner,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		expiry:    cfg.URLExpiry,
		logger:    logger.With("component", "blobstore.s3"),
	}, nil
}

// isNotFound recognizes the missing-object errors of HeadObject and GetObject.
func isNotFound(err error) bool {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	if stderrors.As(err, &nf) || stderrors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

// Put uploads data with a seekable progress reader.
func (s *Store) Put(ctx context.Context, path string, data []byte, onProgress func(blobstore.Progress)) error {
	key, err := blobstore.CleanPath(path)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &sdk.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          blobstore.NewProgressReader(ctx, data, onProgress),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(http.DetectContentType(data)),
	})
	if err != nil {
		return fmt.Errorf("PutObject failed: %w", err)
	}
	s.logger.Debug("uploaded object", "key", key, "size", len(data))
	return nil
}

func (s *Store) head(ctx context.Context, key string) error {
	_, err := s.client.HeadObject(ctx, &sdk.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return errors.NewNotFoundError("blob", key)
		}
		return fmt.Errorf("HeadObject failed: %w", err)
	}
	return nil
}

// URL checks that the object exists, then returns its public or presigned URL.
func (s *Store) URL(ctx context.Context, path string) (string, error) {
	key, err := blobstore.CleanPath(path)
	if err != nil {
		return "", err
	}
	if err := s.head(ctx, key); err != nil {
		return "", err
	}
	if s.publicURL != "" {
		return s.publicURL + "/" + key, nil
	}
	req, err := s.presigner.PresignGetObject(ctx, &sdk.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, sdk.WithPresignExpires(s.expiry))
	if err != nil {
		return "", fmt.Errorf("PresignGetObject failed: %w", err)
	}
	return req.URL, nil
}

// Delete removes the object. S3 deletes succeed on missing keys, so the object is
// looked up first to report a NotFoundError.
func (s *Store) Delete(ctx context.Context, path string) error {
	key, err := blobstore.CleanPath(path)
	if err != nil {
		return err
	}
	if err := s.head(ctx, key); err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &sdk.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("DeleteObject failed: %w", err)
	}
	return nil
}
