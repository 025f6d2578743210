/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package bootstrap turns a finalized configuration into a ready facade.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/suparena/estatestore"
	"github.com/suparena/estatestore/auth"
	"github.com/suparena/estatestore/auth/identitytoolkit"
	authmemory "github.com/suparena/estatestore/auth/memory"
	"github.com/suparena/estatestore/blobstore"
	"github.com/suparena/estatestore/blobstore/filesystem"
	blobmemory "github.com/suparena/estatestore/blobstore/memory"
	"github.com/suparena/estatestore/blobstore/s3"
	"github.com/suparena/estatestore/config"
	"github.com/suparena/estatestore/datastore"
	"github.com/suparena/estatestore/datastore/ddb"
	"github.com/suparena/estatestore/datastore/firestore"
	"github.com/suparena/estatestore/datastore/memory"
	"github.com/suparena/estatestore/datastore/mongo"
	"github.com/suparena/estatestore/logging"
	"github.com/suparena/estatestore/storagemodels"
)

// Build connects every backend cfg selects and returns the facade over them.
// cfg must be finalized. A nil logger is built from cfg.Logging.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*estatestore.Facade, error) {
	if logger == nil {
		logger = logging.New(&cfg.Logging)
	}

	store, err := NewStore(ctx, &cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	blobs, err := NewBlobStore(ctx, &cfg.Blobs, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("blobs: %w", err)
	}
	provider, err := NewProvider(&cfg.Auth, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("auth: %w", err)
	}

	logger.Info("facade ready",
		"store", cfg.Store.Driver, "blobs", cfg.Blobs.Driver, "auth", cfg.Auth.Driver)

	return estatestore.New(store, blobs, provider,
		estatestore.WithLogger(logger),
		estatestore.WithMaxUploadSize(cfg.Blobs.MaxUploadSizeBytes()),
		estatestore.WithWatchOptions(storagemodels.WithPollInterval(cfg.Store.PollIntervalDuration())),
	), nil
}

// NewStore connects the configured document store.
func NewStore(ctx context.Context, cfg *config.StoreConfig, logger *slog.Logger) (datastore.DocumentStore, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.New().WithMaxAttempts(cfg.MaxAttempts).WithLogger(logger), nil
	case config.DriverDynamoDB:
		return ddb.NewDynamodbStore(ctx, ddb.ClientConfig{
			AccessKey: cfg.DynamoDB.AccessKey,
			SecretKey: cfg.DynamoDB.SecretKey,
			Region:    cfg.DynamoDB.Region,
			Endpoint:  cfg.DynamoDB.Endpoint,
		}, cfg.DynamoDB.Table, ddb.WithMaxAttempts(cfg.MaxAttempts), ddb.WithLogger(logger))
	case config.DriverFirestore:
		return firestore.Connect(ctx, firestore.Config{
			ProjectID:       cfg.Firestore.ProjectID,
			CredentialsFile: cfg.Firestore.CredentialsFile,
		}, firestore.WithMaxAttempts(cfg.MaxAttempts), firestore.WithLogger(logger))
	case config.DriverMongo:
		return mongo.Connect(ctx, mongo.Config{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Timeout:    cfg.Mongo.TimeoutDuration(),
			MaxElapsed: cfg.Mongo.MaxElapsedDuration(),
		}, mongo.WithMaxAttempts(cfg.MaxAttempts), mongo.WithLogger(logger))
	}
	return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
}

// NewBlobStore connects the configured blob store.
func NewBlobStore(ctx context.Context, cfg *config.BlobsConfig, logger *slog.Logger) (blobstore.BlobStore, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return blobmemory.New(cfg.Bucket), nil
	case config.DriverFilesystem:
		return filesystem.New(cfg.BasePath, cfg.BaseURL, logger)
	case config.DriverS3:
		return s3.Connect(ctx, s3.Config{
			Bucket:        cfg.Bucket,
			Region:        cfg.S3.Region,
			AccessKey:     cfg.S3.AccessKey,
			SecretKey:     cfg.S3.SecretKey,
			Endpoint:      cfg.S3.Endpoint,
			UsePathStyle:  cfg.S3.UsePathStyle,
			PublicBaseURL: cfg.S3.PublicBaseURL,
			URLExpiry:     cfg.S3.URLExpiryDuration(),
		}, logger)
	}
	return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
}

// NewProvider creates the configured identity provider.
func NewProvider(cfg *config.AuthConfig, logger *slog.Logger) (auth.Provider, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return authmemory.New(), nil
	case config.DriverIdentityToolkit:
		return identitytoolkit.New(identitytoolkit.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			TokenURL:   cfg.TokenURL,
			RequestURI: cfg.RequestURI,
			Logger:     logger,
		})
	}
	return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
}
