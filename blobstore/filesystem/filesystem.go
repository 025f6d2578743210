/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package filesystem stores blobs as files under a base directory.
package filesystem

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/suparena/estatestore/blobstore"
	"github.com/suparena/estatestore/errors"
)

// Store maps blob paths to files under basePath.
type Store struct {
	basePath string
	baseURL  string
	logger   *slog.Logger
}

var _ blobstore.BlobStore = (*Store)(nil)

// New resolves basePath and creates it. URLs are file:// URLs unless baseURL is
// set, in which case the blob path is appended to it.
func New(basePath, baseURL string, logger *slog.Logger) (*Store, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base_path required")
	}
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve base_path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("create base_path: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{
		basePath: absPath,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		logger:   logger.With("component", "blobstore.filesystem"),
	}, nil
}

func (s *Store) fullPath(path string) (string, string, error) {
	key, err := blobstore.CleanPath(path)
	if err != nil {
		return "", "", err
	}
	full := filepath.Join(s.basePath, filepath.FromSlash(key))
	if !strings.HasPrefix(full, s.basePath+string(filepath.Separator)) {
		return "", "", errors.NewValidationError("path", "path escapes the storage root")
	}
	return key, full, nil
}

// Put writes a temp file next to the target and renames it into place.
func (s *Store) Put(ctx context.Context, path string, data []byte, onProgress func(blobstore.Progress)) error {
	_, full, err := s.fullPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), filepath.Base(full)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	err = blobstore.Transfer(ctx, tmp, data, onProgress)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, full); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func (s *Store) URL(ctx context.Context, path string) (string, error) {
	key, full, err := s.fullPath(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(full); err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return "", errors.NewNotFoundError("blob", key)
		}
		return "", fmt.Errorf("stat file: %w", err)
	}
	if s.baseURL != "" {
		return s.baseURL + "/" + key, nil
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(full)}).String(), nil
}

// Delete removes the file and any directories it leaves empty.
func (s *Store) Delete(ctx context.Context, path string) error {
	key, full, err := s.fullPath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return errors.NewNotFoundError("blob", key)
		}
		return fmt.Errorf("remove file: %w", err)
	}

	for dir := filepath.Dir(full); dir != s.basePath && strings.HasPrefix(dir, s.basePath); dir = filepath.Dir(dir) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			s.logger.Warn("failed to read directory for cleanup", "dir", dir, "error", err)
			break
		}
		if len(entries) > 0 {
			break
		}
		if err := os.Remove(dir); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("failed to remove empty directory", "dir", dir, "error", err)
			break
		}
	}
	return nil
}
