/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package blobstore

import (
	"context"
	"path"
	"strings"

	"github.com/suparena/estatestore/errors"
)

// BlobStore stores byte payloads under slash-delimited paths.
type BlobStore interface {
	// Put stores data at path, replacing any previous payload. onProgress may be
	// nil; when set it receives running events while bytes are transferred.
	Put(ctx context.Context, path string, data []byte, onProgress func(Progress)) error

	// URL returns a retrieval URL for path. It returns a NotFoundError when no
	// payload is stored there.
	URL(ctx context.Context, path string) (string, error)

	// Delete removes the payload at path. Deleting a missing path returns a
	// NotFoundError.
	Delete(ctx context.Context, path string) error
}

// CleanPath normalizes a blob path: slash separators, no leading slash, no
// traversal outside the root.
func CleanPath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", errors.NewValidationError("path", "path is required")
	}
	p = strings.ReplaceAll(p, "\\", "/")
	cleaned := strings.TrimPrefix(path.Clean("/"+p), "/")
	if cleaned == "" || cleaned == "." {
		return "", errors.NewValidationError("path", "path names no file")
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", errors.NewValidationError("path", "path must not contain '..'")
		}
	}
	return cleaned, nil
}
