/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package estatestore

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/docker/go-units"

	"github.com/suparena/estatestore/blobstore"
	"github.com/suparena/estatestore/errors"
)

// UploadTask is a running upload. Wait resolves to the retrieval URL.
type UploadTask struct {
	path   string
	total  int64
	cancel context.CancelFunc
	done   chan struct{}

	// reportMu serializes progress callbacks
	reportMu   sync.Mutex
	onProgress func(blobstore.Progress)

	mu   sync.Mutex
	last blobstore.Progress
	url  string
	err  error
}

// Path returns the cleaned blob path.
func (t *UploadTask) Path() string {
	return t.path
}

// Done is closed when the upload has finished, successfully or not.
func (t *UploadTask) Done() <-chan struct{} {
	return t.done
}

// Cancel aborts the upload. It does nothing once the upload has finished.
func (t *UploadTask) Cancel() {
	t.cancel()
}

// Snapshot returns the last progress event.
func (t *UploadTask) Snapshot() blobstore.Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// Wait blocks until the upload finishes or ctx is done and returns the URL.
func (t *UploadTask) Wait(ctx context.Context) (string, error) {
	select {
	case <-t.done:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.url, t.err
}

func (t *UploadTask) report(p blobstore.Progress) {
	t.mu.Lock()
	t.last = p
	t.mu.Unlock()

	if t.onProgress == nil {
		return
	}
	t.reportMu.Lock()
	defer t.reportMu.Unlock()
	t.onProgress(p)
}

func (t *UploadTask) finish(url string, err error) {
	t.mu.Lock()
	t.url, t.err = url, err
	t.mu.Unlock()
	close(t.done)
}

func (f *Facade) validateUpload(path string, data []byte) (string, error) {
	if err := requireString("path", path); err != nil {
		return "", err
	}
	key, err := blobstore.CleanPath(path)
	if err != nil {
		return "", err
	}
	if data == nil {
		return "", errors.NewValidationError("data", "a binary payload is required")
	}
	if f.maxUploadSize > 0 && int64(len(data)) > f.maxUploadSize {
		return "", errors.NewValidationError("data", fmt.Sprintf("payload of %s exceeds the %s limit",
			units.BytesSize(float64(len(data))), units.BytesSize(float64(f.maxUploadSize))))
	}
	return key, nil
}

// UploadFileWithProgress starts uploading data to path and returns the running
// task. onProgress, when set, sees the byte counts as they are sent, never
// decreasing even when the backend rewinds the body, and always a
// final event: a 100% success event before Wait resolves with the URL, or a
// canceled or error event.
func (f *Facade) UploadFileWithProgress(ctx context.Context, path string, data []byte, onProgress func(blobstore.Progress)) (*UploadTask, error) {
	key, err := f.validateUpload(path, data)
	if err != nil {
		return nil, err
	}

	taskCtx, cancel := context.WithCancel(ctx)
	task := &UploadTask{
		path:       key,
		total:      int64(len(data)),
		cancel:     cancel,
		done:       make(chan struct{}),
		onProgress: onProgress,
	}
	task.last = blobstore.NewProgress(0, task.total, blobstore.StateRunning)

	go func() {
		defer cancel()

		err := f.blobs.Put(taskCtx, key, data, task.report)
		var url string
		if err == nil {
			url, err = f.blobs.URL(taskCtx, key)
		}

		switch {
		case err == nil:
			task.report(blobstore.NewProgress(task.total, task.total, blobstore.StateSuccess))
			task.finish(url, nil)
		case taskCtx.Err() != nil && stderrors.Is(err, context.Canceled):
			task.report(blobstore.NewProgress(task.Snapshot().TransferredBytes, task.total, blobstore.StateCanceled))
			task.finish("", errors.NewStoreError("uploadFile", err))
		default:
			f.logger.Warn("upload failed", "path", key, "error", err)
			task.report(blobstore.NewProgress(task.Snapshot().TransferredBytes, task.total, blobstore.StateError))
			task.finish("", errors.NewStoreError("uploadFile", err))
		}
	}()
	return task, nil
}

// UploadFile uploads data to path and returns its URL once the upload is complete.
func (f *Facade) UploadFile(ctx context.Context, path string, data []byte) (string, error) {
	task, err := f.UploadFileWithProgress(ctx, path, data, nil)
	if err != nil {
		return "", err
	}
	return task.Wait(ctx)
}

// GetFileURL returns the retrieval URL of the blob at path.
func (f *Facade) GetFileURL(ctx context.Context, path string) (string, error) {
	if err := requireString("path", path); err != nil {
		return "", err
	}
	key, err := blobstore.CleanPath(path)
	if err != nil {
		return "", err
	}
	url, err := f.blobs.URL(ctx, key)
	if err != nil {
		return "", errors.NewStoreError("getFileURL", err)
	}
	return url, nil
}

// DeleteFile removes the blob at path. A missing blob is an error, a StoreError
// wrapping a NotFoundError.
func (f *Facade) DeleteFile(ctx context.Context, path string) error {
	if err := requireString("path", path); err != nil {
		return err
	}
	key, err := blobstore.CleanPath(path)
	if err != nil {
		return err
	}
	if err := f.blobs.Delete(ctx, key); err != nil {
		return errors.NewStoreError("deleteFile", err)
	}
	return nil
}
