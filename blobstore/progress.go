/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package blobstore

import (
	"context"
	"errors"
	"io"
	"sync"
)

// State is the state reported with an upload progress event.
type State string

const (
	StateRunning  State = "running"
	StateSuccess  State = "success"
	StateCanceled State = "canceled"
	StateError    State = "error"
)

// Progress is one upload progress event.
type Progress struct {
	// Fraction is TransferredBytes / TotalBytes, or 1 for an empty payload.
	Fraction         float64
	TransferredBytes int64
	TotalBytes       int64
	State            State
}

// NewProgress builds an event for transferred of total bytes.
func NewProgress(transferred, total int64, state State) Progress {
	fraction := 1.0
	if total > 0 {
		fraction = float64(transferred) / float64(total)
	}
	return Progress{Fraction: fraction, TransferredBytes: transferred, TotalBytes: total, State: state}
}

// DefaultChunkSize is the read size between progress events.
const DefaultChunkSize = 32 * 1024

// ProgressReader reads a payload in chunks, reporting each one. It is seekable so
// that an SDK can rewind it after hashing the body or for a retried request.
// Reported counts never go back: reads that cover bytes already reported after a
// rewind emit no event.
type ProgressReader struct {
	ctx        context.Context
	data       []byte
	offset     int64
	reported   int64
	chunkSize  int
	onProgress func(Progress)
	mu         sync.Mutex
}

// NewProgressReader wraps data. Reads fail with the context error once ctx is done.
func NewProgressReader(ctx context.Context, data []byte, onProgress func(Progress)) *ProgressReader {
	return &ProgressReader{ctx: ctx, data: data, chunkSize: DefaultChunkSize, onProgress: onProgress}
}

// Len returns the total payload size.
func (r *ProgressReader) Len() int64 {
	return int64(len(r.data))
}

func (r *ProgressReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	if r.offset >= int64(len(r.data)) {
		r.mu.Unlock()
		return 0, io.EOF
	}
	if len(p) > r.chunkSize {
		p = p[:r.chunkSize]
	}
	n := copy(p, r.data[r.offset:])
	r.offset += int64(n)
	advanced := r.offset > r.reported
	if advanced {
		r.reported = r.offset
	}
	event := NewProgress(r.offset, int64(len(r.data)), StateRunning)
	r.mu.Unlock()

	if advanced && r.onProgress != nil {
		r.onProgress(event)
	}
	return n, nil
}

func (r *ProgressReader) Seek(offset int64, whence int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = r.offset + offset
	case io.SeekEnd:
		abs = int64(len(r.data)) + offset
	default:
		return 0, errors.New("blobstore: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("blobstore: negative position")
	}
	r.offset = abs
	return abs, nil
}

// WriteTo copies the remaining payload to w one chunk at a time.
func (r *ProgressReader) WriteTo(w io.Writer) (int64, error) {
	buf := make([]byte, r.chunkSize)
	var written int64
	for {
		n, err := r.Read(buf)
		if n > 0 {
			m, werr := w.Write(buf[:n])
			written += int64(m)
			if werr != nil {
				return written, werr
			}
		}
		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, err
		}
	}
}

// Transfer copies data to w through a ProgressReader.
func Transfer(ctx context.Context, w io.Writer, data []byte, onProgress func(Progress)) error {
	_, err := io.Copy(w, NewProgressReader(ctx, data, onProgress))
	return err
}
