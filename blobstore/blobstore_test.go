/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package blobstore

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/suparena/estatestore/errors"
)

func TestCleanPath(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"proprietes/p1/photo.jpg", "proprietes/p1/photo.jpg", false},
		{"/contrats//c1.pdf", "contrats/c1.pdf", false},
		{`avatars\u1.png`, "avatars/u1.png", false},
		{"./docs/./a.txt", "docs/a.txt", false},
		{"", "", true},
		{"   ", "", true},
		{"/", "", true},
		{"../etc/passwd", "", true},
		{"a/../../b", "", true},
	}
	for _, tt := range tests {
		got, err := CleanPath(tt.in)
		if tt.wantErr {
			if !errors.IsValidationError(err) {
				t.Fatalf("CleanPath(%q): expected a validation error, got %q, %v", tt.in, got, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("CleanPath(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestProgressReader(t *testing.T) {
	data := bytes.Repeat([]byte("x"), DefaultChunkSize*2+10)

	t.Run("ReportsEveryChunk", func(t *testing.T) {
		var events []Progress
		var out bytes.Buffer
		if err := Transfer(context.Background(), &out, data, func(p Progress) { events = append(events, p) }); err != nil {
			t.Fatalf("Transfer failed: %v", err)
		}
		if !bytes.Equal(out.Bytes(), data) {
			t.Fatal("Payload was altered")
		}
		if len(events) != 3 {
			t.Fatalf("Expected 3 events, got %d", len(events))
		}
		last := events[len(events)-1]
		if last.Fraction != 1 || last.TransferredBytes != int64(len(data)) || last.TotalBytes != int64(len(data)) {
			t.Fatalf("Unexpected last event %+v", last)
		}
		for _, e := range events {
			if e.State != StateRunning {
				t.Fatalf("Expected running events, got %s", e.State)
			}
		}
	})

	t.Run("SeekRewinds", func(t *testing.T) {
		r := NewProgressReader(context.Background(), []byte("hello"), nil)
		if _, err := io.ReadAll(r); err != nil {
			t.Fatalf("ReadAll failed: %v", err)
		}
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			t.Fatalf("Seek failed: %v", err)
		}
		again, _ := io.ReadAll(r)
		if string(again) != "hello" {
			t.Fatalf("Expected hello after rewind, got %q", again)
		}
	})

	t.Run("RewindKeepsProgressMonotonic", func(t *testing.T) {
		var events []Progress
		r := NewProgressReader(context.Background(), data, func(p Progress) { events = append(events, p) })
		half := make([]byte, DefaultChunkSize)
		if _, err := r.Read(half); err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			t.Fatalf("Seek failed: %v", err)
		}
		again, err := io.ReadAll(r)
		if err != nil || !bytes.Equal(again, data) {
			t.Fatalf("Expected the full payload after rewind, got %d bytes, %v", len(again), err)
		}

		var last int64
		for _, e := range events {
			if e.TransferredBytes <= last {
				t.Fatalf("Progress went from %d to %d", last, e.TransferredBytes)
			}
			last = e.TransferredBytes
		}
		if last != int64(len(data)) {
			t.Fatalf("Expected progress to end at %d, got %d", len(data), last)
		}
	})

	t.Run("StopsOnCancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := Transfer(ctx, io.Discard, data, nil)
		if err != context.Canceled {
			t.Fatalf("Expected context.Canceled, got %v", err)
		}
	})

	t.Run("EmptyPayload", func(t *testing.T) {
		p := NewProgress(0, 0, StateSuccess)
		if p.Fraction != 1 {
			t.Fatalf("Expected fraction 1 for an empty payload, got %v", p.Fraction)
		}
	})
}
