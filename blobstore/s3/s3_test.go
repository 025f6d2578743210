/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package s3

import (
	"context"
	"crypto/sha256"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	sdk "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/suparena/estatestore/blobstore"
	"github.com/suparena/estatestore/errors"
)

type fakeS3 struct {
	objects map[string][]byte
	deletes int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

// PutObject reads the body twice, hashing it first and rewinding, as the SDK does
// for signed payloads.
func (f *fakeS3) PutObject(ctx context.Context, in *sdk.PutObjectInput, _ ...func(*sdk.Options)) (*sdk.PutObjectOutput, error) {
	if _, err := io.Copy(sha256.New(), in.Body); err != nil {
		return nil, err
	}
	if seeker, ok := in.Body.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	return &sdk.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *sdk.HeadObjectInput, _ ...func(*sdk.Options)) (*sdk.HeadObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &sdk.HeadObjectOutput{ContentLength: aws.Int64(int64(len(data)))}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *sdk.DeleteObjectInput, _ ...func(*sdk.Options)) (*sdk.DeleteObjectOutput, error) {
	f.deletes++
	delete(f.objects, aws.ToString(in.Key))
	return &sdk.DeleteObjectOutput{}, nil
}

type fakePresigner struct {
	expires time.Duration
}

func (p *fakePresigner) PresignGetObject(ctx context.Context, in *sdk.GetObjectInput, optFns ...func(*sdk.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	var opts sdk.PresignOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	p.expires = opts.Expires
	return &v4.PresignedHTTPRequest{
		URL:    "https://" + aws.ToString(in.Bucket) + ".s3.amazonaws.com/" + aws.ToString(in.Key) + "?X-Amz-Signature=sig",
		Method: http.MethodGet,
	}, nil
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	api := newFakeS3()
	presigner := &fakePresigner{}
	store, err := New(api, presigner, Config{Bucket: "estate-files"}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var events []blobstore.Progress
	if err := store.Put(ctx, "/proprietes/p1/photo.jpg", []byte("jpeg-bytes"), func(p blobstore.Progress) { events = append(events, p) }); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if string(api.objects["proprietes/p1/photo.jpg"]) != "jpeg-bytes" {
		t.Fatalf("Unexpected stored objects %v", api.objects)
	}
	if len(events) != 1 || events[0].Fraction != 1 {
		t.Fatalf("Expected a single event at 100%% despite the rewind, got %+v", events)
	}

	url, err := store.URL(ctx, "proprietes/p1/photo.jpg")
	if err != nil {
		t.Fatalf("URL failed: %v", err)
	}
	if url != "https://estate-files.s3.amazonaws.com/proprietes/p1/photo.jpg?X-Amz-Signature=sig" {
		t.Fatalf("Unexpected URL %q", url)
	}
	if presigner.expires != DefaultURLExpiry {
		t.Fatalf("Expected default expiry, got %v", presigner.expires)
	}

	if err := store.Delete(ctx, "proprietes/p1/photo.jpg"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, "proprietes/p1/photo.jpg"); !errors.IsNotFound(err) {
		t.Fatalf("Expected NotFound on second delete, got %v", err)
	}
	if api.deletes != 1 {
		t.Fatalf("Expected DeleteObject to be called once, got %d", api.deletes)
	}
	if _, err := store.URL(ctx, "proprietes/p1/photo.jpg"); !errors.IsNotFound(err) {
		t.Fatalf("Expected NotFound URL, got %v", err)
	}
}

func TestS3StorePublicURL(t *testing.T) {
	api := newFakeS3()
	store, err := New(api, nil, Config{Bucket: "estate-files", PublicBaseURL: "https://cdn.example.com/"}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	api.objects["a/b.png"] = []byte("png")
	url, err := store.URL(context.Background(), "a/b.png")
	if err != nil || url != "https://cdn.example.com/a/b.png" {
		t.Fatalf("Unexpected URL %q, %v", url, err)
	}

	if _, err := New(api, nil, Config{Bucket: "estate-files"}, nil); err == nil {
		t.Fatal("Expected an error without presigner or public URL")
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&types.NotFound{}, true},
		{&types.NoSuchKey{}, true},
		{&smithy.GenericAPIError{Code: "NoSuchKey"}, true},
		{&smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{io.EOF, false},
	}
	for _, tt := range tests {
		if got := isNotFound(tt.err); got != tt.want {
			t.Fatalf("isNotFound(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
