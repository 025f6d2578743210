/*
Package blobstore defines the storage contract for binary payloads addressed by
slash-delimited paths, and the progress reporting shared by its implementations.

Implementations:
  - memory: a map, serving memory://<bucket>/<path> URLs
  - filesystem: files under a base directory, written through a temp file and a rename
  - s3: objects in a bucket, with presigned or public URLs

Unlike document deletes, Delete on a missing path fails with a NotFoundError.

Uploads report progress through a ProgressReader:

	err := store.Put(ctx, "proprietes/p1/photo.jpg", data, func(p blobstore.Progress) {
	    log.Printf("%.0f%% (%d/%d)", p.Fraction*100, p.TransferredBytes, p.TotalBytes)
	})
*/
package blobstore
