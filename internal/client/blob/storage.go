// Package blob stores diary images in S3-compatible object storage.
//
// Uploads use S3 multipart uploads: the upload id doubles as the
// resumable session token, so an interrupted upload continues from the
// parts already stored.
package blob

import (
	"context"
	"io"
)

// Storage is path-addressed blob storage.
type Storage interface {
	// Upload sends localPath to key. A non-empty session resumes an
	// earlier upload of the same key.
	Upload(ctx context.Context, key, localPath, session string) *Transfer
	// Delete removes key. A missing object is not an error.
	Delete(ctx context.Context, key string) error
	// Download writes the object at key to w. A missing object yields
	// common.ErrNotFound.
	Download(ctx context.Context, key string, w io.Writer) error
	// DownloadURL returns a time-limited URL for key.
	DownloadURL(ctx context.Context, key string) (string, error)
}
