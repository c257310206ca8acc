package models

import "time"

// PendingUpload records an image upload that started but has not been
// confirmed. SessionToken resumes the upload.
type PendingUpload struct {
	RemotePath   string
	LocalPath    string
	SessionToken string
	CreatedAt    time.Time
}

// PendingDelete records a remote image delete that failed and must be
// retried.
type PendingDelete struct {
	RemotePath string
	CreatedAt  time.Time
}
