package models

// Image is a picture attached to an entry being edited.
type Image struct {
	// LocalPath is where the image bytes live on this device.
	LocalPath string
	// RemotePath is the blob storage key, images/{owner}/{name}.
	RemotePath string

	// PendingUpload is set for images attached in this session.
	PendingUpload bool
	// PendingDelete is set for remote images the user removed.
	PendingDelete bool

	// Index is the position in the entry's image list; -1 for new images.
	Index int
}
