package images

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/diary/internal/common"
)

// encodedSeparator is how storage providers such as Firebase encode the
// '/' of an object path inside download URLs.
const encodedSeparator = "%2F"

// extension maps a MIME hint to a file extension: the subtype, with
// "jpeg" spelled "jpg". An empty or malformed hint yields "jpg".
func extension(mimeHint string) string {
	mimeHint = strings.TrimSpace(strings.ToLower(mimeHint))
	if i := strings.IndexByte(mimeHint, ';'); i >= 0 {
		mimeHint = mimeHint[:i]
	}
	_, sub, ok := strings.Cut(mimeHint, "/")
	if !ok || sub == "" {
		return "jpg"
	}
	if sub == "jpeg" {
		return "jpg"
	}
	return sub
}

func localName(localPath string) string {
	base := filepath.Base(localPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// RemotePathFromURL recovers the canonical remote path of an image from a
// download URL previously issued for it.
//
// URLs with an encoded object path (".../o/images%2Fu1%2Fname.jpg?alt=media")
// are split on the encoded separator and the third segment is taken. Other
// URLs fall back to the last path segment. Either way the name is
// re-prefixed with images/{owner}/. It returns "" when no name is found.
func RemotePathFromURL(rawURL, owner string) string {
	var name string

	if parts := strings.Split(rawURL, encodedSeparator); len(parts) >= 3 {
		name = parts[2]
		if i := strings.IndexByte(name, '?'); i >= 0 {
			name = name[:i]
		}
	} else if u, err := url.Parse(rawURL); err == nil {
		name = path.Base(u.Path)
		if name == "/" || name == "." {
			name = ""
		}
	}

	if name == "" {
		return ""
	}
	return path.Join(common.ImagesRoot, owner, name)
}
