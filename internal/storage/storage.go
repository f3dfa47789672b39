package storage

import (
	"context"
	"path"
	"strings"
	"time"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// FileStorage defines the interface for object storage operations.
type FileStorage interface {
	// GeneratePresignedUploadURL creates a temporary URL that allows PUT requests
	// for uploading an object directly to the storage provider.
	GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error)

	// GeneratePresignedDownloadURL creates a temporary URL that allows GET requests
	// for downloading/viewing an object directly from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// DeleteObject removes an object from the storage provider.
	DeleteObject(ctx context.Context, objectKey string) error
}

// extensions maps accepted media content types to object key extensions.
var extensions = map[string]string{
	"video/mp4":       "mp4",
	"video/quicktime": "mov",
	"video/webm":      "webm",
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/webp":      "webp",
	"application/pdf": "pdf",
}

// ExtensionFor returns the object key extension for a supported content type.
func ExtensionFor(contentType string) (string, bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	ext, ok := extensions[ct]
	return ext, ok
}

// ItemObjectKey builds the key media for a program item is stored under:
// programs/<programId>/items/<itemId>/<name>.<ext>
func ItemObjectKey(programID, itemID, name, ext string) string {
	return path.Join("programs", programID, "items", itemID, name+"."+ext)
}

// HasItemPrefix reports whether key was issued for the given program item.
func HasItemPrefix(key, programID, itemID string) bool {
	prefix := path.Join("programs", programID, "items", itemID) + "/"
	return strings.HasPrefix(key, prefix) && !strings.Contains(key, "..")
}
