// Package blob stores uploaded images and hands back the public URL they are
// served from.
package blob

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrUpload wraps every failure to persist an object.
	ErrUpload = errors.New("image upload failed")
	// ErrForeignURL is returned when asked to delete a URL this store did not issue.
	ErrForeignURL = errors.New("url not managed by this store")
)

// Object is an uploaded file held in memory.
type Object struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Size reports the object length in bytes.
func (o Object) Size() int64 { return int64(len(o.Data)) }

// Store persists objects and releases them again by URL.
type Store interface {
	Put(ctx context.Context, obj Object) (string, error)
	Delete(ctx context.Context, url string) error
}

// objectName returns a fresh name that keeps the upload's extension.
func objectName(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return uuid.NewString() + ext
}

// nameFromURL extracts the object name from a URL issued under prefix.
func nameFromURL(url, prefix string) (string, error) {
	if !strings.HasPrefix(url, prefix) {
		return "", ErrForeignURL
	}
	name := strings.TrimPrefix(url, prefix)
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", ErrForeignURL
	}
	return name, nil
}

func joinURL(base string, parts ...string) string {
	base = strings.TrimRight(base, "/")
	return base + "/" + strings.Join(parts, "/")
}
