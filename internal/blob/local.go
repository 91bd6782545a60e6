package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
)

// MediaPrefix is the URL path local objects are served under.
const MediaPrefix = "/media/"

// Local writes objects to a directory on disk.
type Local struct {
	root    string
	baseURL string
}

// NewLocal creates root if needed and returns a store whose URLs start with
// publicBaseURL followed by MediaPrefix.
func NewLocal(root, publicBaseURL string) (*Local, error) {
	if root == "" {
		return nil, errors.New("storage directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Local{root: root, baseURL: publicBaseURL}, nil
}

// Put writes the object under a new unique name.
func (l *Local) Put(ctx context.Context, obj Object) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}

	name := objectName(obj.Filename)
	if err := os.WriteFile(filepath.Join(l.root, name), obj.Data, 0o644); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	return joinURL(l.baseURL, "media", name), nil
}

// Delete removes the file behind url. Deleting a missing file is not an error.
func (l *Local) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name, err := nameFromURL(url, joinURL(l.baseURL, "media", ""))
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(l.root, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

// Handler serves stored files below MediaPrefix.
func (l *Local) Handler() http.Handler {
	return http.StripPrefix(MediaPrefix, http.FileServer(http.Dir(l.root)))
}
