package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

var (
	// ErrNotFound means the referenced file or folder does not exist.
	ErrNotFound = errors.New("file or folder not found")
	// ErrFolderExists means a folder create hit an existing folder.
	ErrFolderExists = errors.New("folder already exists")
	// ErrPathTraversal means a request path escapes the storage root.
	ErrPathTraversal = errors.New("path escapes storage root")
)

// Listing is the result of browsing a folder.
type Listing struct {
	Folders []string `json:"folders"`
	Files   []string `json:"files"`
}

// Object is a fetched file. Exactly one of Body or RedirectURL is set:
// the local backend streams bytes, the s3 backend hands out a provider URL.
type Object struct {
	Name        string
	Size        int64
	ContentType string
	Body        io.ReadCloser
	RedirectURL string
}

// SearchHit pairs a display name with the folder it lives in.
type SearchHit struct {
	File   string `json:"file"`
	Folder string `json:"folder"`
}

// Provider abstracts the storage backend. Both implementations satisfy the
// identical contract and are swappable via configuration. Names passed in
// and returned are display names; each backend applies the active filename
// codec when deriving storage identifiers.
type Provider interface {
	// Put stores bytes under folder/name and returns a locator for the
	// stored object (a relative path or a provider URL).
	Put(ctx context.Context, folder, name string, r io.Reader, size int64) (string, error)

	// List returns the subfolder and file display names directly under folder.
	List(ctx context.Context, folder string) (*Listing, error)

	// Fetch retrieves a file for download.
	Fetch(ctx context.Context, folder, name string) (*Object, error)

	// Rename changes a file's display name within its folder.
	Rename(ctx context.Context, folder, oldName, newName string) error

	// Delete removes a single file.
	Delete(ctx context.Context, folder, name string) error

	// CreateFolder creates folder `name` under `parent`; ErrFolderExists if present.
	CreateFolder(ctx context.Context, parent, name string) error

	// DeleteFolder removes a folder and everything under it.
	DeleteFolder(ctx context.Context, folder string) error

	// Search matches keyword as a case-insensitive substring of display
	// names, recursively under the storage root.
	Search(ctx context.Context, keyword string) ([]SearchHit, error)
}

// cleanFolder normalizes a client-supplied folder path to a clean relative
// form ("" for the root) and rejects traversal attempts.
func cleanFolder(folder string) (string, error) {
	trimmed := strings.Trim(folder, "/")
	if trimmed == "" {
		return "", nil
	}
	cleaned := path.Clean(trimmed)
	if cleaned == "." {
		return "", nil
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrPathTraversal
	}
	return cleaned, nil
}

// cleanName validates a single path segment used as a file or folder name.
func cleanName(name string) (string, error) {
	if name == "" || name == "." || name == ".." {
		return "", ErrPathTraversal
	}
	if strings.ContainsAny(name, "/\\") {
		return "", ErrPathTraversal
	}
	return name, nil
}
