package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/filehub/api/src/naming"
	"github.com/sirupsen/logrus"
)

// LocalStore keeps managed files in a directory tree rooted at a fixed base
// directory. Folders are implicit: writing a file creates its parents.
type LocalStore struct {
	basePath string
	codec    naming.Codec
	logger   *logrus.Logger
}

// NewLocalStore initializes the backend and ensures the base path exists.
func NewLocalStore(basePath string, codec naming.Codec, logger *logrus.Logger) (*LocalStore, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path is required")
	}

	absBase, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve base path: %w", err)
	}
	if err := os.MkdirAll(absBase, 0o755); err != nil {
		return nil, fmt.Errorf("ensure base path: %w", err)
	}

	return &LocalStore{basePath: absBase, codec: codec, logger: logger}, nil
}

func (s *LocalStore) sanitizePath(rel string) (string, error) {
	if strings.Contains(rel, "..") {
		return "", ErrPathTraversal
	}
	// Prepend slash so Clean treats it as absolute, then trim to avoid breaking out.
	cleaned := filepath.Clean("/" + rel)
	trimmed := strings.TrimPrefix(cleaned, "/")
	full := filepath.Join(s.basePath, trimmed)

	abs, err := filepath.Abs(full)
	if err != nil {
		return "", err
	}
	if abs != s.basePath && !strings.HasPrefix(abs, s.basePath+string(os.PathSeparator)) {
		return "", ErrPathTraversal
	}
	return abs, nil
}

// filePath resolves folder + display name to the on-disk path of the
// encoded identifier.
func (s *LocalStore) filePath(folder, name string) (string, error) {
	folder, err := cleanFolder(folder)
	if err != nil {
		return "", err
	}
	name, err = cleanName(name)
	if err != nil {
		return "", err
	}
	return s.sanitizePath(filepath.Join(folder, naming.EncodeFilename(s.codec, name)))
}

func (s *LocalStore) Put(ctx context.Context, folder, name string, r io.Reader, size int64) (string, error) {
	target, err := s.filePath(folder, name)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create target dir: %w", err)
	}

	dest, err := os.Create(target)
	if err != nil {
		return "", err
	}
	defer dest.Close()

	if _, err := io.Copy(dest, r); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("write file: %w", err)
	}

	rel, err := filepath.Rel(s.basePath, target)
	if err != nil {
		rel = target
	}

	s.logger.WithFields(logrus.Fields{
		"filename": name,
		"path":     rel,
	}).Info("storage: file written")

	return filepath.ToSlash(rel), nil
}

func (s *LocalStore) List(ctx context.Context, folder string) (*Listing, error) {
	folder, err := cleanFolder(folder)
	if err != nil {
		return nil, err
	}
	target, err := s.sanitizePath(folder)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	listing := &Listing{Folders: []string{}, Files: []string{}}
	for _, e := range entries {
		if e.IsDir() {
			listing.Folders = append(listing.Folders, e.Name())
		} else {
			listing.Files = append(listing.Files, naming.DecodeFilename(s.codec, e.Name()))
		}
	}
	return listing, nil
}

func (s *LocalStore) Fetch(ctx context.Context, folder, name string) (*Object, error) {
	target, err := s.filePath(folder, name)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, ErrNotFound
	}

	f, err := os.Open(target)
	if err != nil {
		return nil, err
	}

	ctype := mime.TypeByExtension(filepath.Ext(name))
	if ctype == "" {
		buf := make([]byte, 512)
		n, _ := f.Read(buf)
		ctype = http.DetectContentType(buf[:n])
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			f.Close()
			return nil, err
		}
	}

	return &Object{
		Name:        name,
		Size:        info.Size(),
		ContentType: ctype,
		Body:        f,
	}, nil
}

func (s *LocalStore) Rename(ctx context.Context, folder, oldName, newName string) error {
	oldPath, err := s.filePath(folder, oldName)
	if err != nil {
		return err
	}
	newPath, err := s.filePath(folder, newName)
	if err != nil {
		return err
	}

	if _, err := os.Stat(oldPath); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	return os.Rename(oldPath, newPath)
}

func (s *LocalStore) Delete(ctx context.Context, folder, name string) error {
	target, err := s.filePath(folder, name)
	if err != nil {
		return err
	}

	if _, err := os.Stat(target); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	return os.Remove(target)
}

func (s *LocalStore) CreateFolder(ctx context.Context, parent, name string) error {
	parent, err := cleanFolder(parent)
	if err != nil {
		return err
	}
	name, err = cleanName(name)
	if err != nil {
		return err
	}

	target, err := s.sanitizePath(filepath.Join(parent, name))
	if err != nil {
		return err
	}

	if _, err := os.Stat(target); err == nil {
		return ErrFolderExists
	}
	return os.MkdirAll(target, 0o755)
}

func (s *LocalStore) DeleteFolder(ctx context.Context, folder string) error {
	folder, err := cleanFolder(folder)
	if err != nil {
		return err
	}
	if folder == "" {
		return fmt.Errorf("refusing to delete storage root")
	}

	target, err := s.sanitizePath(folder)
	if err != nil {
		return err
	}

	if _, err := os.Stat(target); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	return os.RemoveAll(target)
}

func (s *LocalStore) Search(ctx context.Context, keyword string) ([]SearchHit, error) {
	keyword = strings.ToLower(keyword)
	hits := []SearchHit{}

	err := filepath.WalkDir(s.basePath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		display := naming.DecodeFilename(s.codec, d.Name())
		if !strings.Contains(strings.ToLower(display), keyword) {
			return nil
		}

		rel, err := filepath.Rel(s.basePath, filepath.Dir(p))
		if err != nil {
			return err
		}
		if rel == "." {
			rel = ""
		}
		hits = append(hits, SearchHit{File: display, Folder: filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hits, nil
}

var _ Provider = (*LocalStore)(nil)
