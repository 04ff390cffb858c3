// Package filestore decides where uploaded restaurant files live and writes them to disk.
package filestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"restaurant-platform-api/apperr"
	"restaurant-platform-api/models"

	"github.com/google/uuid"
)

// UploadPath returns the slash-separated storage path for an upload. docType is only
// consulted for AssetDocument. The filename is reduced to its base name.
func UploadPath(kind models.AssetKind, docType models.DocumentType, filename string) (string, error) {
	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if name == "" || name == "." || name == "/" || name == ".." {
		return "", apperr.Validation("file", "a file name is required")
	}

	switch kind {
	case models.AssetDocument:
		if !docType.Valid() {
			return "", apperr.Validation("document_type", "must be one of PAN, GST, FSSAI")
		}
		return path.Join("restaurant/documents", strings.ToLower(string(docType)), name), nil
	case models.AssetBankPassbook:
		return path.Join("restaurant/documents/bank", name), nil
	case models.AssetLicense:
		return path.Join("restaurant/documents/license", name), nil
	case models.AssetMenu:
		return path.Join("restaurant/menu", name), nil
	}
	return "", apperr.Validation("kind", fmt.Sprintf("unknown asset kind %q", kind))
}

// Store persists upload bodies. Save never overwrites: when relPath is taken the file is
// stored under a suffixed name and that name is returned.
type Store interface {
	Save(ctx context.Context, relPath string, r io.Reader) (string, int64, error)
	Remove(ctx context.Context, relPath string) error
}

// LocalStore writes files under a root directory.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

func (s *LocalStore) resolve(relPath string) (string, error) {
	clean := path.Clean("/" + relPath)
	if clean == "/" {
		return "", fmt.Errorf("empty storage path")
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func (s *LocalStore) Save(ctx context.Context, relPath string, r io.Reader) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	stored, f, err := s.create(relPath)
	if err != nil {
		return "", 0, err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return "", n, fmt.Errorf("write %s: %w", stored, err)
	}
	return stored, n, nil
}

// create opens a new file for relPath, picking a suffixed name if the path is taken.
func (s *LocalStore) create(relPath string) (string, *os.File, error) {
	clean := path.Clean("/" + relPath)[1:]
	if clean == "" {
		return "", nil, fmt.Errorf("empty storage path")
	}
	candidate := clean
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		full := filepath.Join(s.root, filepath.FromSlash(candidate))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return "", nil, fmt.Errorf("create upload dir: %w", err)
		}
		f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return candidate, f, nil
		}
		if !os.IsExist(err) {
			return "", nil, fmt.Errorf("create %s: %w", candidate, err)
		}
		candidate = withSuffix(clean, uuid.NewString()[:7])
	}
	return "", nil, fmt.Errorf("no free name for %s", clean)
}

const maxNameAttempts = 5

func withSuffix(p, suffix string) string {
	ext := path.Ext(p)
	return strings.TrimSuffix(p, ext) + "_" + suffix + ext
}

func (s *LocalStore) Remove(ctx context.Context, relPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", relPath, err)
	}
	return nil
}
