package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	appinv "github.com/invoicer/backend/internal/application/invoicing"
)

var (
	_ appinv.ArtifactStore  = (*FilesystemArtifactStore)(nil)
	_ appinv.ArtifactReader = (*FilesystemArtifactStore)(nil)
)

// FilesystemArtifactStore writes artifacts below a base directory.
// Paths returned by Put are the absolute file paths.
type FilesystemArtifactStore struct {
	root   string
	logger *zap.Logger
}

// NewFilesystemArtifactStore creates the base directory if needed
func NewFilesystemArtifactStore(basePath string, logger *zap.Logger) (*FilesystemArtifactStore, error) {
	if basePath == "" {
		return nil, errors.New("storage base path is required")
	}
	root, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage base path: %w", err)
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage base path: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FilesystemArtifactStore{root: root, logger: logger}, nil
}

// Root returns the absolute base directory
func (s *FilesystemArtifactStore) Root() string {
	return s.root
}

// Put writes data atomically: a temp file in the target directory is renamed into place.
func (s *FilesystemArtifactStore) Put(ctx context.Context, key string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	target := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".artifact-*")
	if err != nil {
		return "", fmt.Errorf("failed to create artifact file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to store artifact: %w", err)
	}

	s.logger.Debug("Artifact written", zap.String("path", target), zap.Int("size", len(data)))
	return target, nil
}

// Get reads a file previously written by Put
func (s *FilesystemArtifactStore) Get(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(s.root, filepath.Clean(path))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return nil, fmt.Errorf("artifact path %q is outside the store root", path)
	}
	data, err := os.ReadFile(filepath.Join(s.root, rel))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrArtifactNotFound
		}
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return data, nil
}
