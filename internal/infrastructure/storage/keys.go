package storage

import (
	"errors"
	"path"
	"strings"

	"github.com/invoicer/backend/internal/domain/shared"
)

// ErrArtifactNotFound is returned when a stored object is missing
var ErrArtifactNotFound = shared.NewDomainError(shared.CodeNotFound, "stored artifact not found")

// cleanKey normalizes an object key and rejects keys that escape the store root
func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("storage key is required")
	}
	cleaned := path.Clean(strings.TrimLeft(key, "/"))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("storage key must stay inside the store root")
	}
	return cleaned, nil
}
