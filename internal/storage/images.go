package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"server/internal/captiongen"
)

// ImageResolver turns a batch item's image reference into a payload the
// caption generator accepts (base64 data, optionally data-URI prefixed).
type ImageResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// FileResolver resolves references against a local directory. Data and
// http(s) URIs pass through untouched; anything else is treated as a
// relative key under the base path, read, sniffed for its media type,
// and encoded.
type FileResolver struct {
	basePath string
}

// NewFileResolver initializes a FileResolver rooted at basePath. An
// empty base path still resolves data URIs but rejects file keys.
func NewFileResolver(basePath string) *FileResolver {
	return &FileResolver{basePath: strings.TrimSpace(basePath)}
}

func (r *FileResolver) Resolve(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("storage: image reference is required")
	}
	if strings.HasPrefix(strings.ToLower(ref), "data:") {
		return ref, nil
	}
	// Remote URLs go to the model untouched; it fetches them itself.
	if captiongen.IsRemoteURL(ref) {
		return ref, nil
	}
	if r.basePath == "" {
		return "", errors.New("storage: no base path configured for file references")
	}

	key, err := sanitizeKey(ref)
	if err != nil {
		return "", err
	}
	path := filepath.Join(r.basePath, filepath.FromSlash(key))
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("storage: read image %q: %w", key, err)
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("storage: %q is not an image (%s)", key, mimeType)
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data)), nil
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.Clean(key)
	cleaned = strings.ReplaceAll(cleaned, "\\", "/")
	if cleaned == "." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("storage: invalid key")
	}
	return cleaned, nil
}

var _ ImageResolver = (*FileResolver)(nil)
