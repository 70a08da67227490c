package assetstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"suraksha/pkg/platform/sentinel"
)

const fileRefPrefix = "file://"

// Filesystem stores artifacts under a root directory. The content type is
// kept in a sidecar .meta file next to each object.
type Filesystem struct {
	root string
}

func NewFilesystem(root string) (*Filesystem, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create asset root: %w", err)
	}
	return &Filesystem{root: root}, nil
}

type sidecar struct {
	ContentType string `json:"content_type"`
}

func (s *Filesystem) Save(_ context.Context, key string, data []byte, contentType string) (string, error) {
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create asset dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write asset: %w", err)
	}

	meta, err := json.Marshal(sidecar{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("marshal asset metadata: %w", err)
	}
	if err := os.WriteFile(path+".meta", meta, 0o644); err != nil {
		return "", fmt.Errorf("write asset metadata: %w", err)
	}
	return fileRefPrefix + key, nil
}

func (s *Filesystem) Load(_ context.Context, ref string) ([]byte, string, error) {
	key := strings.TrimPrefix(ref, fileRefPrefix)
	path := s.path(key)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", sentinel.ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("read asset: %w", err)
	}

	contentType := "application/octet-stream"
	if meta, err := os.ReadFile(path + ".meta"); err == nil {
		var sc sidecar
		if json.Unmarshal(meta, &sc) == nil && sc.ContentType != "" {
			contentType = sc.ContentType
		}
	}
	return data, contentType, nil
}

// path flattens the key into the root; path separators in keys become
// subdirectories, anything escaping the root is rejected by Clean.
func (s *Filesystem) path(key string) string {
	clean := filepath.Clean("/" + key)
	return filepath.Join(s.root, clean)
}
