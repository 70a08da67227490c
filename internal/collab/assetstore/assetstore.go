// Package assetstore persists binary artifacts (selfies, QR images)
// outside the worker record and hands back opaque references.
package assetstore

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"

	dErrors "suraksha/pkg/domain-errors"
	"suraksha/pkg/platform/sentinel"
)

// Store is the artifact persistence contract.
type Store interface {
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Load(ctx context.Context, ref string) ([]byte, string, error)
}

// DecodeImage accepts either a data URI (data:image/jpeg;base64,...) or a
// bare base64 string and returns the raw bytes with the content type.
func DecodeImage(raw string) ([]byte, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, "", dErrors.New(dErrors.CodeValidation, "image data is required")
	}

	contentType := "image/jpeg"
	if strings.HasPrefix(raw, "data:") {
		header, payload, found := strings.Cut(raw, ",")
		if !found {
			return nil, "", dErrors.New(dErrors.CodeValidation, "malformed data URI")
		}
		meta := strings.TrimPrefix(header, "data:")
		meta, encoding, _ := strings.Cut(meta, ";")
		if encoding != "base64" {
			return nil, "", dErrors.New(dErrors.CodeValidation, "data URI must be base64 encoded")
		}
		if meta != "" {
			contentType = meta
		}
		raw = payload
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, "", dErrors.New(dErrors.CodeValidation, "image data is not valid base64")
	}
	if len(data) == 0 {
		return nil, "", dErrors.New(dErrors.CodeValidation, "image data is empty")
	}
	return data, contentType, nil
}

const refPrefix = "asset://"

type object struct {
	data        []byte
	contentType string
}

// InMemory keeps artifacts in process memory. It backs tests and
// single-node deployments.
type InMemory struct {
	mu      sync.RWMutex
	objects map[string]object
}

func NewInMemory() *InMemory {
	return &InMemory{objects: make(map[string]object)}
}

func (s *InMemory) Save(_ context.Context, key string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[key] = object{data: buf, contentType: contentType}
	return refPrefix + key, nil
}

func (s *InMemory) Load(_ context.Context, ref string) ([]byte, string, error) {
	key := strings.TrimPrefix(ref, refPrefix)

	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, "", sentinel.ErrNotFound
	}
	buf := make([]byte, len(obj.data))
	copy(buf, obj.data)
	return buf, obj.contentType, nil
}
