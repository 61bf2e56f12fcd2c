// Package storage holds binary artifacts (certificate PDFs) behind a small
// object-store port.
package storage

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
)

// ErrNotFound is returned when no object exists under a key.
var ErrNotFound = errors.New("storage: object not found")

// ObjectStore persists an object and returns its public URL.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

type object struct {
	contentType string
	data        []byte
}

// Memory keeps objects in process and serves them under baseURL+"/files/".
// Used in dev when no bucket is configured.
type Memory struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]object
	// Err, when set, fails every Put.
	Err error
}

func NewMemory(baseURL string) *Memory {
	return &Memory{baseURL: strings.TrimRight(baseURL, "/"), objects: make(map[string]object)}
}

func (m *Memory) Put(_ context.Context, key, contentType string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	m.objects[key] = object{contentType: contentType, data: append([]byte(nil), data...)}
	return m.baseURL + "/files/" + key, nil
}

func (m *Memory) Get(key string) ([]byte, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, "", ErrNotFound
	}
	return obj.data, obj.contentType, nil
}

// Handler serves stored objects; mount it at /files/.
func (m *Memory) Handler() http.Handler {
	return http.StripPrefix("/files/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, contentType, err := m.Get(r.URL.Path)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(data)
	}))
}
