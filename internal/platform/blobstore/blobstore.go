// Package blobstore stores case attachments. MinIOStore writes to an
// S3-compatible bucket; MemoryStore keeps objects in process for development
// and tests.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrEmptyObject    = errors.New("object is empty")
	ErrMissingKey     = errors.New("object key is required")
)

// Object describes a stored blob.
type Object struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Hash        string `json:"hash,omitempty"`
}

// Store is the contract for attachment storage backends.
type Store interface {
	Put(ctx context.Context, key, contentType string, content io.Reader, size int64) (*Object, error)
	Delete(ctx context.Context, key string) error
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9\-_.]+`)

// SanitizeFileName lower-cases name and replaces anything outside
// [a-z0-9-_.] with dashes.
func SanitizeFileName(name string) string {
	name = strings.ToLower(path.Base(strings.ReplaceAll(name, "\\", "/")))
	name = strings.ReplaceAll(name, " ", "-")
	name = unsafeChars.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-_.")
	if name == "" {
		name = "file"
	}
	return name
}

// ObjectKey builds a unique key for an attachment of a case:
// cases/<caseID>/<random>-<filename>.
func ObjectKey(caseID uuid.UUID, fileName string) string {
	return fmt.Sprintf("cases/%s/%s-%s", caseID, uuid.NewString()[:8], SanitizeFileName(fileName))
}

// MemoryStore is a thread-safe in-memory Store.
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]memoryObject
}

type memoryObject struct {
	meta    Object
	content []byte
}

// NewMemoryStore returns a store whose object URLs start with baseURL.
func NewMemoryStore(baseURL string) *MemoryStore {
	if baseURL == "" {
		baseURL = "memory://attachments"
	}
	return &MemoryStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]memoryObject),
	}
}

func (s *MemoryStore) Put(_ context.Context, key, contentType string, content io.Reader, _ int64) (*Object, error) {
	if key == "" {
		return nil, ErrMissingKey
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyObject
	}

	sum := sha256.Sum256(data)
	obj := Object{
		Key:         key,
		URL:         s.baseURL + "/" + key,
		ContentType: contentType,
		Size:        int64(len(data)),
		Hash:        fmt.Sprintf("%x", sum),
	}

	s.mu.Lock()
	s.objects[key] = memoryObject{meta: obj, content: data}
	s.mu.Unlock()

	out := obj
	return &out, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[key]; !ok {
		return ErrObjectNotFound
	}
	delete(s.objects, key)
	return nil
}

// Get returns the stored bytes of key.
func (s *MemoryStore) Get(key string) ([]byte, *Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.objects[key]
	if !ok {
		return nil, nil, ErrObjectNotFound
	}
	meta := o.meta
	return bytes.Clone(o.content), &meta, nil
}

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
