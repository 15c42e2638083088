package testtools

import (
	"context"
	"strings"
	"sync"

	"github.com/m-mizutani/alchemy/pkg/adapter"
	"github.com/m-mizutani/goerr/v2"
)

// Storage is an in-memory adapter.Storage with injectable upload failures
type Storage struct {
	mu       sync.Mutex
	objects  map[string][]byte
	types    map[string]string
	failures map[string]error
	uploads  []string
}

var _ adapter.Storage = (*Storage)(nil)

func NewStorage() *Storage {
	return &Storage{
		objects:  make(map[string][]byte),
		types:    make(map[string]string),
		failures: make(map[string]error),
	}
}

// FailUpload makes every upload under prefix fail with err
func (s *Storage) FailUpload(prefix string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[prefix] = err
}

func (s *Storage) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.uploads = append(s.uploads, path)
	for prefix, err := range s.failures {
		if strings.HasPrefix(path, prefix) {
			return goerr.Wrap(err, "failed to write object", goerr.V("path", path))
		}
	}

	s.objects[path] = append([]byte(nil), data...)
	s.types[path] = contentType
	return nil
}

func (s *Storage) DownloadURL(ctx context.Context, path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[path]; !ok {
		return "", goerr.New("object not found", goerr.V("path", path))
	}
	return adapter.DownloadURL("test-bucket", path, "token"), nil
}

// Object returns the stored data and content type at path
func (s *Storage) Object(path string) ([]byte, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.objects[path]
	return data, s.types[path], ok
}

// Uploads returns every attempted upload path in order, including failed ones
func (s *Storage) Uploads() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.uploads...)
}
