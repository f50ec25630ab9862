package credentials

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Store supplies the current bearer token. Token refresh happens out of band;
// implementations only read the latest value. An empty token means "no token".
type Store interface {
	Token(ctx context.Context) (string, error)
}

// StoreFunc adapts a plain function to the Store interface.
type StoreFunc func(ctx context.Context) (string, error)

func (f StoreFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticStore always returns the same token.
type StaticStore struct {
	token string
}

func NewStaticStore(token string) *StaticStore {
	return &StaticStore{token: token}
}

func (s *StaticStore) Token(_ context.Context) (string, error) {
	return s.token, nil
}

// FileStore re-reads the token file on every call so that an external
// refresher can rotate the token by rewriting the file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Token(_ context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read token file %s: %w", s.path, err)
	}
	return strings.TrimSpace(string(data)), nil
}
