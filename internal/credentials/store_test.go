package credentials

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestStaticStore(t *testing.T) {
	store := NewStaticStore("abc")
	token, err := store.Token(context.Background())
	if err != nil {
		t.Fatalf("Token returned error: %v", err)
	}
	if token != "abc" {
		t.Errorf("expected token 'abc', got '%s'", token)
	}
}

func TestFileStore_RereadsOnEveryCall(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	store := NewFileStore(path)

	token, err := store.Token(context.Background())
	if err != nil {
		t.Fatalf("Token on missing file returned error: %v", err)
	}
	if token != "" {
		t.Fatalf("expected empty token for missing file, got '%s'", token)
	}

	if err := os.WriteFile(path, []byte("first\n"), 0600); err != nil {
		t.Fatalf("failed to write token file: %v", err)
	}
	if token, _ = store.Token(context.Background()); token != "first" {
		t.Fatalf("expected 'first', got '%s'", token)
	}

	if err := os.WriteFile(path, []byte("second"), 0600); err != nil {
		t.Fatalf("failed to rewrite token file: %v", err)
	}
	if token, _ = store.Token(context.Background()); token != "second" {
		t.Fatalf("expected 'second' after rotation, got '%s'", token)
	}
}

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	store := NewRedisStore(client, "")
	t.Cleanup(func() { _ = store.Close() })
	return store, server
}

func TestRedisStore_MissingKey(t *testing.T) {
	store, _ := newTestRedisStore(t)
	token, err := store.Token(context.Background())
	if err != nil {
		t.Fatalf("expected no error for missing key, got %v", err)
	}
	if token != "" {
		t.Errorf("expected empty token, got '%s'", token)
	}
}

func TestRedisStore_ReadsLatestValue(t *testing.T) {
	store, server := newTestRedisStore(t)

	if err := server.Set(DefaultRedisKey, "old"); err != nil {
		t.Fatalf("failed to seed redis: %v", err)
	}
	if token, _ := store.Token(context.Background()); token != "old" {
		t.Fatalf("expected 'old', got '%s'", token)
	}

	if err := server.Set(DefaultRedisKey, "new"); err != nil {
		t.Fatalf("failed to update redis: %v", err)
	}
	if token, _ := store.Token(context.Background()); token != "new" {
		t.Fatalf("expected 'new', got '%s'", token)
	}
}

func TestRedisStore_ServerDown(t *testing.T) {
	store, server := newTestRedisStore(t)
	server.Close()

	if _, err := store.Token(context.Background()); err == nil {
		t.Fatal("expected error when redis is unreachable")
	}
}

func TestNewStore(t *testing.T) {
	tests := []struct {
		name    string
		options Options
		wantErr bool
	}{
		{name: "default is static", options: Options{Token: "x"}},
		{name: "static", options: Options{Type: "static"}},
		{name: "file", options: Options{Type: "file", Path: "/tmp/token"}},
		{name: "file without path", options: Options{Type: "file"}, wantErr: true},
		{name: "redis without addr", options: Options{Type: "redis"}, wantErr: true},
		{name: "unknown", options: Options{Type: "vault"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewStore(tt.options)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if store == nil {
				t.Fatal("expected store to be non-nil")
			}
		})
	}
}
