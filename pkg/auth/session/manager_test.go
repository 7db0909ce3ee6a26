package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type memoryBackend struct {
	data map[string]string
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{data: make(map[string]string)}
}

func (m *memoryBackend) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *memoryBackend) Get(_ context.Context, key string) (string, error) {
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *memoryBackend) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryBackend) SessionKey(accessID string) string {
	return "pd:session:" + accessID
}

func newTestManager(backend *memoryBackend) *Manager {
	return &Manager{backend: backend, ttl: time.Hour}
}

func TestManagerRotateReplacesSession(t *testing.T) {
	backend := newMemoryBackend()
	manager := newTestManager(backend)
	ctx := context.Background()

	token, err := manager.Generate(ctx, "access-123")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got := backend.data[backend.SessionKey("access-123")]; got != token {
		t.Fatalf("stored token = %q, want %q", got, token)
	}

	newAccessID, newToken, err := manager.Rotate(ctx, "access-123", token)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if newAccessID == "access-123" {
		t.Fatal("rotate reused the old access id")
	}
	if _, exists := backend.data[backend.SessionKey("access-123")]; exists {
		t.Fatal("old session key left behind")
	}
	if got := backend.data[backend.SessionKey(newAccessID)]; got != newToken {
		t.Fatalf("new session token = %q, want %q", got, newToken)
	}
}

func TestManagerRotateRejectsBadToken(t *testing.T) {
	backend := newMemoryBackend()
	manager := newTestManager(backend)
	ctx := context.Background()

	token, err := manager.Generate(ctx, "access-123")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	cases := map[string]struct {
		accessID string
		token    string
	}{
		"wrong token":    {"access-123", "not-the-token"},
		"unknown id":     {"access-999", token},
		"empty token":    {"access-123", ""},
		"empty accessID": {"", token},
	}
	for name, tc := range cases {
		if _, _, err := manager.Rotate(ctx, tc.accessID, tc.token); !errors.Is(err, ErrInvalidRefreshToken) {
			t.Errorf("%s: err = %v, want ErrInvalidRefreshToken", name, err)
		}
	}

	// The valid pair must still work after the failed attempts.
	if _, _, err := manager.Rotate(ctx, "access-123", token); err != nil {
		t.Fatalf("rotate with valid token: %v", err)
	}
}

func TestManagerHasSession(t *testing.T) {
	backend := newMemoryBackend()
	manager := newTestManager(backend)
	ctx := context.Background()

	ok, err := manager.HasSession(ctx, "nobody")
	if err != nil {
		t.Fatalf("has session: %v", err)
	}
	if ok {
		t.Fatal("reported a session that was never created")
	}

	if _, err := manager.Generate(ctx, "someone"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	ok, err = manager.HasSession(ctx, "someone")
	if err != nil {
		t.Fatalf("has session: %v", err)
	}
	if !ok {
		t.Fatal("expected session to exist")
	}

	if err := manager.Revoke(ctx, "someone"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, err = manager.HasSession(ctx, "someone")
	if err != nil {
		t.Fatalf("has session after revoke: %v", err)
	}
	if ok {
		t.Fatal("session survived revoke")
	}
}
