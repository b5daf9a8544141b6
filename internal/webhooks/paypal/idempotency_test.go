package paypalwebhook

import (
	"context"
	"testing"
	"time"
)

type memIdempotencyStore struct {
	keys map[string]string
}

func newMemIdempotencyStore() *memIdempotencyStore {
	return &memIdempotencyStore{keys: make(map[string]string)}
}

func (s *memIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	return s.keys[key], nil
}

func (s *memIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := s.keys[key]; ok {
		return false, nil
	}
	s.keys[key] = "1"
	return true, nil
}

func (s *memIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "idemp:" + scope + ":" + id
}

func (s *memIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.keys, key)
	}
	return nil
}

func TestIdempotencyGuardMarksOnce(t *testing.T) {
	guard, err := NewIdempotencyGuard(newMemIdempotencyStore(), time.Hour, "paypal")
	if err != nil {
		t.Fatalf("NewIdempotencyGuard: %v", err)
	}

	seen, err := guard.CheckAndMark(context.Background(), "WH-1")
	if err != nil {
		t.Fatalf("first check: %v", err)
	}
	if seen {
		t.Fatal("fresh event reported as seen")
	}

	seen, err = guard.CheckAndMark(context.Background(), "WH-1")
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if !seen {
		t.Fatal("replayed event not detected")
	}
}

func TestIdempotencyGuardDeleteAllowsRetry(t *testing.T) {
	guard, err := NewIdempotencyGuard(newMemIdempotencyStore(), time.Hour, "paypal")
	if err != nil {
		t.Fatalf("NewIdempotencyGuard: %v", err)
	}
	ctx := context.Background()

	if _, err := guard.CheckAndMark(ctx, "WH-1"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if err := guard.Delete(ctx, "WH-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	seen, err := guard.CheckAndMark(ctx, "WH-1")
	if err != nil {
		t.Fatalf("re-mark: %v", err)
	}
	if seen {
		t.Fatal("deleted event still marked")
	}
}

func TestIdempotencyGuardValidation(t *testing.T) {
	if _, err := NewIdempotencyGuard(nil, time.Hour, "paypal"); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := NewIdempotencyGuard(newMemIdempotencyStore(), time.Hour, ""); err == nil {
		t.Fatal("expected error for empty scope")
	}
	guard, _ := NewIdempotencyGuard(newMemIdempotencyStore(), time.Hour, "paypal")
	if _, err := guard.CheckAndMark(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty event id")
	}
}
