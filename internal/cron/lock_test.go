package cron

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeLockStore struct {
	values map[string]string
	dels   int
}

func newFakeLockStore() *fakeLockStore {
	return &fakeLockStore{values: map[string]string{}}
}

func (f *fakeLockStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, held := f.values[key]; held {
		return false, nil
	}
	f.values[key] = value.(string)
	return true, nil
}

func (f *fakeLockStore) Get(_ context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (f *fakeLockStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	f.dels++
	return nil
}

func TestRedisLockAcquireRelease(t *testing.T) {
	ctx := context.Background()
	store := newFakeLockStore()
	lock, err := NewRedisLock(store, "cron:lock:test", time.Minute)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}

	held, err := lock.Acquire(ctx)
	if err != nil || !held {
		t.Fatalf("expected acquisition, held=%v err=%v", held, err)
	}

	held, err = lock.Acquire(ctx)
	if err != nil {
		t.Fatalf("second acquire errored: %v", err)
	}
	if held {
		t.Fatal("lock acquired twice while held")
	}

	if err := lock.Release(ctx); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if store.dels != 1 {
		t.Fatalf("expected one delete, saw %d", store.dels)
	}
}

func TestRedisLockReleaseSkipsStolenLock(t *testing.T) {
	ctx := context.Background()
	store := newFakeLockStore()
	lock, err := NewRedisLock(store, "cron:lock:test", time.Minute)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}
	if _, err := lock.Acquire(ctx); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	// Simulate TTL expiry followed by another worker taking the lock.
	store.values["cron:lock:test"] = "someone-else"

	if err := lock.Release(ctx); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if store.dels != 0 {
		t.Fatal("must not delete a lock owned by another worker")
	}
	if store.values["cron:lock:test"] != "someone-else" {
		t.Fatal("foreign lock value was disturbed")
	}
}

func TestRedisLockValidation(t *testing.T) {
	if _, err := NewRedisLock(nil, "key", time.Minute); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := NewRedisLock(newFakeLockStore(), "", time.Minute); err == nil {
		t.Fatal("expected error for empty key")
	}
}
