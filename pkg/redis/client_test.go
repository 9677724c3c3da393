package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestIncrWithTTLStampsWindowOnce(t *testing.T) {
	ctx := context.Background()
	mock := newMemoryStore()
	client := &Client{store: mock}

	for want := int64(1); want <= 3; want++ {
		count, err := client.IncrWithTTL(ctx, "rl:ip:login:1.2.3.4", time.Second)
		if err != nil {
			t.Fatalf("increment %d: %v", want, err)
		}
		if count != want {
			t.Fatalf("expected counter %d, got %d", want, count)
		}
	}

	if got := len(mock.expires["rl:ip:login:1.2.3.4"]); got != 1 {
		t.Fatalf("TTL should be set exactly once, saw %d expire calls", got)
	}
}

func TestIncrWithTTLZeroWindowSkipsExpire(t *testing.T) {
	mock := newMemoryStore()
	client := &Client{store: mock}

	if _, err := client.IncrWithTTL(context.Background(), "counter", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.expires) != 0 {
		t.Fatalf("no TTL expected for zero window, saw %v", mock.expires)
	}
}

func TestSetNXActsAsLock(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMemoryStore()}

	ok, err := client.SetNX(ctx, "cron:lock:auction-sweep", "owner-1", time.Minute)
	if err != nil {
		t.Fatalf("setnx failed: %v", err)
	}
	if !ok {
		t.Fatal("expected first acquisition to succeed")
	}

	ok, err = client.SetNX(ctx, "cron:lock:auction-sweep", "owner-2", time.Minute)
	if err != nil {
		t.Fatalf("setnx failed: %v", err)
	}
	if ok {
		t.Fatal("expected second acquisition to fail while held")
	}

	if err := client.Del(ctx, "cron:lock:auction-sweep"); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, "cron:lock:auction-sweep"); err != redis.Nil {
		t.Fatalf("expected redis.Nil after release, got %v", err)
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	client := &Client{}
	if _, err := client.Get(context.Background(), "k"); err != ErrNotConnected {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if err := client.Ping(context.Background()); err != ErrNotConnected {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

type memoryStore struct {
	values  map[string]string
	counts  map[string]int64
	expires map[string][]time.Duration
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		values:  make(map[string]string),
		counts:  make(map[string]int64),
		expires: make(map[string][]time.Duration),
	}
}

func (m *memoryStore) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *memoryStore) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	m.values[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *memoryStore) Get(_ context.Context, key string) *redis.StringCmd {
	value, ok := m.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, held := m.values[key]; held {
		return redis.NewBoolResult(false, nil)
	}
	m.values[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *memoryStore) Incr(_ context.Context, key string) *redis.IntCmd {
	m.counts[key]++
	return redis.NewIntResult(m.counts[key], nil)
}

func (m *memoryStore) Expire(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	m.expires[key] = append(m.expires[key], ttl)
	return redis.NewBoolResult(true, nil)
}

func (m *memoryStore) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.values, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
