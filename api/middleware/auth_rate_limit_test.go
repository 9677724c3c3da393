package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/scrapbid/scrapbid-backend/pkg/errors"
)

type countingStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (s *countingStore) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counts == nil {
		s.counts = map[string]int64{}
	}
	s.counts[key]++
	return s.counts[key], nil
}

func throttledHandler(t *testing.T, policy AuthRateLimitPolicy, store *countingStore) http.Handler {
	t.Helper()
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return AuthRateLimit(policy, store, nil)(inner)
}

func loginRequest(email, addr string) *http.Request {
	body := `{"email":"` + email + `","password":"secret"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.RemoteAddr = addr
	return req
}

func TestAuthRateLimitPassesBodyThrough(t *testing.T) {
	policy := NewAuthRateLimitPolicy("login", time.Minute, 2, 2)
	var seen string
	handler := AuthRateLimit(policy, &countingStore{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		seen = string(raw)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest("tester@example.com", "1.2.3.4:5678"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(seen, `"email":"tester@example.com"`) {
		t.Fatalf("handler saw truncated body: %s", seen)
	}
}

func TestAuthRateLimitBlocksEmailDimension(t *testing.T) {
	policy := NewAuthRateLimitPolicy("login", time.Minute, 0, 2)
	handler := throttledHandler(t, policy, &countingStore{})

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		// Different IPs, same email: only the email counter should trip.
		handler.ServeHTTP(last, loginRequest("blocked@example.com", fmt.Sprintf("1.2.3.%d:80", i+1)))
		if i < 2 && last.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200, got %d", i, last.Code)
		}
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on third attempt, got %d", last.Code)
	}
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(last.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeRateLimit) {
		t.Fatalf("unexpected error code %s", payload.Error.Code)
	}
}

func TestAuthRateLimitBlocksIPDimension(t *testing.T) {
	policy := NewAuthRateLimitPolicy("register", time.Minute, 1, 0)
	handler := throttledHandler(t, policy, &countingStore{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest("a@example.com", "5.6.7.8:1234"))
	if rec.Code != http.StatusOK {
		t.Fatalf("first attempt should pass, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	// Same IP, different email: the IP counter alone must block it.
	handler.ServeHTTP(rec, loginRequest("b@example.com", "5.6.7.8:9999"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on second attempt, got %d", rec.Code)
	}
}

func TestAuthRateLimitDisabledPolicyIsNoop(t *testing.T) {
	policy := NewAuthRateLimitPolicy("login", 0, 10, 10)
	store := &countingStore{}
	handler := throttledHandler(t, policy, store)

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, loginRequest("any@example.com", "9.9.9.9:1"))
		if rec.Code != http.StatusOK {
			t.Fatalf("disabled policy must not block, got %d", rec.Code)
		}
	}
	if len(store.counts) != 0 {
		t.Fatalf("disabled policy must not touch the store, saw %v", store.counts)
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:443"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	if got := clientIP(req); got != "203.0.113.7" {
		t.Fatalf("expected forwarded address, got %s", got)
	}
}
