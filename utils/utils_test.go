package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestMemoryCacheExpiryAndSweep(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "short", []byte("1"), time.Minute)
	_ = c.Set(ctx, "long", []byte("2"), time.Hour)
	if v, err := c.Get(ctx, "short"); err != nil || string(v) != "1" {
		t.Fatalf("get: %q %v", v, err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := c.Get(ctx, "short"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected expiry, got %v", err)
	}

	// Entries nobody reads again are dropped by the next write after the sweep interval.
	for i := 0; i < 100; i++ {
		_ = c.Set(ctx, fmt.Sprintf("page:%d", i), []byte("x"), time.Minute)
	}
	now = now.Add(2 * time.Minute)
	_ = c.Set(ctx, "trigger", []byte("y"), time.Minute)
	c.mu.RLock()
	size := len(c.entries)
	c.mu.RUnlock()
	if size != 2 {
		t.Fatalf("expected only long and trigger to survive the sweep, got %d entries", size)
	}
}

func TestMemoryCacheIncr(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	for want := int64(1); want <= 3; want++ {
		got, err := c.Incr(ctx, "gen")
		if err != nil || got != want {
			t.Fatalf("incr: got %d %v, want %d", got, err, want)
		}
	}
	now = now.Add(365 * 24 * time.Hour)
	_ = c.Set(ctx, "other", []byte("z"), time.Minute)
	if v, err := c.Get(ctx, "gen"); err != nil || string(v) != "3" {
		t.Fatalf("counter must not expire: %q %v", v, err)
	}
	_ = c.Set(ctx, "text", []byte("abc"), time.Minute)
	if _, err := c.Incr(ctx, "text"); err == nil {
		t.Fatalf("expected an error incrementing a non-integer")
	}
}

func TestJWTIssueAndParse(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	signed, claims, err := m.Issue(7, "pablo", 3)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if claims.ID == "" {
		t.Fatalf("expected a token id")
	}
	parsed, err := m.Parse(signed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.UserID != 7 || parsed.Username != "pablo" || parsed.Version != 3 || parsed.ID != claims.ID {
		t.Fatalf("unexpected claims %+v", parsed)
	}

	if _, err := NewJWTManager("other", time.Hour).Parse(signed); err == nil {
		t.Fatalf("expected signature failure")
	}
	now = now.Add(2 * time.Hour)
	if _, err := m.Parse(signed); err == nil {
		t.Fatalf("expected expiry failure")
	}
}

func TestTokenBlacklist(t *testing.T) {
	ctx := context.Background()
	b := NewTokenBlacklist(NewMemoryCache())
	if b.IsRevoked(ctx, "jti") {
		t.Fatalf("fresh id must not be revoked")
	}
	if err := b.Revoke(ctx, "jti", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if !b.IsRevoked(ctx, "jti") {
		t.Fatalf("expected revoked")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "s3cret" || !CheckPassword(hash, "s3cret") || CheckPassword(hash, "S3cret") {
		t.Fatalf("unexpected hash behaviour")
	}
}

func TestSanitize(t *testing.T) {
	plain := "a & b \"quoted\""
	if got := Sanitize(plain); got != plain {
		t.Fatalf("plain text changed: %q", got)
	}
	if got := Sanitize(`<p onclick="x()">hi</p><script>alert(1)</script>`); strings.Contains(got, "script") || strings.Contains(got, "onclick") {
		t.Fatalf("markup not cleaned: %q", got)
	}
	for _, text := range []string{"a < b and c > d", strings.Repeat("<", 30), "1<2 && 3>2"} {
		if got := Sanitize(text); got != text {
			t.Fatalf("comparison text changed: %q -> %q", text, got)
		}
		if got := SanitizePlain(text); got != text {
			t.Fatalf("plain comparison text changed: %q -> %q", text, got)
		}
	}
	if got := SanitizePlain("  <b>Title</b> "); got != "Title" {
		t.Fatalf("unexpected plain result %q", got)
	}
}
