package signer

import (
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestSignAndVerify(t *testing.T) {
	s := New([]byte("app-key"))
	expires := time.Unix(1800000000, 0)
	now := time.Unix(1700000000, 0)

	sig := s.Sign("/verify-email", 42, "a@b.test", expires)
	if sig == "" {
		t.Fatal("empty signature")
	}

	expStr := strconv.FormatInt(expires.Unix(), 10)
	if !s.Verify("/verify-email", 42, "a@b.test", expStr, sig, now) {
		t.Fatal("expected signature to verify")
	}
	if s.Verify("/verify-email", 43, "a@b.test", expStr, sig, now) {
		t.Fatal("verified with wrong user id")
	}
	if s.Verify("/verify-email", 42, "x@b.test", expStr, sig, now) {
		t.Fatal("verified with wrong email")
	}
	if s.Verify("/other", 42, "a@b.test", expStr, sig, now) {
		t.Fatal("verified with wrong route")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	s := New([]byte("app-key"))
	expires := time.Unix(1700000000, 0)
	sig := s.Sign("/verify-email", 1, "a@b.test", expires)

	after := expires.Add(time.Second)
	if s.Verify("/verify-email", 1, "a@b.test", strconv.FormatInt(expires.Unix(), 10), sig, after) {
		t.Fatal("verified an expired URL")
	}
}

func TestVerifyRejectsGarbageExpiry(t *testing.T) {
	s := New([]byte("app-key"))
	if s.Verify("/verify-email", 1, "a@b.test", "not-a-number", "sig", time.Now()) {
		t.Fatal("verified with unparseable expiry")
	}
}

func TestURLCarriesSignature(t *testing.T) {
	s := New([]byte("app-key"))
	u := s.URL("https://api.test", "/verify-email", 7, "a@b.test", time.Unix(1800000000, 0))
	if !strings.HasPrefix(u, "https://api.test/verify-email?") {
		t.Fatalf("unexpected URL: %s", u)
	}
	for _, part := range []string{"id=7", "expires=1800000000", "signature="} {
		if !strings.Contains(u, part) {
			t.Fatalf("URL missing %s: %s", part, u)
		}
	}
}
