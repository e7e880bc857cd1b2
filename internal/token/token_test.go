package token

import (
	"encoding/hex"
	"testing"
	"time"
)

func TestAccessHashShape(t *testing.T) {
	iss := NewIssuer("app-key")
	h, err := iss.AccessHash()
	if err != nil {
		t.Fatalf("AccessHash: %v", err)
	}
	if len(h) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(h))
	}
	if _, err := hex.DecodeString(h); err != nil {
		t.Fatalf("not valid hex: %v", err)
	}
}

func TestAccessHashDiffersWithinSameSecond(t *testing.T) {
	iss := NewIssuer("app-key")
	fixed := time.Unix(1700000000, 0)
	iss.now = func() time.Time { return fixed }

	a, err := iss.AccessHash()
	if err != nil {
		t.Fatalf("AccessHash: %v", err)
	}
	b, err := iss.AccessHash()
	if err != nil {
		t.Fatalf("AccessHash: %v", err)
	}
	if a == b {
		t.Fatalf("two hashes in the same second collided")
	}
	if a[:32] == b[:32] {
		t.Fatalf("first halves collided: %s", a[:32])
	}
}

func TestAccessHashDependsOnAppKey(t *testing.T) {
	a := NewIssuer("key-one")
	b := NewIssuer("key-two")
	fixed := time.Unix(1700000000, 0)
	a.now = func() time.Time { return fixed }
	b.now = func() time.Time { return fixed }

	ha, _ := a.AccessHash()
	hb, _ := b.AccessHash()
	if ha == hb {
		t.Fatalf("hashes with different app keys collided")
	}
}
