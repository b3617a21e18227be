package crypto

import (
	"strings"
	"testing"
)

var testKey = strings.Repeat("ab", 32)

func TestSealAndOpenString(t *testing.T) {
	svc, err := New(testKey)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	sealed, err := svc.SealString("sk_live_123")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if !strings.HasPrefix(sealed, sealedPrefix) || strings.Contains(sealed, "sk_live_123") {
		t.Fatalf("expected sealed value, got %q", sealed)
	}
	opened, err := svc.OpenString(sealed)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if opened != "sk_live_123" {
		t.Fatalf("expected round trip, got %q", opened)
	}
}

func TestUnconfiguredPassesThrough(t *testing.T) {
	svc, err := New("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	sealed, err := svc.SealString("plain")
	if err != nil || sealed != "plain" {
		t.Fatalf("expected passthrough, got %q (%v)", sealed, err)
	}
	if _, err := svc.OpenString(sealedPrefix + "AAAA"); err == nil {
		t.Fatal("expected error opening sealed value without a key")
	}
}

func TestOpenStringLeavesLegacyPlaintext(t *testing.T) {
	svc, _ := New(testKey)
	value, err := svc.OpenString("legacy")
	if err != nil || value != "legacy" {
		t.Fatalf("expected legacy plaintext, got %q (%v)", value, err)
	}
}

func TestNewRejectsShortKey(t *testing.T) {
	if _, err := New("short"); err == nil {
		t.Fatal("expected key length error")
	}
}
