// internal/auth/token_test.go
package auth

import (
	"testing"
	"time"
)

func TestBridgeTokenRoundTrip(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	token, err := CreateBridgeToken("telegram-bridge", time.Hour)
	if err != nil {
		t.Fatalf("CreateBridgeToken failed: %v", err)
	}

	adapter, err := VerifyBridgeToken(token)
	if err != nil {
		t.Fatalf("VerifyBridgeToken failed: %v", err)
	}
	if adapter != "telegram-bridge" {
		t.Fatalf("expected adapter telegram-bridge, got %q", adapter)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	token, err := CreateBridgeToken("telegram-bridge", -time.Minute)
	if err != nil {
		t.Fatalf("CreateBridgeToken failed: %v", err)
	}
	if _, err := VerifyBridgeToken(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestGarbageTokenRejected(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if _, err := VerifyBridgeToken("not-a-jwt"); err == nil {
		t.Fatal("expected garbage token to be rejected")
	}
}
