package auth_test

import (
	"testing"
	"time"

	"eventlocator/internal/auth"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	m := auth.NewManager("test-secret", 24*time.Hour)

	token, err := m.GenerateToken("user-123", "a@x.com")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := m.VerifyToken(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if claims.UserID != "user-123" {
		t.Fatalf("got userID %q, want user-123", claims.UserID)
	}
	if claims.Email != "a@x.com" {
		t.Fatalf("got email %q, want a@x.com", claims.Email)
	}

	// one-day expiry, allow slack for test runtime
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < 23*time.Hour || ttl > 24*time.Hour {
		t.Fatalf("unexpected ttl: %v", ttl)
	}
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	m := auth.NewManager("secret-a", time.Hour)
	other := auth.NewManager("secret-b", time.Hour)

	token, err := m.GenerateToken("user-123", "a@x.com")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := other.VerifyToken(token); err == nil {
		t.Fatal("expected verification to fail with a different secret")
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	m := auth.NewManager("secret", -time.Minute)

	token, err := m.GenerateToken("user-123", "a@x.com")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := m.VerifyToken(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestVerifyToken_Garbage(t *testing.T) {
	m := auth.NewManager("secret", time.Hour)

	if _, err := m.VerifyToken("not-a-token"); err == nil {
		t.Fatal("expected malformed token to be rejected")
	}
}
