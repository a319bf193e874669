package auth

import (
	"testing"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)
	identity := domain.Identity{ID: "user-1", Email: "client@example.com", Role: domain.RoleClient}

	token, expiresAt, err := tm.GenerateToken(identity)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}
	if remaining := time.Until(expiresAt); remaining < 59*time.Minute || remaining > 61*time.Minute {
		t.Errorf("expiry %v not about an hour out", remaining)
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	got := claims.Identity()
	if got != identity {
		t.Errorf("identity = %+v, want %+v", got, identity)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	tm := NewTokenManager("secret-a", 60)
	token, _, err := tm.GenerateToken(domain.Identity{ID: "user-1", Email: "a@example.com", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	other := NewTokenManager("secret-b", 60)
	if _, err := other.ParseToken(token); err == nil {
		t.Fatal("token signed with another secret must be rejected")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)
	if _, err := tm.ParseToken("not.a.token"); err == nil {
		t.Fatal("expected parse failure")
	}
	if _, err := tm.ParseToken(""); err == nil {
		t.Fatal("expected parse failure for empty token")
	}
}

func TestNewTokenManagerDefaultsTTL(t *testing.T) {
	tm := NewTokenManager("test-secret", 0)
	_, expiresAt, err := tm.GenerateToken(domain.Identity{ID: "u", Email: "u@example.com", Role: domain.RoleClient})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if remaining := time.Until(expiresAt); remaining < 55*time.Minute || remaining > 65*time.Minute {
		t.Errorf("default ttl expiry %v not about an hour out", remaining)
	}
}
