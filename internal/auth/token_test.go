package auth

import (
	"testing"
	"time"

	"github.com/patlas/patlas/internal/model"
)

func TestNewMagicLinkToken(t *testing.T) {
	t.Parallel()

	tok, err := NewMagicLinkToken()
	if err != nil {
		t.Fatalf("NewMagicLinkToken failed: %v", err)
	}

	if len(tok.Plaintext) != 64 {
		t.Errorf("expected 64 hex chars of token material, got %d", len(tok.Plaintext))
	}

	if tok.Hash != TokenHash(tok.Plaintext) {
		t.Error("token hash should be the SHA256 digest of the plaintext")
	}

	other, err := NewMagicLinkToken()
	if err != nil {
		t.Fatalf("NewMagicLinkToken failed: %v", err)
	}
	if other.Plaintext == tok.Plaintext {
		t.Error("tokens should be unique")
	}
}

func TestNewRefreshSecret_Unique(t *testing.T) {
	t.Parallel()

	s1, err := NewRefreshSecret()
	if err != nil {
		t.Fatalf("NewRefreshSecret failed: %v", err)
	}
	s2, err := NewRefreshSecret()
	if err != nil {
		t.Fatalf("NewRefreshSecret failed: %v", err)
	}

	if s1 == s2 {
		t.Error("refresh secrets should be unique")
	}
	if len(s1) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(s1))
	}
}

func TestTokenIssuer_MintAndVerify(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer("test-signing-secret", time.Hour)

	signed, err := issuer.Mint("user-123", "user@example.com", model.TierFree)
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	claims, err := issuer.Verify(signed)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	if claims.Subject != "user-123" {
		t.Errorf("expected subject user-123, got %s", claims.Subject)
	}
	if claims.Email != "user@example.com" {
		t.Errorf("unexpected email claim: %s", claims.Email)
	}
	if claims.Tier != model.TierFree {
		t.Errorf("unexpected tier claim: %s", claims.Tier)
	}
}

func TestTokenIssuer_RejectsWrongSecret(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer("secret-a", time.Hour)
	other := NewTokenIssuer("secret-b", time.Hour)

	signed, err := issuer.Mint("user-123", "", model.TierFree)
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	if _, err := other.Verify(signed); err == nil {
		t.Error("expected verification failure with a different secret")
	}
}

func TestTokenIssuer_RejectsExpired(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer("test-signing-secret", -time.Minute)

	signed, err := issuer.Mint("user-123", "", model.TierFree)
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	if _, err := issuer.Verify(signed); err == nil {
		t.Error("expected verification failure for expired token")
	}
}

func TestTokenIssuer_RejectsGarbage(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer("test-signing-secret", time.Hour)

	if _, err := issuer.Verify("not-a-jwt"); err == nil {
		t.Error("expected verification failure for malformed token")
	}
}
