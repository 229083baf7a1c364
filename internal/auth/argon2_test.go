package auth

import (
	"strings"
	"testing"
)

func TestHashSecret_Format(t *testing.T) {
	t.Parallel()

	secret := "4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b"

	hash, err := HashSecret(secret)
	if err != nil {
		t.Fatalf("HashSecret failed: %v", err)
	}

	// Verify PHC format: $argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>
	if !strings.HasPrefix(hash, "$argon2id$v=") {
		t.Errorf("Hash should be in PHC format, got: %s", hash)
	}

	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		t.Errorf("Hash should have 6 parts, got: %d", len(parts))
	}

	if parts[1] != "argon2id" {
		t.Errorf("Expected argon2id algorithm, got: %s", parts[1])
	}
	if parts[2] != "v=19" {
		t.Errorf("Expected v=19, got: %s", parts[2])
	}
	if parts[3] != "m=65536,t=3,p=4" {
		t.Errorf("Expected m=65536,t=3,p=4, got: %s", parts[3])
	}
}

func TestHashSecret_Uniqueness(t *testing.T) {
	t.Parallel()

	secret := "the_same_secret_12345"

	hash1, err := HashSecret(secret)
	if err != nil {
		t.Fatalf("HashSecret failed: %v", err)
	}

	hash2, err := HashSecret(secret)
	if err != nil {
		t.Fatalf("HashSecret failed: %v", err)
	}

	// Same secret should produce different hashes (different salts)
	if hash1 == hash2 {
		t.Error("Same secret should produce different hashes due to random salt")
	}

	// But both should be valid and verify correctly
	match1, _ := VerifySecret(secret, hash1)
	match2, _ := VerifySecret(secret, hash2)

	if !match1 || !match2 {
		t.Error("Both hashes should verify correctly")
	}
}

func TestVerifySecret_Correct(t *testing.T) {
	t.Parallel()

	secret := "refresh-secret-value"

	hash, err := HashSecret(secret)
	if err != nil {
		t.Fatalf("HashSecret failed: %v", err)
	}

	match, err := VerifySecret(secret, hash)
	if err != nil {
		t.Fatalf("VerifySecret failed: %v", err)
	}
	if !match {
		t.Error("Correct secret should verify")
	}
}

func TestVerifySecret_Incorrect(t *testing.T) {
	t.Parallel()

	hash, err := HashSecret("right-secret")
	if err != nil {
		t.Fatalf("HashSecret failed: %v", err)
	}

	match, err := VerifySecret("wrong-secret", hash)
	if err != nil {
		t.Fatalf("VerifySecret failed: %v", err)
	}
	if match {
		t.Error("Wrong secret should not verify")
	}
}

func TestVerifySecret_InvalidHashFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"not phc", "plainhash"},
		{"wrong algorithm", "$bcrypt$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA"},
		{"too few parts", "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA"},
		{"bad salt encoding", "$argon2id$v=19$m=65536,t=3,p=4$!!!$aGFzaA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := VerifySecret("secret", tt.hash); err == nil {
				t.Error("expected error for invalid hash format")
			}
		})
	}
}

func TestTokenHash_Deterministic(t *testing.T) {
	t.Parallel()

	h1 := TokenHash("token-material")
	h2 := TokenHash("token-material")

	if h1 != h2 {
		t.Error("TokenHash should be deterministic")
	}

	// SHA256 hex digest
	if len(h1) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(h1))
	}
}

func TestTokenHash_Different(t *testing.T) {
	t.Parallel()

	if TokenHash("token-a") == TokenHash("token-b") {
		t.Error("different tokens should hash differently")
	}
}
