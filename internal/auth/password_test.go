package auth

import (
	"strings"
	"testing"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hashed, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hashed == "correct horse battery staple" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !strings.HasPrefix(hashed, "$2") {
		t.Fatalf("expected a bcrypt hash, got %q", hashed)
	}

	if !CheckPassword("correct horse battery staple", hashed) {
		t.Fatal("expected password to verify")
	}
	if CheckPassword("wrong password", hashed) {
		t.Fatal("expected mismatch to fail")
	}
}

func TestCheckPasswordMalformedHash(t *testing.T) {
	if CheckPassword("anything", "not-a-hash") {
		t.Fatal("malformed hash must never verify")
	}
}

func TestHashPasswordSalted(t *testing.T) {
	first, err := HashPassword("same input")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := HashPassword("same input")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct salts to yield distinct hashes")
	}
}
