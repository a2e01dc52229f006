package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/vidtube/backend/internal/models"
)

func testUser() models.User {
	return models.User{
		ID:       "user-1",
		Username: "alice",
		Email:    "alice@example.com",
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret", time.Minute, time.Hour)

	token, expiresAt, err := issuer.IssueAccessToken(testUser())
	if err != nil {
		t.Fatalf("issue access token: %v", err)
	}
	if token == "" {
		t.Fatal("expected a signed token")
	}
	if !expiresAt.After(time.Now()) {
		t.Fatalf("expected future expiry, got %v", expiresAt)
	}

	claims, err := issuer.VerifyAccess(token)
	if err != nil {
		t.Fatalf("verify access token: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("expected subject user-1 got %q", claims.Subject)
	}
	if claims.Username != "alice" || claims.Email != "alice@example.com" {
		t.Fatalf("unexpected convenience claims: %+v", claims)
	}
}

func TestRefreshTokenClaimsMinimal(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret", time.Minute, time.Hour)

	token, _, err := issuer.IssueRefreshToken("user-9")
	if err != nil {
		t.Fatalf("issue refresh token: %v", err)
	}

	claims, err := issuer.VerifyRefresh(token)
	if err != nil {
		t.Fatalf("verify refresh token: %v", err)
	}
	if claims.Subject != "user-9" {
		t.Fatalf("expected subject user-9 got %q", claims.Subject)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret", time.Minute, time.Hour)

	issued := time.Now().UTC()
	issuer.now = func() time.Time { return issued }

	token, _, err := issuer.IssueAccessToken(testUser())
	if err != nil {
		t.Fatalf("issue access token: %v", err)
	}

	issuer.now = func() time.Time { return issued.Add(2 * time.Minute) }

	if _, err := issuer.VerifyAccess(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired got %v", err)
	}
	if _, err := issuer.VerifyAccess(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatal("expired tokens must also match ErrTokenInvalid")
	}
}

func TestVerifySecretsAreSeparate(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret", time.Minute, time.Hour)

	access, _, err := issuer.IssueAccessToken(testUser())
	if err != nil {
		t.Fatalf("issue access token: %v", err)
	}

	// An access token must not verify as a refresh token.
	if _, err := issuer.VerifyRefresh(access); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid got %v", err)
	}

	other := NewTokenIssuer("different-secret", "refresh-secret", time.Minute, time.Hour)
	if _, err := other.VerifyAccess(access); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected signature mismatch to fail, got %v", err)
	}
}

func TestVerifyMalformedToken(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret", time.Minute, time.Hour)

	if _, err := issuer.VerifyAccess("not.a.jwt"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid got %v", err)
	}
	if _, err := issuer.VerifyAccess(""); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for empty token got %v", err)
	}
}
