package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/models"
)

var (
	// ErrTokenInvalid is the only token failure callers should branch on.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired distinguishes lapsed tokens internally for logging.
	ErrTokenExpired = fmt.Errorf("token expired: %w", ErrTokenInvalid)
	// ErrTokenMalformed distinguishes unparseable tokens internally for logging.
	ErrTokenMalformed = fmt.Errorf("token malformed: %w", ErrTokenInvalid)
	// ErrTokenSignature distinguishes signature/secret mismatches internally for logging.
	ErrTokenSignature = fmt.Errorf("token signature mismatch: %w", ErrTokenInvalid)
)

const tokenIssuer = "vidtube"

// AccessClaims are carried by short-lived access tokens. Username and email
// are convenience reads that spare a store hit on authenticated requests.
type AccessClaims struct {
	jwt.RegisteredClaims

	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// RefreshClaims carry only the user id, keeping the long-lived token's
// surface minimal.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies the two token classes. Access and refresh
// tokens use separate secrets so compromise of one cannot mint the other.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	now func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer with the provided secrets and TTLs.
func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	if accessSecret == "" || refreshSecret == "" {
		panic("auth: token secrets must not be empty")
	}
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// IssueAccessToken signs a short-lived access token for the user.
func (t *TokenIssuer) IssueAccessToken(user models.User) (string, time.Time, error) {
	now := t.now().UTC()
	expiresAt := now.Add(t.accessTTL)

	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Username: user.Username,
		Email:    user.Email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.accessSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

// IssueRefreshToken signs a long-lived refresh token carrying only the user id.
func (t *TokenIssuer) IssueRefreshToken(userID string) (string, time.Time, error) {
	now := t.now().UTC()
	expiresAt := now.Add(t.refreshTTL)

	// The unique id makes every signed token distinct, which rotation
	// relies on to detect reuse of a superseded token.
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.refreshSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, expiresAt, nil
}

// VerifyAccess validates an access token and returns its claims.
func (t *TokenIssuer) VerifyAccess(token string) (AccessClaims, error) {
	var claims AccessClaims
	if err := t.verify(token, &claims, t.accessSecret); err != nil {
		return AccessClaims{}, err
	}
	return claims, nil
}

// VerifyRefresh validates a refresh token and returns its claims.
func (t *TokenIssuer) VerifyRefresh(token string) (RefreshClaims, error) {
	var claims RefreshClaims
	if err := t.verify(token, &claims, t.refreshSecret); err != nil {
		return RefreshClaims{}, err
	}
	return claims, nil
}

func (t *TokenIssuer) verify(token string, claims jwt.Claims, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", tok.Method.Alg())
		}
		return secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return t.now().UTC() }))

	switch {
	case err == nil && parsed.Valid:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrTokenSignature
	default:
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
}
