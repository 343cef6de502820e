package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind distinguishes the two credential classes.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

var (
	// ErrExpired means the token was once valid but its lifetime elapsed
	ErrExpired = errors.New("token expired")
	// ErrBadSignature means the signature does not verify against the secret
	ErrBadSignature = errors.New("token signature invalid")
	// ErrMalformed means the token could not be parsed at all
	ErrMalformed = errors.New("token malformed")
	// ErrWrongKind means a refresh token was presented where an access
	// token was required, or vice versa
	ErrWrongKind = errors.New("token kind mismatch")
)

// Claims carried inside every issued credential.
type Claims struct {
	SubjectID uuid.UUID `json:"sub"`
	Email     string    `json:"email"`
	Kind      Kind      `json:"kind"`
	jwt.RegisteredClaims
}

// Codec issues and verifies signed credentials. Issue and Verify are
// pure and safe for concurrent use; the secret is read-only after
// construction.
type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewCodec builds a codec. An empty secret silently disables
// authenticity, so it is rejected here and the caller must treat the
// error as fatal at startup.
func NewCodec(secret string, accessTTL, refreshTTL time.Duration) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("signing secret is required")
	}
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 24 * time.Hour
	}

	return &Codec{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

func (c *Codec) lifetime(kind Kind) time.Duration {
	if kind == KindRefresh {
		return c.refreshTTL
	}
	return c.accessTTL
}

// Issue mints a new signed credential for the subject.
func (c *Codec) Issue(subjectID uuid.UUID, email string, kind Kind) (string, error) {
	now := time.Now()

	claims := Claims{
		SubjectID: subjectID,
		Email:     email,
		Kind:      kind,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.lifetime(kind))),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Verify checks signature and expiry and returns the decoded claims.
// Failures map to ErrExpired, ErrBadSignature or ErrMalformed so logs
// can tell them apart; callers must deny on any of them.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	var claims Claims

	parsed, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		// HMAC comparison inside the library is constant-time
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	})

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrBadSignature
		default:
			return nil, ErrMalformed
		}
	}

	if !parsed.Valid {
		return nil, ErrBadSignature
	}

	return &claims, nil
}

// VerifyAccess is Verify restricted to access credentials. Protected
// routes use this so a longer-lived refresh token cannot stand in for
// an access token.
func (c *Codec) VerifyAccess(tokenString string) (*Claims, error) {
	claims, err := c.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Kind != KindAccess {
		return nil, ErrWrongKind
	}
	return claims, nil
}

// Refresh verifies a refresh credential and mints a fresh access
// credential for the same subject. The refresh token's own expiry is
// never extended; once it lapses the caller must log in again.
func (c *Codec) Refresh(refreshToken string) (string, error) {
	claims, err := c.Verify(refreshToken)
	if err != nil {
		return "", err
	}
	if claims.Kind != KindRefresh {
		return "", ErrWrongKind
	}

	return c.Issue(claims.SubjectID, claims.Email, KindAccess)
}

// AccessTTL reports the configured access credential lifetime.
func (c *Codec) AccessTTL() time.Duration {
	return c.accessTTL
}
