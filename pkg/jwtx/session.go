package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a session token and returns its claims.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// SessionKeys signs and verifies HS256 session tokens with a shared secret.
type SessionKeys struct {
	secret []byte
	issuer string
	ttl    time.Duration
	leeway time.Duration
	now    func() time.Time
}

// NewSessionKeys returns keys for secret. ttl <= 0 uses DefaultSessionTTL.
func NewSessionKeys(secret []byte, issuer string, ttl time.Duration) (*SessionKeys, error) {
	if len(secret) < 32 {
		return nil, errors.New("jwtx: session secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionKeys{
		secret: secret,
		issuer: issuer,
		ttl:    ttl,
		leeway: 30 * time.Second,
		now:    time.Now,
	}, nil
}

func (k *SessionKeys) TTL() time.Duration { return k.ttl }

// Issue signs a new session for userID.
func (k *SessionKeys) Issue(userID, email string) (string, Claims, error) {
	claims := NewSessionClaims(userID, email, k.issuer, k.ttl, k.now().UTC())
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(k.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("jwtx: sign: %w", err)
	}
	return token, claims, nil
}

// Verify parses token, checks the HS256 signature, issuer and expiry.
func (k *SessionKeys) Verify(token string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	var claims Claims
	parsed, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return k.secret, nil
	})
	switch {
	case parsed != nil && parsed.Method != nil && parsed.Method.Alg() != jwt.SigningMethodHS256.Alg():
		// The parser reports a disallowed alg as a bad signature.
		return Claims{}, fmt.Errorf("%w: unexpected alg %q", ErrMalformed, parsed.Method.Alg())
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return Claims{}, ErrInvalidSig
	case err != nil:
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	case !parsed.Valid:
		return Claims{}, ErrMalformed
	}

	if err := claims.ValidateIssuer(k.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiry(k.now().UTC(), k.leeway); err != nil {
		return Claims{}, err
	}
	if claims.Subject == "" {
		return Claims{}, ErrNoSubject
	}
	return claims, nil
}
