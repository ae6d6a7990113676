// Package identity resolves caller identity from request credentials. Identity
// issuance (login, password flows) is an external collaborator; this package
// only validates tokens that flow has already minted.
package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domain "sentra/pkg/domain"
	dErrors "sentra/pkg/domain-errors"
)

// JWTVerifier validates HMAC-signed bearer tokens and extracts the user ID
// from the subject claim.
type JWTVerifier struct {
	signingKey []byte
}

// NewJWTVerifier builds a verifier for the shared signing key.
func NewJWTVerifier(signingKey string) *JWTVerifier {
	return &JWTVerifier{signingKey: []byte(signingKey)}
}

// Verify parses and validates the token, returning the caller's user ID.
func (v *JWTVerifier) Verify(tokenString string) (domain.UserID, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return domain.UserID{}, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid bearer token")
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return domain.UserID{}, dErrors.New(dErrors.CodeUnauthorized, "token missing subject")
	}

	userID, err := domain.ParseUserID(subject)
	if err != nil {
		return domain.UserID{}, dErrors.Wrap(err, dErrors.CodeUnauthorized, "token subject is not a user ID")
	}
	return userID, nil
}

// Mint issues a short-lived identity token. Exposed for tests and the lab
// tooling; production identity issuance lives outside this engine.
func (v *JWTVerifier) Mint(userID domain.UserID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign identity token: %w", err)
	}
	return signed, nil
}
