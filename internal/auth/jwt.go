package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// roleAdmin is the only role this service issues; tokens exist solely to
// guard the administration surface.
const roleAdmin = "admin"

// Token is a signed admin access token and its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Claims is the payload of an admin token. Subject carries the admin id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueAdmin signs an HS256 access token for an administrator account.
// Sessions are stateless: expiry is the only revocation, so keep ttl short
// and log in again.
func IssueAdmin(adminID, issuer, key string, ttl time.Duration) (Token, error) {
	now := time.Now()
	exp := now.Add(ttl)
	claims := Claims{
		Role: roleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   adminID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		return Token{}, err
	}
	return Token{Value: signed, ExpiresAt: exp}, nil
}

// Parse validates a token string and returns its claims. Tokens signed with
// another method or key, expired, or issued by someone else are rejected.
func Parse(tokenStr, key, issuer string) (Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	var claims Claims
	parsed, err := jwt.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(key), nil
	}, opts...)
	if err != nil {
		return Claims{}, err
	}
	if !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	return claims, nil
}
