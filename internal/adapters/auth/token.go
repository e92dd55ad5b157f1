// Package auth holds the admin token issuers and the password hasher.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"healthdir/internal/domain"
)

// DefaultStaticToken is handed to every admin when no JWT secret is configured.
const DefaultStaticToken = "mock-jwt-token"

var ErrInvalidToken = errors.New("invalid token")

// Static issues one constant, non-expiring token. Verify cannot tell admins
// apart, so it reports the configured subject.
type Static struct {
	token   string
	subject string
}

func NewStatic(token, subject string) *Static {
	if token == "" {
		token = DefaultStaticToken
	}
	return &Static{token: token, subject: subject}
}

func (s *Static) Issue(domain.AdminUser) (string, error) { return s.token, nil }

func (s *Static) Verify(token string) (string, error) {
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.token)) != 1 {
		return "", ErrInvalidToken
	}
	return s.subject, nil
}

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWT issues HS256 tokens carrying the username as subject.
type JWT struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWT(secret string, ttl time.Duration) *JWT {
	return &JWT{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (j *JWT) Issue(u domain.AdminUser) (string, error) {
	now := j.now()
	claims := Claims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}

func (j *JWT) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return j.secret, nil
	}, jwt.WithTimeFunc(j.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
