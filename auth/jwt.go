package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken  = errors.New("missing authentication token")
	ErrInvalidToken  = errors.New("invalid token")
	ErrMissingEmail  = errors.New("token has no email claim")
	ErrMissingSecret = errors.New("jwt secret is required")
)

// Claims is the part of the session token the cache cares about.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

/*
JWTProvider derives the identity from an HS256 session token.

Before the first SetToken it is unresolved, mirroring a session that has
not finished loading. Logout resolves it to the empty identity.
*/
type JWTProvider struct {
	secret []byte
	issuer string
	now    func() time.Time

	mu       sync.RWMutex
	token    string
	email    string
	resolved bool
}

func NewJWTProvider(secret, issuer string, now func() time.Time) (*JWTProvider, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if now == nil {
		now = time.Now
	}
	return &JWTProvider{secret: []byte(secret), issuer: issuer, now: now}, nil
}

func (p *JWTProvider) Identity() (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.email, p.resolved
}

// SetToken validates a bearer token and adopts its email. On error the
// provider keeps its previous identity.
func (p *JWTProvider) SetToken(token string) error {
	claims, err := p.Validate(token)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	p.email, p.resolved = claims.Email, true
	p.mu.Unlock()
	return nil
}

// Token is the raw token adopted by the last SetToken, or "" after Logout.
func (p *JWTProvider) Token() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.token
}

// Logout resolves the provider to no identity.
func (p *JWTProvider) Logout() {
	p.mu.Lock()
	p.token, p.email, p.resolved = "", "", true
	p.mu.Unlock()
}

// Validate parses and verifies token, accepting an optional "Bearer " prefix.
func (p *JWTProvider) Validate(token string) (*Claims, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return nil, ErrMissingToken
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.now),
	}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return p.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Email == "" {
		return nil, ErrMissingEmail
	}
	return claims, nil
}

// Sign issues a token for email. Used by the demo and tests; production
// tokens come from the identity provider.
func (p *JWTProvider) Sign(email string, ttl time.Duration) (string, error) {
	now := p.now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}
