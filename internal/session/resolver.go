package session

import (
	"errors"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	defaultIssuer = "closet-auth"
	defaultLeeway = 30 * time.Second
)

// ErrNoSession indicates the request carries no valid session.
var ErrNoSession = errors.New("no session")

// Config configures session token verification.
type Config struct {
	Secret string
	Issuer string
	Leeway time.Duration
}

// Resolver validates bearer tokens minted by the auth frontend and extracts
// the subject user id (HS256, shared secret).
type Resolver struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// NewResolver creates a session resolver.
func NewResolver(cfg Config) (*Resolver, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("session resolver requires a secret")
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = defaultIssuer
	}
	leeway := cfg.Leeway
	if leeway <= 0 {
		leeway = defaultLeeway
	}
	return &Resolver{secret: []byte(secret), issuer: issuer, leeway: leeway}, nil
}

// UserID resolves the caller's user id from the Authorization header.
// Returns ErrNoSession when the header is missing, malformed, or the token
// fails verification.
func (s *Resolver) UserID(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", ErrNoSession
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrNoSession
	}
	return s.verify(strings.TrimSpace(parts[1]))
}

func (s *Resolver) verify(token string) (string, error) {
	claims := jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(s.leeway),
	)
	if err != nil || !parsed.Valid {
		return "", ErrNoSession
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", ErrNoSession
	}
	return subject, nil
}
