package auth

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Service issues and verifies the signed bearer tokens that gate every write
// endpoint. Tokens are HS256 JWTs carrying the user id as the `sub` claim and
// nothing else; verification returns that single canonical identifier.
type Service struct {
	secret []byte
	ttl    time.Duration
}

type Config struct {
	Secret string
	TTL    time.Duration
}

var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// ConfigFromEnv reads token config from env vars. APP_JWT_SECRET is required:
// starting up without it would mean signing tokens with a guessable value, so
// the caller is expected to treat the error as fatal.
func ConfigFromEnv() (Config, error) {
	secret := os.Getenv("APP_JWT_SECRET")
	if secret == "" {
		return Config{}, errors.New("APP_JWT_SECRET is required")
	}
	ttl := 72 * time.Hour
	if v := os.Getenv("APP_JWT_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, errors.New("APP_JWT_TTL is not a valid duration")
		}
		ttl = d
	}
	return Config{Secret: secret, TTL: ttl}, nil
}

func NewService(cfg Config) *Service {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 72 * time.Hour
	}
	return &Service{secret: []byte(cfg.Secret), ttl: ttl}
}

// Issue creates a signed token for the given user id, valid for the
// configured TTL.
func (s *Service) Issue(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses and validates a token and returns its subject. It reports
// ErrTokenExpired for tokens past their validity window (even with a valid
// signature) and ErrTokenInvalid for anything else: bad signature, malformed
// structure, wrong algorithm, or a missing subject.
func (s *Service) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", ErrTokenInvalid
	}
	return claims.Subject, nil
}
