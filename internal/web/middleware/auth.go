package middleware

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/JonMunkholm/records/internal/config"
	"github.com/JonMunkholm/records/internal/logging"
)

var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// APIKeySubject is the subject recorded for requests authenticated with an
// X-API-Key.
const APIKeySubject = "api-key"

// Auth returns middleware that authenticates requests with either an
// X-API-Key header or an HS256 bearer token. When AuthRequired is false all
// requests pass through unauthenticated.
//
// Missing credentials yield 401, rejected credentials 403. On success the
// subject is recorded with logging.WithSubject.
func Auth(cfg config.SecurityConfig) func(http.Handler) http.Handler {
	secret := []byte(cfg.JWTSecret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.AuthRequired {
				next.ServeHTTP(w, r)
				return
			}

			subject, err := authenticate(r, cfg.APIKeys, secret)
			if err != nil {
				status := http.StatusForbidden
				if errors.Is(err, ErrMissingCredentials) {
					status = http.StatusUnauthorized
				}
				slog.Warn("auth: request rejected",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
					"error", err,
				)
				writeError(w, status, err)
				return
			}

			ctx := logging.WithSubject(r.Context(), subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(r *http.Request, keys []string, secret []byte) (string, error) {
	if key := r.Header.Get("X-API-Key"); key != "" {
		if !isValidAPIKey(key, keys) {
			return "", ErrInvalidCredentials
		}
		return APIKeySubject, nil
	}

	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", ErrMissingCredentials
	}
	if len(secret) == 0 {
		return "", fmt.Errorf("%w: bearer tokens are not accepted", ErrInvalidCredentials)
	}

	subject, err := verifyToken(strings.TrimSpace(token), secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	return subject, nil
}

// verifyToken checks signature, algorithm and expiry and returns the sub
// claim.
func verifyToken(tokenString string, secret []byte) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", err
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	if subject == "" {
		return "", errors.New("token has no subject")
	}
	return subject, nil
}

// isValidAPIKey checks if the provided key matches any configured key.
// Every key is compared so timing does not reveal which one matched.
func isValidAPIKey(key string, validKeys []string) bool {
	valid := 0
	for _, validKey := range validKeys {
		valid |= subtle.ConstantTimeCompare([]byte(key), []byte(validKey))
	}
	return valid == 1
}
