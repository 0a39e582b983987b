package middleware

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"crudkit/pkg/audit"
)

type contextKey string

const subjectKey contextKey = "subject"

var bearerRegex = regexp.MustCompile(`^Bearer (\S+)$`)

// Guard is middleware that validates signed bearer tokens on protected
// routes. Tokens are HS256 JWTs carrying the caller identity in the subject
// claim.
type Guard struct {
	Secret []byte
	TTL    time.Duration
}

// NewGuard creates a new token guard middleware
func NewGuard(secret []byte, ttl time.Duration) *Guard {
	return &Guard{Secret: secret, TTL: ttl}
}

// Issue mints a token for a subject, valid for the guard's TTL.
func (g *Guard) Issue(subject string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(g.TTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.Secret)
}

// Middleware returns an HTTP middleware that validates bearer tokens
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")

		if len(authHeader) == 0 {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Authorization missing"))
			return
		}

		tokenMatches := bearerRegex.FindStringSubmatch(authHeader)
		if len(tokenMatches) != 2 {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Malformed authorization header"))
			return
		}

		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(
			tokenMatches[1],
			claims,
			func(token *jwt.Token) (interface{}, error) {
				return g.Secret, nil
			},
			jwt.WithValidMethods([]string{"HS256"}),
		)
		if err != nil {
			audit.Log(audit.AuthEvent{
				Subject:      claims.Subject,
				ClientIP:     r.RemoteAddr,
				ErrorMessage: err.Error(),
			})
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte("Token expired"))
			case errors.Is(err, jwt.ErrTokenSignatureInvalid):
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte("Invalid signature"))
			default:
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte("Malformed authorization token"))
			}
			return
		}

		audit.Log(audit.AuthEvent{
			Subject:  claims.Subject,
			ClientIP: r.RemoteAddr,
			Success:  true,
		})
		ctx := context.WithValue(r.Context(), subjectKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Subject returns the authenticated subject stored on the request context
// by the guard middleware.
func Subject(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectKey).(string)
	return subject, ok
}
