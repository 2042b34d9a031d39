package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/avdeluca/inkwell-be/internal/apperr"
	"github.com/avdeluca/inkwell-be/internal/models"
)

// Claims defines the JWT claims structure.
type Claims struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

type contextKey string

// callerKey is the context key for the authenticated caller.
const callerKey = contextKey("caller")

// UserLookup resolves a token subject to a live account. Tokens whose
// subject no longer exists are rejected.
type UserLookup interface {
	GetUserByID(id string) (models.User, error)
}

// Manager issues and validates signed session tokens. The secret is
// injected from configuration rather than read from ambient state so
// tests can run with their own key.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager creates a token manager with the given signing secret and
// token validity window.
func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl}
}

// GenerateToken creates a new signed JWT for a given user.
func (m *Manager) GenerateToken(user models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Name:   user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateToken parses and validates a JWT string.
func (m *Manager) ValidateToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, apperr.Unauthenticated("invalid token")
	}
	if !token.Valid {
		return nil, apperr.Unauthenticated("invalid token")
	}
	return claims, nil
}

// Verify resolves a raw token to the identity it names, checking that
// the account still exists.
func (m *Manager) Verify(tokenStr string, users UserLookup) (models.UserSummary, error) {
	claims, err := m.ValidateToken(tokenStr)
	if err != nil {
		return models.UserSummary{}, err
	}
	user, err := users.GetUserByID(claims.UserID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return models.UserSummary{}, apperr.Unauthenticated("user no longer exists")
		}
		return models.UserSummary{}, err
	}
	return user.Summary(), nil
}

// Require creates a middleware that rejects requests without a valid
// token for a live account.
func (m *Manager) Require(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := extractToken(r)
			if tokenStr == "" {
				unauthorized(w, "missing auth token")
				return
			}

			caller, err := m.Verify(tokenStr, users)
			if err != nil {
				unauthorized(w, "invalid auth token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// Optional creates a middleware that attaches the caller identity when
// a valid token is present and lets the request through anonymously
// otherwise. Used by the comment endpoint.
func (m *Manager) Optional(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenStr := extractToken(r); tokenStr != "" {
				if caller, err := m.Verify(tokenStr, users); err == nil {
					r = r.WithContext(WithCaller(r.Context(), caller))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractToken pulls the bearer token from the Authorization header,
// falling back to the session cookie.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := r.Cookie("token"); err == nil {
		return cookie.Value
	}
	return ""
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"success":false,"error":%q}`, msg)
}

// WithCaller returns a context carrying the authenticated identity.
func WithCaller(ctx context.Context, caller models.UserSummary) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// CallerFromContext returns the authenticated identity, if any.
func CallerFromContext(ctx context.Context) (models.UserSummary, bool) {
	caller, ok := ctx.Value(callerKey).(models.UserSummary)
	return caller, ok
}
