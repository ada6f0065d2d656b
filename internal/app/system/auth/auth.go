package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/greenreach/internal/app/system/identity"
	"github.com/dalemusser/greenreach/internal/app/system/respond"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Tokens                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// Claims is the payload carried by a bearer token.
// Subject is the user's ObjectID hex.
type Claims struct {
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// TokenManager issues and verifies HS256 bearer tokens.
type TokenManager struct {
	secret  []byte
	issuer  string
	ttl     time.Duration
	now     func() time.Time
	checker IdentityChecker
}

// IdentityChecker re-validates a verified identity against stored state,
// returning false when the account should no longer be admitted.
type IdentityChecker interface {
	CheckIdentity(ctx context.Context, id identity.Identity) (identity.Identity, bool)
}

// SetChecker installs a checker consulted by LoadIdentity after each verified token.
func (m *TokenManager) SetChecker(c IdentityChecker) {
	m.checker = c
}

// NewTokenManager validates the secret and builds a TokenManager.
func NewTokenManager(secret, issuer string, ttl time.Duration, logger *zap.Logger) (*TokenManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is empty; provide ≥32 random chars")
	}
	if len(secret) < 32 {
		logger.Warn("jwt secret is short; 32+ chars recommended",
			zap.Int("length", len(secret)))
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue mints a token for id. It returns the signed token and its expiry.
func (m *TokenManager) Issue(id identity.Identity) (string, time.Time, error) {
	if !id.Valid() {
		return "", time.Time{}, errors.New("cannot issue token for invalid identity")
	}
	now := m.now().UTC()
	exp := now.Add(m.ttl)
	claims := Claims{
		Role: id.Role.String(),
		Name: id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.UserID.Hex(),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify parses and validates a token and returns the identity it carries.
func (m *TokenManager) Verify(raw string) (identity.Identity, error) {
	var claims Claims
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil || !tok.Valid {
		return identity.Identity{}, ErrInvalidToken
	}
	id, err := identity.New(claims.Subject, claims.Role, claims.Name)
	if err != nil {
		// Signed by us but carrying an unusable subject or role: fail closed.
		return identity.Identity{}, ErrInvalidToken
	}
	return id, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, error) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if h == "" {
		return "", ErrMissingToken
	}
	scheme, tok, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tok) == "" {
		return "", ErrInvalidToken
	}
	return strings.TrimSpace(tok), nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Current-identity helper                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey string

const currentIdentityKey ctxKey = "currentIdentity"

// CurrentIdentity returns the caller & “found?” flag.
func CurrentIdentity(r *http.Request) (identity.Identity, bool) {
	return FromContext(r.Context())
}

// FromContext returns the identity stored in ctx, if any.
func FromContext(ctx context.Context) (identity.Identity, bool) {
	id, ok := ctx.Value(currentIdentityKey).(identity.Identity)
	return id, ok && id.Valid()
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id identity.Identity) context.Context {
	return context.WithValue(ctx, currentIdentityKey, id)
}

// WithTestIdentity injects id into the request context, bypassing token checks.
func WithTestIdentity(r *http.Request, id identity.Identity) *http.Request {
	return r.WithContext(WithIdentity(r.Context(), id))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// LoadIdentity injects the caller into context when a valid bearer token is present.
// Requests without a token, or with a bad one, continue anonymously;
// RequireSignedIn decides whether that is acceptable.
func (m *TokenManager) LoadIdentity(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := BearerToken(r)
			if err != nil {
				if !errors.Is(err, ErrMissingToken) {
					logger.Debug("malformed authorization header", zap.String("path", r.URL.Path))
				}
				next.ServeHTTP(w, r)
				return
			}
			id, err := m.Verify(raw)
			if err != nil {
				logger.Debug("bearer token rejected", zap.String("path", r.URL.Path), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if m.checker != nil {
				checked, ok := m.checker.CheckIdentity(r.Context(), id)
				if !ok {
					logger.Info("token for inactive account ignored", zap.String("user_id", id.UserID.Hex()))
					next.ServeHTTP(w, r)
					return
				}
				id = checked
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireSignedIn ensures there is an identity in context (set by LoadIdentity).
// If not signed in: 401 {"message": ...}.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentIdentity(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		respond.Message(w, http.StatusUnauthorized, "Authentication required.")
	})
}

// RequireRole ensures the caller has one of the allowed roles.
// Not signed in → 401; signed in with another role → 403.
func RequireRole(allowed ...identity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := CurrentIdentity(r)
			if !ok {
				respond.Message(w, http.StatusUnauthorized, "Authentication required.")
				return
			}
			if !id.Is(allowed...) {
				respond.Message(w, http.StatusForbidden, "You don't have permission to perform this action.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
