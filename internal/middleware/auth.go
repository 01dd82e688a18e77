package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"formation/internal/apiclient"
	"formation/internal/model"
	"formation/internal/util"

	"github.com/rs/zerolog"
)

// Injected key type to avoid context collisions
type contextKey string

const (
	UserContextKey = contextKey("user")
	RoleContextKey = contextKey("role")
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is the caller behind a bearer token.
type Identity struct {
	UserID string
	Role   string
}

// IdentityResolver turns a bearer token into an Identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*Identity, error)
}

// JWTResolver verifies tokens locally with the shared secret or public key.
type JWTResolver struct {
	KeyMaterial string
}

func (r JWTResolver) Resolve(_ context.Context, token string) (*Identity, error) {
	claims, err := util.ValidateJWT(token, r.KeyMaterial)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	role := claims.Role
	if role == "" {
		role = model.RoleStudent
	}
	return &Identity{UserID: claims.Identity(), Role: role}, nil
}

// UpstreamResolver asks the upstream API who the token belongs to and
// remembers the answer for ttl.
type UpstreamResolver struct {
	me  func(ctx context.Context) (*model.User, error)
	ttl time.Duration

	mu    sync.Mutex
	cache map[string]cachedIdentity
	now   func() time.Time
}

type cachedIdentity struct {
	identity *Identity
	expires  time.Time
}

func NewUpstreamResolver(me func(ctx context.Context) (*model.User, error), ttl time.Duration) *UpstreamResolver {
	return &UpstreamResolver{
		me:    me,
		ttl:   ttl,
		cache: make(map[string]cachedIdentity),
		now:   time.Now,
	}
}

func (r *UpstreamResolver) Resolve(ctx context.Context, token string) (*Identity, error) {
	now := r.now()
	r.mu.Lock()
	if c, ok := r.cache[token]; ok && now.Before(c.expires) {
		r.mu.Unlock()
		return c.identity, nil
	}
	r.mu.Unlock()

	user, err := r.me(apiclient.WithToken(ctx, token))
	if apiclient.IsUnauthorized(err) || apiclient.IsForbidden(err) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if err != nil {
		return nil, err
	}
	role := user.Role
	if role == "" {
		role = model.RoleStudent
	}
	id := &Identity{UserID: user.ID, Role: role}

	r.mu.Lock()
	for k, c := range r.cache {
		if !now.Before(c.expires) {
			delete(r.cache, k)
		}
	}
	r.cache[token] = cachedIdentity{identity: id, expires: now.Add(r.ttl)}
	r.mu.Unlock()
	return id, nil
}

// AuthMiddleware requires a bearer token, resolves the caller and forwards
// the token to upstream calls made with the request context.
func AuthMiddleware(resolver IdentityResolver, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug().Msg("Authorization header missing")
				http.Error(w, "Authorization header missing", http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				logger.Debug().Msg("Invalid authorization header")
				http.Error(w, "Invalid authorization header", http.StatusUnauthorized)
				return
			}
			token := parts[1]

			identity, err := resolver.Resolve(r.Context(), token)
			if errors.Is(err, ErrInvalidToken) {
				logger.Warn().Err(err).Msg("Invalid token")
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}
			if err != nil {
				logger.Error().Err(err).Msg("Failed to resolve caller")
				http.Error(w, apiclient.UserMessage(err), apiclient.HTTPStatus(err))
				return
			}

			ctx := apiclient.WithToken(r.Context(), token)
			ctx = context.WithValue(ctx, UserContextKey, identity.UserID)
			ctx = context.WithValue(ctx, RoleContextKey, identity.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly must run after AuthMiddleware.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if RoleFromContext(r.Context()) != model.RoleAdmin {
			http.Error(w, "Admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserContextKey).(string)
	return id, ok && id != ""
}

func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(RoleContextKey).(string)
	return role
}
