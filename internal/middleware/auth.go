package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"intercompany/internal/access"
	"intercompany/internal/model"
	"intercompany/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ctxUserID   = "userID"
	ctxUserRole = "userRole"
	ctxActor    = "actor"
)

// ActorResolver turns a token subject into the capability a request acts under.
type ActorResolver interface {
	ResolveActor(ctx context.Context, userID string) (access.Actor, *model.User, error)
}

// actorCacheEntry stores a resolved actor with TTL
type actorCacheEntry struct {
	actor     access.Actor
	role      string
	expiresAt time.Time
}

// Auth validates JWTs and resolves the acting user.
type Auth struct {
	secret   []byte
	resolver ActorResolver
	ttl      time.Duration
	cache    sync.Map // userID -> actorCacheEntry
}

func NewAuth(secret string, resolver ActorResolver) *Auth {
	return &Auth{secret: []byte(secret), resolver: resolver, ttl: 5 * time.Minute}
}

// Secret exposes the signing key for the websocket endpoint.
func (a *Auth) Secret() []byte {
	return a.secret
}

// Authenticate parses the token, resolves the user's companies and stores the
// resulting actor on the gin context.
func (a *Auth) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := extractToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
			return
		}

		claims, err := ParseToken(tokenString, a.secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
			return
		}

		sub, _ := claims["sub"].(string)
		if sub == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
			return
		}

		actor, role, err := a.resolve(c.Request.Context(), sub)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Unknown user"))
			return
		}

		c.Set(ctxUserID, sub)
		c.Set(ctxUserRole, role)
		c.Set(ctxActor, actor)
		c.Request = c.Request.WithContext(access.Into(c.Request.Context(), actor))

		c.Next()
	}
}

// RequireRole must run after Authenticate.
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := c.GetString(ctxUserRole)
		for _, role := range allowedRoles {
			if userRole == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
	}
}

// ActorFrom returns the actor installed by Authenticate.
func ActorFrom(c *gin.Context) (access.Actor, bool) {
	v, ok := c.Get(ctxActor)
	if !ok {
		return access.Actor{}, false
	}
	actor, ok := v.(access.Actor)
	return actor, ok
}

// ClearActorCache drops the cached actor of a user, or every entry when userID is empty.
func (a *Auth) ClearActorCache(userID string) {
	if userID == "" {
		a.cache.Range(func(key, _ interface{}) bool {
			a.cache.Delete(key)
			return true
		})
		return
	}
	a.cache.Delete(userID)
}

// ParseToken validates an HMAC-signed token and returns its claims.
func ParseToken(tokenString string, secret []byte) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func (a *Auth) resolve(ctx context.Context, userID string) (access.Actor, string, error) {
	if entry, ok := a.cache.Load(userID); ok {
		cached := entry.(actorCacheEntry)
		if time.Now().Before(cached.expiresAt) {
			return cached.actor, cached.role, nil
		}
	}

	actor, user, err := a.resolver.ResolveActor(ctx, userID)
	if err != nil {
		return access.Actor{}, "", err
	}

	a.cache.Store(userID, actorCacheEntry{
		actor:     actor,
		role:      user.Role,
		expiresAt: time.Now().Add(a.ttl),
	})
	return actor, user.Role, nil
}

// extractToken tries the cookie first, then the Authorization header.
func extractToken(c *gin.Context) (string, bool) {
	if tokenString, err := c.Cookie("access_token"); err == nil && tokenString != "" {
		return tokenString, true
	}
	parts := strings.Split(c.GetHeader("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
