package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/medboard/bedside-api/internal/service/audit"
)

const actorContextKey = "actor"

// AuthMiddleware resolves the acting clinician from the session token
// issued by the host's login service. This service performs no login
// itself; it only trusts and decodes.
type AuthMiddleware struct {
	secret []byte
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret)}
}

type staffClaims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims := &staffClaims{}
		token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return m.secret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid subject"})
			return
		}

		c.Set(actorContextKey, audit.Actor{
			ID:   userID,
			Name: claims.Name,
			Role: claims.Role,
		})
		c.Next()
	}
}

// ActorFromContext returns the authenticated actor set by
// Authenticate.
func ActorFromContext(c *gin.Context) (audit.Actor, bool) {
	v, ok := c.Get(actorContextKey)
	if !ok {
		return audit.Actor{}, false
	}
	actor, ok := v.(audit.Actor)
	return actor, ok
}
