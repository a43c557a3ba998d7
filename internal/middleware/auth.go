package middleware

import (
	"errors"
	"net/http"
	"strings"

	"garage/internal/model"
	"garage/internal/workflow"
	"garage/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const actorKey = "actor"

// Authenticate validates the JWT issued by the identity service and stores
// the caller's employee id and role on the context.
func Authenticate(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Try cookie first, fallback to Authorization header
		tokenString, cookieErr := c.Cookie("access_token")
		if cookieErr != nil || tokenString == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid authorization format. Expected 'Bearer <token>'"))
				return
			}
			tokenString = parts[1]
		}

		actor, err := ParseToken(secret, tokenString)
		if err != nil {
			status := http.StatusUnauthorized
			if errors.Is(err, errUnknownRole) {
				status = http.StatusForbidden
			}
			c.AbortWithStatusJSON(status, response.Error(status, err.Error()))
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

var (
	errInvalidToken = errors.New("invalid token")
	errUnknownRole  = errors.New("role not found in token")
)

// ParseToken verifies an HMAC-signed token and returns the identity it carries
func ParseToken(secret []byte, tokenString string) (workflow.Actor, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return workflow.Actor{}, errInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return workflow.Actor{}, errInvalidToken
	}

	sub, _ := claims["sub"].(string)
	employeeID, err := uuid.Parse(sub)
	if err != nil {
		return workflow.Actor{}, errInvalidToken
	}
	role, _ := claims["role"].(string)
	if !model.Role(role).Valid() {
		return workflow.Actor{}, errUnknownRole
	}
	return workflow.Actor{EmployeeID: employeeID, Role: model.Role(role)}, nil
}

// RequireRole rejects callers whose role is not listed. Use it for routes
// that have no workflow action of their own.
func RequireRole(allowed ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Unauthenticated"))
			return
		}
		for _, r := range allowed {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
	}
}

// ActorFrom returns the identity Authenticate stored on the context
func ActorFrom(c *gin.Context) (workflow.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return workflow.Actor{}, false
	}
	actor, ok := v.(workflow.Actor)
	return actor, ok
}

// IssueToken signs a token in the shape Authenticate expects. Used by tests
// and local tooling; production tokens come from the identity service.
func IssueToken(secret []byte, employeeID uuid.UUID, role model.Role) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  employeeID.String(),
		"role": string(role),
	})
	return token.SignedString(secret)
}
