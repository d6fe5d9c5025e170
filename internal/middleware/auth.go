package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"workforce-service/internal/services"
)

// principalContextKey is the gin context key carrying the authenticated principal
const principalContextKey = "principal"

// Claims is the JWT payload issued by the identity service
type Claims struct {
	StaffID  string `json:"staffId,omitempty"`
	BranchID string `json:"branchId,omitempty"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates the bearer token and places the resulting
// principal on the request context. The token subject is the user ID;
// staffId and branchId claims are optional.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format, expected Bearer token"})
			c.Abort()
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token subject"})
			c.Abort()
			return
		}

		principal := services.Principal{
			UserID: userID,
			Role:   claims.Role,
		}
		if claims.StaffID != "" {
			if staffID, err := uuid.Parse(claims.StaffID); err == nil {
				principal.StaffID = &staffID
			}
		}
		if claims.BranchID != "" {
			if branchID, err := uuid.Parse(claims.BranchID); err == nil {
				principal.BranchID = &branchID
			}
		}

		c.Set(principalContextKey, principal)
		c.Set("user_id", userID.String())
		c.Next()
	}
}

// GetPrincipal retrieves the authenticated principal from the context.
// The second return is false when auth middleware did not run.
func GetPrincipal(c *gin.Context) (services.Principal, bool) {
	value, exists := c.Get(principalContextKey)
	if !exists {
		return services.Principal{}, false
	}
	principal, ok := value.(services.Principal)
	return principal, ok
}

// SetPrincipal places a principal on the context. Intended for tests and
// for trusted in-process callers.
func SetPrincipal(c *gin.Context, p services.Principal) {
	c.Set(principalContextKey, p)
}
