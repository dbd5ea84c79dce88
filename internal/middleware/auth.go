package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

const (
	ContextUserID   = "userID"
	ContextTenantID = "tenantID"
	ContextBranchID = "branchID"
	ContextUserRole = "userRole"
)

const tokenTTL = 24 * time.Hour

// IssueToken signs the session token for user.
func IssueToken(secret string, user *models.User, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"tenantId": user.TenantID,
		"role":     user.Role,
		"exp":      now.Add(tokenTTL).Unix(),
		"iat":      now.Unix(),
	}
	if user.BranchID != nil {
		claims["branchId"] = *user.BranchID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "missing_authorization_header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			unauthorized(c, "invalid_authorization_header")
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenMalformed
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			unauthorized(c, "invalid_token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			unauthorized(c, "invalid_token_claims")
			return
		}

		userID, ok1 := claims["sub"].(float64)
		tenantID, ok2 := claims["tenantId"].(float64)
		role, _ := claims["role"].(string)
		if !ok1 || !ok2 {
			unauthorized(c, "invalid_token_payload")
			return
		}

		c.Set(ContextUserID, uint(userID))
		c.Set(ContextTenantID, uint(tenantID))
		c.Set(ContextUserRole, role)
		if branchID, ok := claims["branchId"].(float64); ok {
			c.Set(ContextBranchID, uint(branchID))
		}

		c.Next()
	}
}

// RequireRole lets the request through only for the listed roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextUserRole)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}

		httperr.Forbidden(c, "forbidden", "role not allowed")
		c.Abort()
	}
}

func unauthorized(c *gin.Context, code string) {
	httperr.Unauthorized(c, code, "authentication required")
	c.Abort()
}
