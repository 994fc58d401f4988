package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Lakriii/eshop-platform-main/internal/model"
)

const sessionKeyHeader = "X-Session-Key"

func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !parseToken(c, secret) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// OptionalAuth attaches the user identity when a valid token is present but
// lets anonymous requests through. Guest carts are keyed by X-Session-Key.
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.GetHeader("Authorization"), "Bearer ") {
			if !parseToken(c, secret) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
		}
		c.Next()
	}
}

func StaffOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserRole(c) != model.RoleStaff {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "staff only"})
			return
		}
		c.Next()
	}
}

func parseToken(c *gin.Context, secret string) bool {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return false
	}

	token, err := jwt.Parse(header[7:], func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return false
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return false
	}

	role, _ := claims["role"].(string)
	c.Set("userID", userID)
	c.Set("userRole", role)
	return true
}

func GetUserID(c *gin.Context) uuid.UUID {
	id, _ := c.Get("userID")
	uid, _ := id.(uuid.UUID)
	return uid
}

// UserIDPtr returns the authenticated user id or nil for guests.
func UserIDPtr(c *gin.Context) *uuid.UUID {
	id, ok := c.Get("userID")
	if !ok {
		return nil
	}
	uid, ok := id.(uuid.UUID)
	if !ok {
		return nil
	}
	return &uid
}

func GetUserRole(c *gin.Context) string {
	role, _ := c.Get("userRole")
	r, _ := role.(string)
	return r
}

// CartOwner resolves the cart identity for this request: the authenticated
// user, or the session key header for guests. Empty when neither is present.
func CartOwner(c *gin.Context) (model.CartOwner, bool) {
	if uid := UserIDPtr(c); uid != nil {
		return model.CartOwner{UserID: uid}, true
	}
	if key := c.GetHeader(sessionKeyHeader); key != "" {
		return model.CartOwner{SessionKey: key}, true
	}
	return model.CartOwner{}, false
}
