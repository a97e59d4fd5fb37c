package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"dine-in-ordering/config"
	"dine-in-ordering/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Token types carried in the token_type claim.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

var ErrWrongTokenType = errors.New("wrong token type")

type Claims struct {
	UserID    string          `json:"user_id"`
	Email     string          `json:"email"`
	UserType  models.UserType `json:"user_type"`
	TenantID  string          `json:"tenant_id,omitempty"`
	TokenType string          `json:"token_type"`
	jwt.RegisteredClaims
}

func generate(user *models.User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    user.ID,
		Email:     user.Email,
		UserType:  user.UserType,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if user.TenantID != nil {
		claims.TenantID = *user.TenantID
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(config.Current.JWTSecret)
}

// GenerateTokenPair creates a signed access and refresh JWT for a given user
func GenerateTokenPair(user *models.User) (access, refresh string, err error) {
	access, err = generate(user, TokenAccess, config.Current.AccessTokenTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err = generate(user, TokenRefresh, config.Current.RefreshTokenTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// GenerateAccessToken creates a signed access JWT for a given user
func GenerateAccessToken(user *models.User) (string, error) {
	return generate(user, TokenAccess, config.Current.AccessTokenTTL)
}

// ParseToken validates tokenStr and checks that it is of the expected type.
func ParseToken(tokenStr, tokenType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return config.Current.JWTSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.TokenType != tokenType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

// AuthRequired validates the access JWT and injects claims into context
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required (Bearer <token>)"})
			return
		}
		claims, err := ParseToken(strings.TrimPrefix(authHeader, "Bearer "), TokenAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.Set("userID", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("userType", string(claims.UserType))
		c.Set("tenantID", claims.TenantID)
		c.Next()
	}
}

// RoleRequired enforces that caller has one of the allowed user types
func RoleRequired(types ...models.UserType) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get("userType"); !exists {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "User type not found in context"})
			return
		}
		caller := GetUserType(c)
		for _, t := range types {
			if caller == t {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "Access denied. Required user type(s): " + typesString(types),
		})
	}
}

func typesString(types []models.UserType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}

// GetUserID extracts caller user ID from context
func GetUserID(c *gin.Context) string {
	return c.GetString("userID")
}

// GetUserType extracts caller user type from context
func GetUserType(c *gin.Context) models.UserType {
	return models.UserType(c.GetString("userType"))
}

// GetTenantID extracts the caller's tenant, empty for customers
func GetTenantID(c *gin.Context) string {
	return c.GetString("tenantID")
}
