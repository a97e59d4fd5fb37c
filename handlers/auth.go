package handlers

import (
	"errors"
	"net/http"
	"strings"

	"dine-in-ordering/config"
	"dine-in-ordering/metrics"
	"dine-in-ordering/middleware"
	"dine-in-ordering/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// TokenResponse is returned by login, register and refresh. Refresh is
// omitted when only the access token was renewed.
type TokenResponse struct {
	Access   string          `json:"access"`
	Refresh  string          `json:"refresh,omitempty"`
	UserID   string          `json:"user_id"`
	UserType models.UserType `json:"user_type"`
}

func createUser(name, email, password, phone string, userType models.UserType, tenantID *string) (*models.User, int, string) {
	var existing models.User
	if err := config.DB.Where("email = ?", strings.ToLower(email)).First(&existing).Error; err == nil {
		return nil, http.StatusConflict, "Email already registered"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		zap.L().Error("hash password", zap.Error(err))
		return nil, http.StatusInternalServerError, "Failed to hash password"
	}

	user := models.User{
		Name:         name,
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		UserType:     userType,
		Phone:        phone,
		TenantID:     tenantID,
	}
	if err := config.DB.Create(&user).Error; err != nil {
		zap.L().Error("create user", zap.Error(err))
		return nil, http.StatusInternalServerError, "Failed to create user"
	}
	return &user, 0, ""
}

func issueTokens(c *gin.Context, user *models.User, status int) {
	access, refresh, err := middleware.GenerateTokenPair(user)
	if err != nil {
		serverError(c, "Failed to generate token", err)
		return
	}
	c.JSON(status, TokenResponse{
		Access:   access,
		Refresh:  refresh,
		UserID:   user.ID,
		UserType: user.UserType,
	})
}

// Register creates a customer account
func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	user, status, msg := createUser(req.Name, req.Email, req.Password, req.Phone, models.UserCustomer, nil)
	if user == nil {
		c.JSON(status, gin.H{"error": msg})
		return
	}
	issueTokens(c, user, http.StatusCreated)
}

// Login authenticates a user and returns an access/refresh pair
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	var user models.User
	if err := config.DB.Where("email = ?", strings.ToLower(req.Email)).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	issueTokens(c, &user, http.StatusOK)
}

// RefreshToken exchanges a refresh token for a new access token
func RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	claims, err := middleware.ParseToken(req.Refresh, middleware.TokenRefresh)
	if err != nil {
		metrics.RecordTokenRefresh("rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
		return
	}

	var user models.User
	if err := config.DB.First(&user, "id = ?", claims.UserID).Error; err != nil {
		metrics.RecordTokenRefresh("rejected")
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User no longer exists"})
			return
		}
		serverError(c, "Failed to load user", err)
		return
	}

	access, err := middleware.GenerateAccessToken(&user)
	if err != nil {
		serverError(c, "Failed to generate token", err)
		return
	}
	metrics.RecordTokenRefresh("ok")
	c.JSON(http.StatusOK, TokenResponse{Access: access, UserID: user.ID, UserType: user.UserType})
}

// GetProfile returns the authenticated user's profile
func GetProfile(c *gin.Context) {
	var user models.User
	if err := config.DB.First(&user, "id = ?", middleware.GetUserID(c)).Error; err != nil {
		notFound(c, "User not found")
		return
	}
	c.JSON(http.StatusOK, user)
}
