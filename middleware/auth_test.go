package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"dine-in-ordering/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":   GetUserID(c),
			"user_type": GetUserType(c),
			"tenant_id": GetTenantID(c),
		})
	})
	r.GET("/", handlers...)
	return r
}

func get(r *gin.Engine, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestParseToken_ChecksType(t *testing.T) {
	tenant := "tenant-1"
	user := &models.User{Model: models.Model{ID: "u1"}, Email: "s@x.io", UserType: models.UserRestaurant, TenantID: &tenant}
	access, refresh, err := GenerateTokenPair(user)
	require.NoError(t, err)

	claims, err := ParseToken(access, TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "tenant-1", claims.TenantID)

	_, err = ParseToken(refresh, TokenAccess)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = ParseToken(access+"x", TokenAccess)
	assert.Error(t, err)
}

func TestAuthRequired(t *testing.T) {
	user := &models.User{Model: models.Model{ID: "u2"}, UserType: models.UserCustomer}
	access, refresh, err := GenerateTokenPair(user)
	require.NoError(t, err)
	r := testRouter(AuthRequired())

	assert.Equal(t, http.StatusUnauthorized, get(r, "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Authorization", "Token "+access).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Authorization", "Bearer "+refresh).Code)

	w := get(r, "Authorization", "Bearer "+access)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"u2"`)
}

func TestRoleRequired(t *testing.T) {
	user := &models.User{Model: models.Model{ID: "u3"}, UserType: models.UserCustomer}
	access, err := GenerateAccessToken(user)
	require.NoError(t, err)

	r := testRouter(AuthRequired(), RoleRequired(models.UserRestaurant, models.UserAdmin))
	w := get(r, "Authorization", "Bearer "+access)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "restaurant, admin")

	r = testRouter(AuthRequired(), RoleRequired(models.UserCustomer))
	assert.Equal(t, http.StatusOK, get(r, "Authorization", "Bearer "+access).Code)
}

func TestAPIKeyRequired(t *testing.T) {
	r := testRouter(APIKeyRequired("k1"))
	assert.Equal(t, http.StatusForbidden, get(r, "", "").Code)
	assert.Equal(t, http.StatusForbidden, get(r, APIKeyHeader, "k2").Code)
	assert.Equal(t, http.StatusOK, get(r, APIKeyHeader, "k1").Code)

	open := testRouter(APIKeyRequired(""))
	assert.Equal(t, http.StatusOK, get(open, "", "").Code)
}

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS())
	r.OPTIONS("/x", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), APIKeyHeader)
}
