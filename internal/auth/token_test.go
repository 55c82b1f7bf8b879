package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/contabhub/onety-sub007/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTokenRoundtrip 测试签发和验证往返
func TestTokenRoundtrip(t *testing.T) {
	validator := auth.NewTokenValidator("test-secret")
	p := &auth.Principal{
		UserID:      "user-1",
		Name:        "Maria",
		CompanyID:   "company-a",
		Role:        auth.RoleAdmin,
		Permissions: []string{"templates:write"},
	}

	token, err := validator.IssueToken(p, time.Hour)
	require.NoError(t, err)

	claims, err := validator.ValidateToken(token)
	require.NoError(t, err)

	got := claims.Principal()
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "Maria", got.Name)
	assert.Equal(t, "company-a", got.CompanyID)
	assert.Equal(t, auth.RoleAdmin, got.Role)
	assert.True(t, got.Can("templates:write"))
}

// TestTokenValidate_WrongSecret 测试错误密钥被拒绝
func TestTokenValidate_WrongSecret(t *testing.T) {
	issuer := auth.NewTokenValidator("secret-a")
	verifier := auth.NewTokenValidator("secret-b")

	token, err := issuer.IssueToken(&auth.Principal{UserID: "user-1"}, time.Hour)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

// TestTokenValidate_Expired 测试过期 Token 被拒绝
func TestTokenValidate_Expired(t *testing.T) {
	validator := auth.NewTokenValidator("test-secret")

	token, err := validator.IssueToken(&auth.Principal{UserID: "user-1"}, -time.Minute)
	require.NoError(t, err)

	_, err = validator.ValidateToken(token)
	assert.Error(t, err)
}

// TestClaims_UnknownRoleCoercedToMember 测试未知角色降级为普通成员
func TestClaims_UnknownRoleCoercedToMember(t *testing.T) {
	validator := auth.NewTokenValidator("test-secret")

	token, err := validator.IssueToken(&auth.Principal{UserID: "user-1", Role: "superuser"}, time.Hour)
	require.NoError(t, err)

	claims, err := validator.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleMember, claims.Principal().Role)
	assert.False(t, claims.Principal().IsAdmin())
}

// TestMiddleware 测试认证中间件
func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	validator := auth.NewTokenValidator("test-secret")

	router := gin.New()
	router.Use(auth.Middleware(validator))
	router.GET("/whoami", func(c *gin.Context) {
		p := auth.FromContext(c)
		require.NotNil(t, p)
		c.JSON(http.StatusOK, gin.H{"user_id": p.UserID})
	})

	// 无凭证
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 非 Bearer 头
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Basic abc")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 有效 Token
	token, err := validator.IssueToken(&auth.Principal{UserID: "user-1", CompanyID: "company-a"}, time.Hour)
	require.NoError(t, err)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-1")
}
