package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/contabhub/onety-sub007/internal/api"
	"github.com/contabhub/onety-sub007/internal/apperr"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// serveWithError 构造一个返回指定错误的路由并发起请求
func serveWithError(err error) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/boom", func(c *gin.Context) {
		api.HandleError(c, err)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	router.ServeHTTP(w, req)
	return w
}

// TestHandleError_KindMapping 测试错误类别到 HTTP 状态码的映射
func TestHandleError_KindMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", apperr.Validation("missing field"), http.StatusBadRequest},
		{"forbidden", apperr.Forbidden("admins only"), http.StatusForbidden},
		{"not found", apperr.NotFound("no such template"), http.StatusNotFound},
		{"conflict", apperr.Conflict("open children exist"), http.StatusConflict},
		{"internal", apperr.Internal("db down", assert.AnError), http.StatusInternalServerError},
		{"plain error", assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := serveWithError(tc.err)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

// TestHandleError_InternalDetailHidden 测试内部错误细节不外露
func TestHandleError_InternalDetailHidden(t *testing.T) {
	w := serveWithError(apperr.Internal("failed to save", assert.AnError))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}

// TestHandleError_FieldsExposed 测试结构化字段随响应返回
func TestHandleError_FieldsExposed(t *testing.T) {
	w := serveWithError(apperr.Conflict("open children exist").With("open_children", "2"))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "open_children")
	assert.Contains(t, w.Body.String(), "open children exist")
}
