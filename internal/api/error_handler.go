package api

import (
	"errors"
	"net/http"

	"github.com/contabhub/onety-sub007/internal/apperr"
	"github.com/gin-gonic/gin"
)

// statusForKind 错误类别到 HTTP 状态码的映射
func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// HandleError 统一处理服务层错误
// 服务层只抛类别化错误,HTTP 状态码的映射收敛在这一处
func HandleError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		status := statusForKind(appErr.Kind)
		body := ErrorResponse{
			Code:    status,
			Message: appErr.Message,
			Fields:  appErr.Fields,
		}
		// 内部错误的底层细节不外露
		if appErr.Kind == apperr.KindInternal {
			body.Message = "internal server error"
		}
		c.JSON(status, body)
		return
	}

	Error(c, http.StatusInternalServerError, "internal server error", "")
}

// ErrorHandlerMiddleware 错误处理中间件
// 兜底 c.Error 挂上来的未处理错误
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			HandleError(c, c.Errors.Last().Err)
		}
	}
}
