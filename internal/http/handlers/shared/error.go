package shared

import (
	"github.com/donatehub-next/internal/http/response"
	"github.com/donatehub-next/internal/i18n"
	"github.com/donatehub-next/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 返回带 request_id 与路由的日志实例
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	kv := make([]interface{}, 0, 4)
	if requestID := c.GetString("request_id"); requestID != "" {
		kv = append(kv, "request_id", requestID)
	}
	if route := c.FullPath(); route != "" {
		kv = append(kv, "route", route)
	}
	if len(kv) == 0 {
		return logger.S()
	}
	return logger.SW(kv...)
}

// RespondError 按语言返回错误文案；err 非空时记录原始错误，不暴露给调用方
func RespondError(c *gin.Context, code int, key string, err error) {
	msg := i18n.T(i18n.ResolveLocale(c), key)
	if err != nil {
		RequestLog(c).Errorw("handler_error", "status_code", code, "message_key", key, "error", err)
	}
	response.Error(c, code, msg)
}
