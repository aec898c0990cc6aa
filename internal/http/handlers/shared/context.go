package shared

import (
	"github.com/donatehub-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ContextUint 读取认证中间件写入的主体 ID；缺失视为未登录，类型不符视为服务端错误
func ContextUint(c *gin.Context, key, invalidKey, typeInvalidKey string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return 0, false
	}
	var id uint
	switch v := value.(type) {
	case uint:
		id = v
	case int:
		if v > 0 {
			id = uint(v)
		}
	default:
		RespondError(c, response.CodeInternal, typeInvalidKey, nil)
		return 0, false
	}
	if id == 0 {
		RespondError(c, response.CodeBadRequest, invalidKey, nil)
		return 0, false
	}
	return id, true
}
