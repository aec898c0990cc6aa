package admin

import (
	handlershared "github.com/donatehub-next/internal/http/handlers/shared"
	"github.com/donatehub-next/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ContextKeyAdminID 操作员令牌解析后写入上下文的 key
const ContextKeyAdminID = "admin_id"

func getAdminID(c *gin.Context) (uint, bool) {
	return handlershared.ContextUint(c, ContextKeyAdminID, "error.admin_id_invalid", "error.admin_id_type_invalid")
}

func getOperatorActor(c *gin.Context) (service.Actor, bool) {
	adminID, ok := getAdminID(c)
	if !ok {
		return service.Actor{}, false
	}
	return service.OperatorActor(adminID), true
}

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}
