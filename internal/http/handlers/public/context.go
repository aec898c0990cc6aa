package public

import (
	handlershared "github.com/donatehub-next/internal/http/handlers/shared"
	"github.com/donatehub-next/internal/service"

	"github.com/gin-gonic/gin"
)

// 捐赠人令牌解析后写入上下文的 key
const (
	ContextKeyDonorID    = "user_id"
	ContextKeyDonorEmail = "user_email"
	ContextKeyDonorName  = "user_name"
)

func getDonorID(c *gin.Context) (uint, bool) {
	return handlershared.ContextUint(c, ContextKeyDonorID, "error.user_id_invalid", "error.user_id_type_invalid")
}

func getDonorActor(c *gin.Context) (service.Actor, bool) {
	donorID, ok := getDonorID(c)
	if !ok {
		return service.Actor{}, false
	}
	return service.DonorActor(donorID), true
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}
