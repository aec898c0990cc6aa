package public

import (
	"github.com/donatehub-next/internal/provider"
	"github.com/donatehub-next/internal/service"
)

// Handler 捐赠人接口；生命周期、台账与验证码都经由 DonationService
type Handler struct {
	DonationService *service.DonationService
}

// New 创建捐赠人接口处理器
func New(c *provider.Container) *Handler {
	return &Handler{DonationService: c.DonationService}
}
