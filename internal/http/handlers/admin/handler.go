package admin

import (
	"github.com/donatehub-next/internal/provider"
	"github.com/donatehub-next/internal/service"
)

// Handler 运营后台接口，只依赖登录与捐赠业务入口
type Handler struct {
	AuthService     *service.AuthService
	DonationService *service.DonationService
}

// New 从容器中取出后台接口所需服务
func New(c *provider.Container) *Handler {
	return &Handler{
		AuthService:     c.AuthService,
		DonationService: c.DonationService,
	}
}
