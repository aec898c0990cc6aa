package public

import (
	"github.com/donatehub-next/internal/http/response"
	"github.com/donatehub-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListDistricts 可选区列表
func (h *Handler) ListDistricts(c *gin.Context) {
	response.Success(c, h.DonationService.Districts())
}

// SuggestCategory 按描述关键词推荐品类
func (h *Handler) SuggestCategory(c *gin.Context) {
	response.Success(c, gin.H{"category": service.SuggestCategory(c.Query("q"))})
}
