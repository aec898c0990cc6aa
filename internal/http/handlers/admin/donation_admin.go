package admin

import (
	"strings"
	"time"

	handlershared "github.com/donatehub-next/internal/http/handlers/shared"
	"github.com/donatehub-next/internal/http/response"
	"github.com/donatehub-next/internal/service"

	"github.com/gin-gonic/gin"
)

// UpdateDonationStatusRequest 运营端状态变更请求
type UpdateDonationStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// AdminListDonations 运营端捐赠列表
func (h *Handler) AdminListDonations(c *gin.Context) {
	page, pageSize := handlershared.PagingFromQuery(c)
	donations, total, err := h.DonationService.ListAdmin(service.AdminDonationListInput{
		Page:       page,
		PageSize:   pageSize,
		Status:     strings.TrimSpace(c.Query("status")),
		Category:   strings.TrimSpace(c.Query("category")),
		District:   strings.TrimSpace(c.Query("district")),
		ReceiptNo:  strings.TrimSpace(c.Query("receipt_no")),
		Keyword:    strings.TrimSpace(c.Query("keyword")),
		PickupDate: strings.TrimSpace(c.Query("pickup_date")),
	})
	if err != nil {
		handlershared.RespondDonationError(c, err, "error.donation_fetch_failed")
		return
	}
	response.SuccessWithPage(c, donations, handlershared.BuildPagination(page, pageSize, total))
}

// AdminGetDonation 运营端捐赠详情
func (h *Handler) AdminGetDonation(c *gin.Context) {
	actor, ok := getOperatorActor(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseDonationID(c)
	if !ok {
		return
	}
	donation, err := h.DonationService.Get(c.Request.Context(), id, actor)
	if err != nil {
		handlershared.RespondDonationError(c, err, "error.donation_fetch_failed")
		return
	}
	response.Success(c, donation)
}

// AdminGetDonationTracking 运营端追踪视图
func (h *Handler) AdminGetDonationTracking(c *gin.Context) {
	actor, ok := getOperatorActor(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseDonationID(c)
	if !ok {
		return
	}
	view, err := h.DonationService.TrackingView(c.Request.Context(), id, actor)
	if err != nil {
		handlershared.RespondDonationError(c, err, "error.donation_fetch_failed")
		return
	}
	response.Success(c, view)
}

// AdminUpdateDonationStatus 运营端推进或取消捐赠
func (h *Handler) AdminUpdateDonationStatus(c *gin.Context) {
	actor, ok := getOperatorActor(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseDonationID(c)
	if !ok {
		return
	}
	var req UpdateDonationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	donation, err := h.DonationService.SetStatus(c.Request.Context(), id, req.Status, actor)
	if err != nil {
		handlershared.RespondDonationError(c, err, "error.donation_update_failed")
		return
	}
	response.Success(c, gin.H{"status": donation.Status})
}

// AdminIssueDonationOtp 运营端代为签发取件验证码
func (h *Handler) AdminIssueDonationOtp(c *gin.Context) {
	actor, ok := getOperatorActor(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseDonationID(c)
	if !ok {
		return
	}
	issuedAt, err := h.DonationService.IssueOtp(c.Request.Context(), id, actor)
	if err != nil {
		handlershared.RespondDonationError(c, err, "error.otp_issue_failed")
		return
	}
	response.Success(c, gin.H{"issued_at": issuedAt.UTC().Format(time.RFC3339)})
}
