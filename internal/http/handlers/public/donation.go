package public

import (
	"strings"
	"time"

	handlershared "github.com/donatehub-next/internal/http/handlers/shared"
	"github.com/donatehub-next/internal/http/response"
	"github.com/donatehub-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateDonationRequest 提交捐赠请求
type CreateDonationRequest struct {
	Category       string `json:"category"`
	Description    string `json:"description"`
	EstimatedValue string `json:"estimated_value"`
	PickupDate     string `json:"pickup_date" binding:"required"`
	District       string `json:"district"`
	Area           string `json:"area"`
	PickupAddress  string `json:"pickup_address"`
}

// CreateDonationResponse 提交捐赠响应
type CreateDonationResponse struct {
	ID            uint   `json:"id"`
	ReceiptNumber string `json:"receipt_number"`
	Status        string `json:"status"`
}

// VerifyOtpRequest 取件码校验请求
type VerifyOtpRequest struct {
	Code string `json:"code" binding:"required"`
}

// CreateDonation 提交捐赠
func (h *Handler) CreateDonation(c *gin.Context) {
	donorID, ok := getDonorID(c)
	if !ok {
		return
	}
	var req CreateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	donation, err := h.DonationService.Create(c.Request.Context(), service.CreateDonationInput{
		DonorID:        donorID,
		DonorEmail:     c.GetString(ContextKeyDonorEmail),
		DonorName:      c.GetString(ContextKeyDonorName),
		Category:       req.Category,
		Description:    req.Description,
		EstimatedValue: req.EstimatedValue,
		PickupDate:     req.PickupDate,
		District:       req.District,
		Area:           req.Area,
		PickupAddress:  req.PickupAddress,
	})
	if err != nil {
		handlershared.RespondDonationError(c, err, "error.donation_create_failed")
		return
	}
	response.Success(c, CreateDonationResponse{
		ID:            donation.ID,
		ReceiptNumber: donation.ReceiptNo,
		Status:        donation.Status,
	})
}

// ListMyDonations 我的捐赠列表
func (h *Handler) ListMyDonations(c *gin.Context) {
	donorID, ok := getDonorID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.PagingFromQuery(c)
	donations, total, err := h.DonationService.ListForDonor(donorID, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.donation_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, donations, handlershared.BuildPagination(page, pageSize, total))
}

// GetDonation 捐赠详情
func (h *Handler) GetDonation(c *gin.Context) {
	actor, ok := getDonorActor(c)
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

// GetDonationTracking 捐赠追踪视图
func (h *Handler) GetDonationTracking(c *gin.Context) {
	actor, ok := getDonorActor(c)
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

// GetDonationReceipt 捐赠收据
func (h *Handler) GetDonationReceipt(c *gin.Context) {
	actor, ok := getDonorActor(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseDonationID(c)
	if !ok {
		return
	}
	receipt, err := h.DonationService.Receipt(c.Request.Context(), id, actor)
	if err != nil {
		handlershared.RespondDonationError(c, err, "error.donation_fetch_failed")
		return
	}
	response.Success(c, receipt)
}

// UploadDonationImages 上传物品图片（multipart 字段 images）
func (h *Handler) UploadDonationImages(c *gin.Context) {
	actor, ok := getDonorActor(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseDonationID(c)
	if !ok {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	files := form.File["images"]
	if len(files) == 0 {
		respondError(c, response.CodeBadRequest, "error.images_required", nil)
		return
	}
	images, err := h.DonationService.AttachImages(c.Request.Context(), id, actor, files)
	if err != nil {
		handlershared.RespondDonationError(c, err, "error.upload_failed")
		return
	}
	response.Success(c, images)
}

// IssueDonationOtp 签发取件验证码，验证码通过邮件下发，不在响应中返回
func (h *Handler) IssueDonationOtp(c *gin.Context) {
	actor, ok := getDonorActor(c)
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

// VerifyDonationOtp 校验取件验证码并推进到已取件
func (h *Handler) VerifyDonationOtp(c *gin.Context) {
	actor, ok := getDonorActor(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseDonationID(c)
	if !ok {
		return
	}
	var req VerifyOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	donation, err := h.DonationService.ConfirmOtp(c.Request.Context(), id, strings.TrimSpace(req.Code), actor)
	if err != nil {
		handlershared.RespondDonationError(c, err, "error.donation_update_failed")
		return
	}
	response.Success(c, gin.H{"status": donation.Status})
}

// CancelDonation 捐赠人取消
func (h *Handler) CancelDonation(c *gin.Context) {
	actor, ok := getDonorActor(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseDonationID(c)
	if !ok {
		return
	}
	donation, err := h.DonationService.Cancel(c.Request.Context(), id, actor)
	if err != nil {
		handlershared.RespondDonationError(c, err, "error.donation_update_failed")
		return
	}
	response.Success(c, gin.H{"status": donation.Status})
}
