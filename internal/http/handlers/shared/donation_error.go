package shared

import (
	"errors"
	"strconv"

	"github.com/donatehub-next/internal/http/response"
	"github.com/donatehub-next/internal/i18n"
	"github.com/donatehub-next/internal/service"

	"github.com/gin-gonic/gin"
)

// MappedHandlerError 业务错误到接口错误码与文案 key 的映射
type MappedHandlerError struct {
	Target error
	Code   int
	Key    string
}

// DonationErrorRules 捐赠相关接口共用的错误映射，按顺序匹配
var DonationErrorRules = []MappedHandlerError{
	{Target: service.ErrDonationNotFound, Code: response.CodeNotFound, Key: "error.donation_not_found"},
	{Target: service.ErrInvalidStatus, Code: response.CodeBadRequest, Key: "error.invalid_status"},
	{Target: service.ErrTransitionForbidden, Code: response.CodeForbidden, Key: "error.transition_forbidden"},
	{Target: service.ErrOtpRequired, Code: response.CodeConflict, Key: "error.otp_required"},
	{Target: service.ErrOtpExpired, Code: response.CodeConflict, Key: "error.otp_expired"},
	{Target: service.ErrOtpMismatch, Code: response.CodeBadRequest, Key: "error.otp_mismatch"},
	{Target: service.ErrCategoryRequired, Code: response.CodeBadRequest, Key: "error.category_required"},
	{Target: service.ErrDescriptionRequired, Code: response.CodeBadRequest, Key: "error.description_required"},
	{Target: service.ErrPickupDateInvalid, Code: response.CodeBadRequest, Key: "error.pickup_date_invalid"},
	{Target: service.ErrDistrictInvalid, Code: response.CodeBadRequest, Key: "error.district_invalid"},
	{Target: service.ErrEstimatedValueInvalid, Code: response.CodeBadRequest, Key: "error.estimated_value_invalid"},
	{Target: service.ErrUploadFileTooLarge, Code: response.CodeBadRequest, Key: "error.file_too_large"},
	{Target: service.ErrUploadTypeNotAllowed, Code: response.CodeBadRequest, Key: "error.file_type_not_allowed"},
	{Target: service.ErrUploadTooManyFiles, Code: response.CodeBadRequest, Key: "error.too_many_images"},
}

// RespondMappedError 按规则表返回错误，未命中时以 fallback 记录原始错误
func RespondMappedError(c *gin.Context, err error, rules []MappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			RespondError(c, rule.Code, rule.Key, nil)
			return
		}
	}
	RespondError(c, fallbackCode, fallbackKey, err)
}

// RespondDonationError 返回捐赠接口错误，状态迁移与验证码锁定带上结构化数据
func RespondDonationError(c *gin.Context, err error, fallbackKey string) {
	locale := i18n.ResolveLocale(c)

	var transitionErr *service.TransitionError
	if errors.As(err, &transitionErr) {
		msg := i18n.Sprintf(locale, "error.invalid_transition", transitionErr.From, transitionErr.To)
		response.ErrorWithData(c, response.CodeConflict, msg, gin.H{
			"from": transitionErr.From,
			"to":   transitionErr.To,
		})
		return
	}

	var lockedErr *service.OtpLockedError
	if errors.As(err, &lockedErr) {
		c.Header("Retry-After", strconv.Itoa(lockedErr.RetryAfterSeconds))
		msg := i18n.Sprintf(locale, "error.otp_locked", lockedErr.RetryAfterSeconds)
		response.ErrorWithData(c, response.CodeTooManyRequests, msg, gin.H{
			"retry_after_seconds": lockedErr.RetryAfterSeconds,
		})
		return
	}

	RespondMappedError(c, err, DonationErrorRules, response.CodeInternal, fallbackKey)
}

// ParseDonationID 解析路径参数 :id
func ParseDonationID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return 0, false
	}
	return uint(id), true
}
