package service

import (
	"errors"
	"fmt"
)

// 捐赠生命周期错误
var (
	ErrDonationNotFound        = errors.New("donation not found")
	ErrInvalidStatus           = errors.New("unknown donation status")
	ErrInvalidTransition       = errors.New("invalid status transition")
	ErrTransitionForbidden     = errors.New("actor not allowed to perform transition")
	ErrOtpRequired             = errors.New("otp verification required")
	ErrOtpExpired              = errors.New("otp expired")
	ErrOtpMismatch             = errors.New("otp mismatch")
	ErrOtpLocked               = errors.New("otp attempts exhausted")
	ErrReceiptAllocationFailed = errors.New("receipt allocation exhausted")
	ErrDonationUpdateFailed    = errors.New("donation update failed")
)

// 创建参数校验错误
var (
	ErrCategoryRequired      = errors.New("category is required")
	ErrDescriptionRequired   = errors.New("description is required")
	ErrPickupDateInvalid     = errors.New("pickup date invalid")
	ErrDistrictInvalid       = errors.New("district invalid")
	ErrEstimatedValueInvalid = errors.New("estimated value invalid")
)

// 上传错误
var (
	ErrUploadFileTooLarge   = errors.New("upload file too large")
	ErrUploadTypeNotAllowed = errors.New("upload file type not allowed")
	ErrUploadTooManyFiles   = errors.New("too many uploaded files")
)

// 认证与邮件错误
var (
	ErrInvalidCredentials        = errors.New("invalid credentials")
	ErrAccountDisabled           = errors.New("account disabled")
	ErrInvalidToken              = errors.New("invalid token")
	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrInvalidEmail              = errors.New("invalid email address")
	ErrEmailRecipientRejected    = errors.New("email recipient rejected")
)

// TransitionError 携带被拒绝的状态对，errors.Is 匹配 ErrInvalidTransition
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition: %s -> %s", e.From, e.To)
}

// Unwrap 返回哨兵错误
func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// OtpLockedError 携带剩余锁定时间，errors.Is 匹配 ErrOtpLocked
type OtpLockedError struct {
	RetryAfterSeconds int
}

func (e *OtpLockedError) Error() string {
	return fmt.Sprintf("otp attempts exhausted, retry after %ds", e.RetryAfterSeconds)
}

// Unwrap 返回哨兵错误
func (e *OtpLockedError) Unwrap() error {
	return ErrOtpLocked
}
