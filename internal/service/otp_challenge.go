package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"math/big"
	"strings"
	"time"

	"github.com/donatehub-next/internal/config"
	"github.com/donatehub-next/internal/logger"
	"github.com/donatehub-next/internal/models"
)

const (
	defaultOtpLength        = 6
	defaultOtpExpireMinutes = 10
)

// CodeGenerator 验证码生成器
type CodeGenerator interface {
	Generate(length int) (string, error)
}

// CodeGeneratorFunc 函数适配器
type CodeGeneratorFunc func(length int) (string, error)

// Generate 生成验证码
func (f CodeGeneratorFunc) Generate(length int) (string, error) {
	return f(length)
}

// RandomCodeGenerator 基于 crypto/rand 的均匀分布数字验证码
var RandomCodeGenerator CodeGenerator = CodeGeneratorFunc(randomNumericCode)

// AttemptLimiter 验证失败次数限制
type AttemptLimiter interface {
	Check(ctx context.Context, donationID uint) (bool, time.Duration, error)
	RecordFailure(ctx context.Context, donationID uint) (int, error)
	Reset(ctx context.Context, donationID uint) error
}

// OtpChallenge 取件验证码：签发、校验，状态内嵌在捐赠单上，由调用方在行锁事务内持久化
type OtpChallenge struct {
	generator CodeGenerator
	limiter   AttemptLimiter
	length    int
	window    time.Duration
}

// NewOtpChallenge 创建验证码服务，limiter 可为 nil
func NewOtpChallenge(cfg config.OTPConfig, generator CodeGenerator, limiter AttemptLimiter) *OtpChallenge {
	if generator == nil {
		generator = RandomCodeGenerator
	}
	return &OtpChallenge{
		generator: generator,
		limiter:   limiter,
		length:    resolveOtpLength(cfg.Length),
		window:    time.Duration(resolveOtpExpireMinutes(cfg.ExpireMinutes)) * time.Minute,
	}
}

// Window 返回有效期
func (o *OtpChallenge) Window() time.Duration {
	return o.window
}

// issue 生成新验证码并覆盖旧值，重置已验证标记，返回需要写入的字段
func (o *OtpChallenge) issue(ctx context.Context, donation *models.Donation, now time.Time) (string, map[string]interface{}, error) {
	code, err := o.generator.Generate(o.length)
	if err != nil {
		return "", nil, err
	}
	issuedAt := now
	donation.OtpCode = code
	donation.OtpIssuedAt = &issuedAt
	donation.OtpVerified = false

	if o.limiter != nil {
		if err := o.limiter.Reset(ctx, donation.ID); err != nil {
			logger.Warnw("otp_attempt_reset_failed", "donation_id", donation.ID, "error", err)
		}
	}
	return code, map[string]interface{}{
		"otp_code":      code,
		"otp_issued_at": issuedAt,
		"otp_verified":  false,
	}, nil
}

// verify 校验验证码：需存在、未过期、完全一致（常量时间比较）；成功时置已验证但不改变状态。
// 过期时保留验证码，由调用方重新签发。
func (o *OtpChallenge) verify(ctx context.Context, donation *models.Donation, supplied string, now time.Time) (map[string]interface{}, error) {
	if o.limiter != nil {
		locked, retryAfter, err := o.limiter.Check(ctx, donation.ID)
		if err != nil {
			logger.Warnw("otp_attempt_check_failed", "donation_id", donation.ID, "error", err)
		} else if locked {
			return nil, &OtpLockedError{RetryAfterSeconds: ceilSeconds(retryAfter)}
		}
	}

	if donation.OtpCode == "" || donation.OtpIssuedAt == nil {
		return nil, ErrOtpRequired
	}
	if now.Sub(*donation.OtpIssuedAt) > o.window {
		return nil, ErrOtpExpired
	}
	supplied = strings.TrimSpace(supplied)
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(donation.OtpCode)) != 1 {
		if o.limiter != nil {
			if _, err := o.limiter.RecordFailure(ctx, donation.ID); err != nil {
				logger.Warnw("otp_attempt_record_failed", "donation_id", donation.ID, "error", err)
			}
		}
		return nil, ErrOtpMismatch
	}

	if o.limiter != nil {
		if err := o.limiter.Reset(ctx, donation.ID); err != nil {
			logger.Warnw("otp_attempt_reset_failed", "donation_id", donation.ID, "error", err)
		}
	}
	donation.OtpVerified = true
	return map[string]interface{}{"otp_verified": true}, nil
}

// consumeOtp 进入已取件后作废验证码
func consumeOtp(donation *models.Donation, updates map[string]interface{}) {
	donation.OtpCode = ""
	donation.OtpIssuedAt = nil
	donation.OtpVerified = false
	updates["otp_code"] = ""
	updates["otp_issued_at"] = nil
	updates["otp_verified"] = false
}

func randomNumericCode(length int) (string, error) {
	if length <= 0 {
		length = defaultOtpLength
	}
	var b strings.Builder
	b.Grow(length)
	ten := big.NewInt(10)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

func resolveOtpLength(length int) int {
	if length <= 0 {
		return defaultOtpLength
	}
	return length
}

func resolveOtpExpireMinutes(minutes int) int {
	if minutes <= 0 {
		return defaultOtpExpireMinutes
	}
	return minutes
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 1
	}
	seconds := int(d / time.Second)
	if d%time.Second != 0 {
		seconds++
	}
	return seconds
}
