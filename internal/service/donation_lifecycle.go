package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/donatehub-next/internal/cache"
	"github.com/donatehub-next/internal/constants"
	"github.com/donatehub-next/internal/logger"
	"github.com/donatehub-next/internal/metrics"
	"github.com/donatehub-next/internal/models"
	"github.com/donatehub-next/internal/repository"

	"gorm.io/gorm"
)

// Actor 发起操作的主体
type Actor struct {
	Role string
	ID   uint
}

// DonorActor 构造捐赠人主体
func DonorActor(donorID uint) Actor {
	return Actor{Role: constants.ActorRoleDonor, ID: donorID}
}

// OperatorActor 构造运营人员主体
func OperatorActor(adminID uint) Actor {
	return Actor{Role: constants.ActorRoleOperator, ID: adminID}
}

// canAccess 捐赠人只能访问自己的捐赠单
func (a Actor) canAccess(donation *models.Donation) bool {
	if donation == nil {
		return false
	}
	if a.Role == constants.ActorRoleDonor {
		return donation.DonorID == a.ID
	}
	return a.Role == constants.ActorRoleOperator || a.Role == constants.ActorRoleAdmin
}

// DonationLifecycle 生命周期状态机：所有变更在单个事务内、持有捐赠单行锁完成
type DonationLifecycle struct {
	donationRepo repository.DonationRepository
	ledger       *TrackingLedger
	otp          *OtpChallenge
	notifier     *DonationNotifier
	metrics      *metrics.Metrics
	now          func() time.Time
}

// NewDonationLifecycle 创建生命周期服务
func NewDonationLifecycle(
	donationRepo repository.DonationRepository,
	ledger *TrackingLedger,
	otp *OtpChallenge,
	notifier *DonationNotifier,
	m *metrics.Metrics,
) *DonationLifecycle {
	return &DonationLifecycle{
		donationRepo: donationRepo,
		ledger:       ledger,
		otp:          otp,
		notifier:     notifier,
		metrics:      m,
		now:          time.Now,
	}
}

// SetClock 替换时钟（测试用）
func (s *DonationLifecycle) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// RequestTransition 请求状态流转
func (s *DonationLifecycle) RequestTransition(ctx context.Context, donationID uint, target string, actor Actor) (*models.Donation, error) {
	status := NormalizeDonationStatus(target)
	if status == "" {
		s.metrics.IncRejected("invalid_status")
		return nil, ErrInvalidStatus
	}
	started := time.Now()
	var from string
	var result *models.Donation
	err := s.donationRepo.Transaction(func(tx *gorm.DB) error {
		donation, err := s.lockDonation(tx, donationID, actor)
		if err != nil {
			return err
		}
		from = donation.Status
		if err := s.applyTransition(tx, donation, status, actor); err != nil {
			return err
		}
		result = donation
		return nil
	})
	if err != nil {
		s.recordRejection(donationID, status, actor, err)
		return nil, err
	}
	s.afterTransition(ctx, result, from, started)
	return result, nil
}

// ConfirmOtp 捐赠人提交验证码：校验成功后在同一事务内流转到已取件
func (s *DonationLifecycle) ConfirmOtp(ctx context.Context, donationID uint, code string, actor Actor) (*models.Donation, error) {
	started := time.Now()
	var from string
	var result *models.Donation
	var verifyErr error
	err := s.donationRepo.Transaction(func(tx *gorm.DB) error {
		donation, err := s.lockDonation(tx, donationID, actor)
		if err != nil {
			return err
		}
		if IsTerminalStatus(donation.Status) {
			return &TransitionError{From: donation.Status, To: constants.DonationStatusPickedUp}
		}
		now := s.now()
		updates, err := s.otp.verify(ctx, donation, code, now)
		if err != nil {
			verifyErr = err
			return err
		}
		if err := s.donationRepo.WithTx(tx).Updates(donation.ID, updates); err != nil {
			return fmt.Errorf("%w: %v", ErrDonationUpdateFailed, err)
		}
		from = donation.Status
		if err := s.applyTransition(tx, donation, constants.DonationStatusPickedUp, actor); err != nil {
			return err
		}
		result = donation
		return nil
	})
	switch {
	case err == nil:
		s.metrics.IncOtpVerification("success")
	case verifyErr != nil:
		s.metrics.IncOtpVerification(otpOutcome(verifyErr))
		logger.Warnw("otp_verify_failed", "donation_id", donationID, "actor_role", actor.Role, "error", verifyErr)
		return nil, err
	default:
		s.recordRejection(donationID, constants.DonationStatusPickedUp, actor, err)
		return nil, err
	}
	s.afterTransition(ctx, result, from, started)
	return result, nil
}

// IssueOtp 签发取件验证码（覆盖旧码），返回签发时间；验证码通过邮件发送给捐赠人
func (s *DonationLifecycle) IssueOtp(ctx context.Context, donationID uint, actor Actor) (time.Time, error) {
	var issuedAt time.Time
	err := s.donationRepo.Transaction(func(tx *gorm.DB) error {
		donation, err := s.lockDonation(tx, donationID, actor)
		if err != nil {
			return err
		}
		now := s.now()
		_, updates, err := s.otp.issue(ctx, donation, now)
		if err != nil {
			return err
		}
		if err := s.donationRepo.WithTx(tx).Updates(donation.ID, updates); err != nil {
			return fmt.Errorf("%w: %v", ErrDonationUpdateFailed, err)
		}
		issuedAt = now
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrDonationNotFound) {
			logger.Errorw("donation_otp_issue_failed", "donation_id", donationID, "error", err)
		}
		return time.Time{}, err
	}
	s.metrics.IncOtpIssued()
	logger.Infow("donation_otp_issued", "donation_id", donationID, "actor_role", actor.Role, "actor_id", actor.ID)
	s.notifier.OtpIssued(ctx, donationID, issuedAt)
	return issuedAt, nil
}

func (s *DonationLifecycle) lockDonation(tx *gorm.DB, donationID uint, actor Actor) (*models.Donation, error) {
	donation, err := s.donationRepo.WithTx(tx).GetByIDForUpdate(donationID)
	if err != nil {
		return nil, err
	}
	if donation == nil || !actor.canAccess(donation) {
		return nil, ErrDonationNotFound
	}
	return donation, nil
}

// applyTransition 校验并写入状态与台账，调用方需持有行锁
func (s *DonationLifecycle) applyTransition(tx *gorm.DB, donation *models.Donation, target string, actor Actor) error {
	now := s.now()
	otp := otpSnapshot{IssuedAt: donation.OtpIssuedAt, Verified: donation.OtpVerified}
	if err := checkTransition(donation.Status, target, actor.Role, otp, s.otp.Window(), now); err != nil {
		return err
	}
	updates := map[string]interface{}{
		"status":     target,
		"updated_at": now,
	}
	if target == constants.DonationStatusPickedUp {
		consumeOtp(donation, updates)
	}
	if err := s.donationRepo.WithTx(tx).Updates(donation.ID, updates); err != nil {
		return fmt.Errorf("%w: %v", ErrDonationUpdateFailed, err)
	}
	if _, err := s.ledger.WithTx(tx).RecordStatus(donation.ID, target, now); err != nil {
		return fmt.Errorf("%w: %v", ErrDonationUpdateFailed, err)
	}
	donation.Status = target
	donation.UpdatedAt = now
	return nil
}

func (s *DonationLifecycle) afterTransition(ctx context.Context, donation *models.Donation, from string, started time.Time) {
	s.metrics.IncTransition(from, donation.Status)
	s.metrics.ObserveTransition(time.Since(started))
	if err := cache.Del(ctx, trackingViewCacheKey(donation.ID)); err != nil {
		logger.Warnw("tracking_view_cache_invalidate_failed", "donation_id", donation.ID, "error", err)
	}
	logger.Infow("donation_status_changed",
		"donation_id", donation.ID,
		"receipt_no", donation.ReceiptNo,
		"from", from,
		"to", donation.Status,
	)
	s.notifier.StatusChanged(ctx, donation.ID, donation.Status)
}

func (s *DonationLifecycle) recordRejection(donationID uint, target string, actor Actor, err error) {
	switch {
	case errors.Is(err, ErrDonationNotFound):
		s.metrics.IncRejected("not_found")
	case errors.Is(err, ErrInvalidTransition):
		s.metrics.IncRejected("invalid_transition")
	case errors.Is(err, ErrOtpRequired):
		s.metrics.IncRejected("otp_required")
	case errors.Is(err, ErrOtpExpired):
		s.metrics.IncRejected("otp_expired")
	case errors.Is(err, ErrTransitionForbidden):
		s.metrics.IncRejected("forbidden")
	default:
		logger.Errorw("donation_transition_failed", "donation_id", donationID, "target", target, "error", err)
		return
	}
	logger.Debugw("donation_transition_rejected",
		"donation_id", donationID,
		"target", target,
		"actor_role", actor.Role,
		"reason", err.Error(),
	)
}

func otpOutcome(err error) string {
	switch {
	case errors.Is(err, ErrOtpMismatch):
		return "mismatch"
	case errors.Is(err, ErrOtpExpired):
		return "expired"
	case errors.Is(err, ErrOtpLocked):
		return "locked"
	case errors.Is(err, ErrOtpRequired):
		return "required"
	default:
		return "error"
	}
}
