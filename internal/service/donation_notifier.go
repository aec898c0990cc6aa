package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/donatehub-next/internal/constants"
	"github.com/donatehub-next/internal/i18n"
	"github.com/donatehub-next/internal/logger"
	"github.com/donatehub-next/internal/metrics"
	"github.com/donatehub-next/internal/models"
	"github.com/donatehub-next/internal/queue"
	"github.com/donatehub-next/internal/repository"
)

// DonationNotifier 捐赠通知：提交、状态变更、取件验证码；队列启用时异步投递，否则同步发送。
// 通知失败只记录日志，不影响生命周期操作结果。
type DonationNotifier struct {
	donationRepo repository.DonationRepository
	emailService *EmailService
	queueClient  *queue.Client
	otpWindow    time.Duration
	locale       string
	metrics      *metrics.Metrics
}

// NewDonationNotifier 创建捐赠通知服务
func NewDonationNotifier(
	donationRepo repository.DonationRepository,
	emailService *EmailService,
	queueClient *queue.Client,
	otpWindow time.Duration,
	m *metrics.Metrics,
) *DonationNotifier {
	return &DonationNotifier{
		donationRepo: donationRepo,
		emailService: emailService,
		queueClient:  queueClient,
		otpWindow:    otpWindow,
		locale:       i18n.DefaultLocale,
		metrics:      m,
	}
}

// StatusChanged 状态变更（含提交）通知
func (n *DonationNotifier) StatusChanged(ctx context.Context, donationID uint, status string) {
	if n == nil || donationID == 0 {
		return
	}
	payload := queue.DonationStatusEmailPayload{DonationID: donationID, Status: strings.TrimSpace(status)}
	if n.queueClient.Enabled() {
		if err := n.queueClient.EnqueueDonationStatusEmail(ctx, payload); err != nil {
			n.metrics.IncNotificationFailure("status_enqueue")
			logger.Warnw("donation_status_email_enqueue_failed", "donation_id", donationID, "status", status, "error", err)
		}
		return
	}
	if err := n.DeliverStatusEmail(ctx, payload); err != nil {
		logger.Warnw("donation_status_email_inline_failed", "donation_id", donationID, "status", status, "error", err)
	}
}

// OtpIssued 验证码签发通知
func (n *DonationNotifier) OtpIssued(ctx context.Context, donationID uint, issuedAt time.Time) {
	if n == nil || donationID == 0 {
		return
	}
	payload := queue.DonationOtpEmailPayload{DonationID: donationID, IssuedAt: issuedAt}
	if n.queueClient.Enabled() {
		if err := n.queueClient.EnqueueDonationOtpEmail(ctx, payload); err != nil {
			n.metrics.IncNotificationFailure("otp_enqueue")
			logger.Warnw("donation_otp_email_enqueue_failed", "donation_id", donationID, "error", err)
		}
		return
	}
	if err := n.DeliverOtpEmail(ctx, payload); err != nil {
		logger.Warnw("donation_otp_email_inline_failed", "donation_id", donationID, "error", err)
	}
}

// DeliverStatusEmail 发送状态邮件，队列消费者与同步路径共用
func (n *DonationNotifier) DeliverStatusEmail(_ context.Context, payload queue.DonationStatusEmailPayload) error {
	donation, receiver, ok, err := n.loadReceiver(payload.DonationID)
	if err != nil || !ok {
		return err
	}
	status := strings.TrimSpace(payload.Status)
	if status == "" {
		status = donation.Status
	}
	input := DonationEmailInput{
		ReceiptNo:  donation.ReceiptNo,
		Category:   donation.Category,
		PickupDate: donation.PickupDate.Format("2006-01-02"),
		Location:   donation.LocationDisplay(),
		Status:     status,
		Progress:   ProgressPercentage(status),
	}
	if status == constants.DonationStatusSubmitted {
		err = n.emailService.SendDonationSubmittedEmail(receiver, input, n.locale)
	} else {
		err = n.emailService.SendDonationStatusEmail(receiver, input, n.locale)
	}
	return n.handleSendError("status", donation, err)
}

// DeliverOtpEmail 发送验证码邮件；验证码已被重新签发或已消费时丢弃
func (n *DonationNotifier) DeliverOtpEmail(_ context.Context, payload queue.DonationOtpEmailPayload) error {
	donation, receiver, ok, err := n.loadReceiver(payload.DonationID)
	if err != nil || !ok {
		return err
	}
	if donation.OtpCode == "" || donation.OtpIssuedAt == nil {
		logger.Debugw("donation_otp_email_skip_consumed", "donation_id", donation.ID)
		return nil
	}
	if !payload.IssuedAt.IsZero() && !donation.OtpIssuedAt.Equal(payload.IssuedAt) {
		logger.Debugw("donation_otp_email_skip_stale", "donation_id", donation.ID)
		return nil
	}
	input := DonationEmailInput{
		ReceiptNo:       donation.ReceiptNo,
		OtpCode:         donation.OtpCode,
		OtpValidMinutes: int(n.otpWindow / time.Minute),
	}
	err = n.emailService.SendDonationOtpEmail(receiver, input, n.locale)
	return n.handleSendError("otp", donation, err)
}

func (n *DonationNotifier) loadReceiver(donationID uint) (*models.Donation, string, bool, error) {
	if n == nil || n.donationRepo == nil || n.emailService == nil || donationID == 0 {
		return nil, "", false, nil
	}
	donation, err := n.donationRepo.GetByID(donationID)
	if err != nil {
		return nil, "", false, err
	}
	if donation == nil {
		logger.Debugw("donation_email_skip_not_found", "donation_id", donationID)
		return nil, "", false, nil
	}
	receiver := strings.TrimSpace(donation.DonorEmail)
	if receiver == "" {
		logger.Debugw("donation_email_skip_empty_receiver", "donation_id", donationID)
		return nil, "", false, nil
	}
	return donation, receiver, true, nil
}

func (n *DonationNotifier) handleSendError(kind string, donation *models.Donation, err error) error {
	if err == nil {
		return nil
	}
	// 邮件未启用或收件人无效时重试无意义
	if errors.Is(err, ErrEmailServiceDisabled) || errors.Is(err, ErrEmailServiceNotConfigured) {
		logger.Debugw("donation_email_skip_disabled", "donation_id", donation.ID, "kind", kind)
		return nil
	}
	n.metrics.IncNotificationFailure(kind)
	if errors.Is(err, ErrInvalidEmail) || errors.Is(err, ErrEmailRecipientRejected) {
		logger.Warnw("donation_email_receiver_rejected", "donation_id", donation.ID, "kind", kind, "error", err)
		return nil
	}
	logger.Warnw("donation_email_send_failed",
		"donation_id", donation.ID,
		"receipt_no", donation.ReceiptNo,
		"kind", kind,
		"error", err,
	)
	return err
}
