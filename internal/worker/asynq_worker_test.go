package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/donatehub-next/internal/config"
	"github.com/donatehub-next/internal/constants"
	"github.com/donatehub-next/internal/models"
	"github.com/donatehub-next/internal/provider"
	"github.com/donatehub-next/internal/queue"
	"github.com/donatehub-next/internal/repository"
	"github.com/donatehub-next/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func setupConsumerTest(t *testing.T) (*Consumer, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	repo := repository.NewDonationRepository(db)
	// 邮件未启用：投递应静默成功
	emailService := service.NewEmailService(&config.EmailConfig{})
	notifier := service.NewDonationNotifier(repo, emailService, nil, 10*time.Minute, nil)
	return NewConsumer(&provider.Container{DonationRepo: repo, DonationNotifier: notifier}), db
}

func TestConsumerRejectsMalformedPayload(t *testing.T) {
	consumer, _ := setupConsumerTest(t)
	bad := asynq.NewTask(queue.TaskDonationStatusEmail, []byte("{not json"))
	if err := consumer.handleDonationStatusEmail(context.Background(), bad); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry for malformed status task, got %v", err)
	}
	badOtp := asynq.NewTask(queue.TaskDonationOtpEmail, []byte("[]"))
	if err := consumer.handleDonationOtpEmail(context.Background(), badOtp); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry for malformed otp task, got %v", err)
	}
}

func TestConsumerSkipsMissingDonation(t *testing.T) {
	consumer, _ := setupConsumerTest(t)
	zero, err := queue.NewDonationStatusEmailTask(queue.DonationStatusEmailPayload{})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleDonationStatusEmail(context.Background(), zero); err != nil {
		t.Fatalf("zero id should be skipped, got %v", err)
	}
	missing, err := queue.NewDonationOtpEmailTask(queue.DonationOtpEmailPayload{DonationID: 404, IssuedAt: time.Now()})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleDonationOtpEmail(context.Background(), missing); err != nil {
		t.Fatalf("missing donation should be skipped, got %v", err)
	}
}

func TestConsumerDeliversWithDisabledEmail(t *testing.T) {
	consumer, db := setupConsumerTest(t)
	issuedAt := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	donation := models.Donation{
		ReceiptNo:   "RCPT-20240301-WORK0001",
		DonorID:     1,
		DonorEmail:  "donor@example.com",
		Category:    "Books",
		Description: "novels",
		PickupDate:  issuedAt,
		State:       constants.DefaultState,
		Status:      constants.DonationStatusConfirmed,
		OtpCode:     "123456",
		OtpIssuedAt: &issuedAt,
	}
	if err := db.Create(&donation).Error; err != nil {
		t.Fatalf("create donation failed: %v", err)
	}

	statusTask, _ := queue.NewDonationStatusEmailTask(queue.DonationStatusEmailPayload{DonationID: donation.ID, Status: donation.Status})
	if err := consumer.handleDonationStatusEmail(context.Background(), statusTask); err != nil {
		t.Fatalf("status email should not fail when email disabled: %v", err)
	}
	otpTask, _ := queue.NewDonationOtpEmailTask(queue.DonationOtpEmailPayload{DonationID: donation.ID, IssuedAt: issuedAt})
	if err := consumer.handleDonationOtpEmail(context.Background(), otpTask); err != nil {
		t.Fatalf("otp email should not fail when email disabled: %v", err)
	}
}

func TestRegisterHandlesNilMux(t *testing.T) {
	var consumer *Consumer
	consumer.Register(nil)
	NewConsumer(nil).Register(asynq.NewServeMux())
}

func TestNewServiceRequiresEnabledQueue(t *testing.T) {
	if _, err := NewService(&config.QueueConfig{Enabled: false}, NewConsumer(nil)); !errors.Is(err, ErrQueueDisabled) {
		t.Fatalf("expected ErrQueueDisabled, got %v", err)
	}
	if _, err := NewService(&config.QueueConfig{Enabled: true}, nil); !errors.Is(err, ErrConsumerMissing) {
		t.Fatalf("expected ErrConsumerMissing, got %v", err)
	}
	var stopped *Service
	if err := stopped.Start(context.Background()); !errors.Is(err, ErrWorkerNotReady) {
		t.Fatalf("expected ErrWorkerNotReady, got %v", err)
	}
}

// recordingDeliverer 记录收到的投递请求
type recordingDeliverer struct {
	statuses []queue.DonationStatusEmailPayload
	otps     []queue.DonationOtpEmailPayload
}

func (r *recordingDeliverer) DeliverStatusEmail(_ context.Context, payload queue.DonationStatusEmailPayload) error {
	r.statuses = append(r.statuses, payload)
	return nil
}

func (r *recordingDeliverer) DeliverOtpEmail(_ context.Context, payload queue.DonationOtpEmailPayload) error {
	r.otps = append(r.otps, payload)
	return nil
}

func TestConsumerRoutesThroughServeMux(t *testing.T) {
	deliverer := &recordingDeliverer{}
	mux := asynq.NewServeMux()
	(&Consumer{deliverer: deliverer}).Register(mux)

	statusTask, _ := queue.NewDonationStatusEmailTask(queue.DonationStatusEmailPayload{DonationID: 7, Status: constants.DonationStatusInTransit})
	if err := mux.ProcessTask(context.Background(), statusTask); err != nil {
		t.Fatalf("process status task failed: %v", err)
	}
	otpTask, _ := queue.NewDonationOtpEmailTask(queue.DonationOtpEmailPayload{DonationID: 7})
	if err := mux.ProcessTask(context.Background(), otpTask); err != nil {
		t.Fatalf("process otp task failed: %v", err)
	}
	if len(deliverer.statuses) != 1 || deliverer.statuses[0].Status != constants.DonationStatusInTransit {
		t.Fatalf("unexpected status deliveries: %+v", deliverer.statuses)
	}
	if len(deliverer.otps) != 1 || deliverer.otps[0].DonationID != 7 {
		t.Fatalf("unexpected otp deliveries: %+v", deliverer.otps)
	}
}
