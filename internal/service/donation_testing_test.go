package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/donatehub-next/internal/cache"
	"github.com/donatehub-next/internal/config"
	"github.com/donatehub-next/internal/models"
	"github.com/donatehub-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(start time.Time) *testClock {
	return &testClock{now: start}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// sequenceCodes 按顺序返回预设验证码
func sequenceCodes(codes ...string) CodeGenerator {
	var mu sync.Mutex
	idx := 0
	return CodeGeneratorFunc(func(length int) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		code := codes[idx%len(codes)]
		idx++
		return code, nil
	})
}

type donationTestEnv struct {
	db       *gorm.DB
	svc      *DonationService
	repo     *repository.GormDonationRepository
	ledger   *TrackingLedger
	limiter  *cache.OtpAttemptLimiter
	clock    *testClock
	receipts *ReceiptAllocator
}

type donationTestOptions struct {
	generator CodeGenerator
	suffix    ReceiptSuffixFunc
	uploadDir string
}

func openDonationTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:donation_service_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func setupDonationServiceTest(t *testing.T, opts donationTestOptions) *donationTestEnv {
	t.Helper()
	db := openDonationTestDB(t)

	clock := newTestClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	donationRepo := repository.NewDonationRepository(db)
	ledger := NewTrackingLedger(repository.NewDonationTrackingRepository(db))
	limiter := cache.NewOtpAttemptLimiter(5, 10*time.Minute)
	otp := NewOtpChallenge(config.OTPConfig{Length: 6, ExpireMinutes: 10}, opts.generator, limiter)
	notifier := NewDonationNotifier(donationRepo, NewEmailService(&config.EmailConfig{}), nil, otp.Window(), nil)
	lifecycle := NewDonationLifecycle(donationRepo, ledger, otp, notifier, nil)
	receipts := NewReceiptAllocator(config.ReceiptConfig{}, opts.suffix, nil)
	uploadDir := opts.uploadDir
	if uploadDir == "" {
		uploadDir = t.TempDir()
	}
	svc := NewDonationService(DonationServiceDeps{
		DonationRepo: donationRepo,
		ImageRepo:    repository.NewDonationImageRepository(db),
		Ledger:       ledger,
		Lifecycle:    lifecycle,
		Receipts:     receipts,
		Uploads:      NewUploadService(config.UploadConfig{Dir: uploadDir}),
		Notifier:     notifier,
	})
	svc.SetClock(clock.Now)

	return &donationTestEnv{
		db:       db,
		svc:      svc,
		repo:     donationRepo,
		ledger:   ledger,
		limiter:  limiter,
		clock:    clock,
		receipts: receipts,
	}
}

func validDonationInput(donorID uint) CreateDonationInput {
	return CreateDonationInput{
		DonorID:        donorID,
		DonorName:      "Anu",
		Category:       "Books",
		Description:    "Box of school textbooks",
		EstimatedValue: "1500.00",
		PickupDate:     "2024-03-05",
		District:       "Ernakulam",
		Area:           "Kakkanad",
		PickupAddress:  "12 Rose Street",
	}
}

func (e *donationTestEnv) mustCreate(t *testing.T, donorID uint) *models.Donation {
	t.Helper()
	donation, err := e.svc.Create(context.Background(), validDonationInput(donorID))
	if err != nil {
		t.Fatalf("create donation failed: %v", err)
	}
	return donation
}

func (e *donationTestEnv) mustSetStatus(t *testing.T, donationID uint, status string) *models.Donation {
	t.Helper()
	donation, err := e.svc.SetStatus(context.Background(), donationID, status, OperatorActor(1))
	if err != nil {
		t.Fatalf("set status %s failed: %v", status, err)
	}
	return donation
}

func (e *donationTestEnv) reload(t *testing.T, donationID uint) *models.Donation {
	t.Helper()
	var donation models.Donation
	if err := e.db.First(&donation, donationID).Error; err != nil {
		t.Fatalf("reload donation failed: %v", err)
	}
	return &donation
}

func (e *donationTestEnv) tracking(t *testing.T, donationID uint) *models.DonationTracking {
	t.Helper()
	tracking, err := e.ledger.Get(donationID)
	if err != nil {
		t.Fatalf("load tracking failed: %v", err)
	}
	if tracking == nil {
		t.Fatalf("tracking not found for donation %d", donationID)
	}
	return tracking
}
