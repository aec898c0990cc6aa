package service

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/donatehub-next/internal/config"
	"github.com/donatehub-next/internal/models"
)

var receiptPattern = regexp.MustCompile(`^RCPT-\d{8}-[0-9A-Z]{8}$`)

func TestReceiptAllocateFormatAndUniqueness(t *testing.T) {
	allocator := NewReceiptAllocator(config.ReceiptConfig{}, nil, nil)
	issueDate := time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)

	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		receiptNo := allocator.Allocate(issueDate)
		if !receiptPattern.MatchString(receiptNo) {
			t.Fatalf("unexpected receipt format: %s", receiptNo)
		}
		if receiptNo[5:13] != "20240301" {
			t.Fatalf("unexpected receipt date: %s", receiptNo)
		}
		if _, ok := seen[receiptNo]; ok {
			t.Fatalf("duplicate receipt number: %s", receiptNo)
		}
		seen[receiptNo] = struct{}{}
	}
}

// scriptedSuffixes 依次返回预设随机段，用尽后重复最后一个
func scriptedSuffixes(values ...string) ReceiptSuffixFunc {
	var mu sync.Mutex
	idx := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		value := values[idx]
		if idx < len(values)-1 {
			idx++
		}
		return value
	}
}

func TestCreateRetriesOnReceiptCollision(t *testing.T) {
	env := setupDonationServiceTest(t, donationTestOptions{
		suffix: scriptedSuffixes("AAAA1111", "AAAA1111", "BBBB2222"),
	})

	first := env.mustCreate(t, 1)
	second := env.mustCreate(t, 2)
	if first.ReceiptNo != "RCPT-20240301-AAAA1111" {
		t.Fatalf("unexpected first receipt: %s", first.ReceiptNo)
	}
	if second.ReceiptNo != "RCPT-20240301-BBBB2222" {
		t.Fatalf("expected retry with new suffix, got %s", second.ReceiptNo)
	}

	var ledgers int64
	if err := env.db.Model(&models.DonationTracking{}).Count(&ledgers).Error; err != nil {
		t.Fatalf("count ledgers failed: %v", err)
	}
	if ledgers != 2 {
		t.Fatalf("expected one ledger per donation, got %d", ledgers)
	}
}

func TestCreateReceiptAllocationExhausted(t *testing.T) {
	env := setupDonationServiceTest(t, donationTestOptions{suffix: scriptedSuffixes("SAME0000")})
	env.mustCreate(t, 1)

	_, err := env.svc.Create(context.Background(), validDonationInput(2))
	if !errors.Is(err, ErrReceiptAllocationFailed) {
		t.Fatalf("expected ErrReceiptAllocationFailed, got %v", err)
	}
	var count int64
	if err := env.db.Model(&models.Donation{}).Count(&count).Error; err != nil {
		t.Fatalf("count donations failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("failed allocation must not persist a donation, got %d rows", count)
	}
}

func TestReceiptNumberIsImmutable(t *testing.T) {
	env := setupDonationServiceTest(t, donationTestOptions{generator: sequenceCodes("112233")})
	ctx := context.Background()
	donation := env.mustCreate(t, 1)
	original := donation.ReceiptNo

	env.mustSetStatus(t, donation.ID, "CONFIRMED")
	if _, err := env.svc.IssueOtp(ctx, donation.ID, DonorActor(1)); err != nil {
		t.Fatalf("issue otp failed: %v", err)
	}
	if _, err := env.svc.ConfirmOtp(ctx, donation.ID, "112233", DonorActor(1)); err != nil {
		t.Fatalf("confirm otp failed: %v", err)
	}
	env.mustSetStatus(t, donation.ID, "COMPLETED")

	if got := env.reload(t, donation.ID).ReceiptNo; got != original {
		t.Fatalf("receipt number changed: %s -> %s", original, got)
	}
}
