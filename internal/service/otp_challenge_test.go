package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/donatehub-next/internal/config"
	"github.com/donatehub-next/internal/constants"
	"github.com/donatehub-next/internal/models"
)

func TestRandomNumericCode(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := RandomCodeGenerator.Generate(6)
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		for _, ch := range code {
			if ch < '0' || ch > '9' {
				t.Fatalf("expected numeric code, got %q", code)
			}
		}
	}
}

func TestOtpVerifyWindowBoundary(t *testing.T) {
	otp := NewOtpChallenge(config.OTPConfig{}, sequenceCodes("111222"), nil)
	issuedAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()

	tests := []struct {
		name    string
		elapsed time.Duration
		want    error
	}{
		{name: "at_600s", elapsed: 600 * time.Second, want: nil},
		{name: "at_601s", elapsed: 601 * time.Second, want: ErrOtpExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			donation := &models.Donation{ID: 1}
			code, _, err := otp.issue(ctx, donation, issuedAt)
			if err != nil {
				t.Fatalf("issue failed: %v", err)
			}
			_, err = otp.verify(ctx, donation, code, issuedAt.Add(tt.elapsed))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if tt.want != nil && donation.OtpCode != code {
				t.Fatalf("expired code must be kept, got %q", donation.OtpCode)
			}
			if tt.want == nil && !donation.OtpVerified {
				t.Fatalf("expected verified flag set")
			}
		})
	}
}

func TestOtpReissueInvalidatesPreviousCode(t *testing.T) {
	otp := NewOtpChallenge(config.OTPConfig{}, sequenceCodes("111111", "222222"), nil)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	donation := &models.Donation{ID: 1}

	first, _, err := otp.issue(ctx, donation, now)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := otp.verify(ctx, donation, first, now.Add(time.Minute)); err != nil {
		t.Fatalf("verify first failed: %v", err)
	}
	second, updates, err := otp.issue(ctx, donation, now.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("reissue failed: %v", err)
	}
	if donation.OtpVerified || updates["otp_verified"] != false {
		t.Fatalf("reissue must reset verified flag")
	}
	if _, err := otp.verify(ctx, donation, first, now.Add(3*time.Minute)); !errors.Is(err, ErrOtpMismatch) {
		t.Fatalf("expected ErrOtpMismatch for previous code, got %v", err)
	}
	if _, err := otp.verify(ctx, donation, second, now.Add(3*time.Minute)); err != nil {
		t.Fatalf("verify second failed: %v", err)
	}
}

func TestOtpVerifyWithoutIssue(t *testing.T) {
	otp := NewOtpChallenge(config.OTPConfig{}, nil, nil)
	_, err := otp.verify(context.Background(), &models.Donation{ID: 1}, "123456", time.Now())
	if !errors.Is(err, ErrOtpRequired) {
		t.Fatalf("expected ErrOtpRequired, got %v", err)
	}
}

func TestConfirmOtpMismatchKeepsStatus(t *testing.T) {
	env := setupDonationServiceTest(t, donationTestOptions{generator: sequenceCodes("555666")})
	ctx := context.Background()
	donor := DonorActor(4)
	donation := env.mustCreate(t, 4)
	env.mustSetStatus(t, donation.ID, constants.DonationStatusPickupScheduled)

	if _, err := env.svc.IssueOtp(ctx, donation.ID, donor); err != nil {
		t.Fatalf("issue otp failed: %v", err)
	}
	if _, err := env.svc.ConfirmOtp(ctx, donation.ID, "000000", donor); !errors.Is(err, ErrOtpMismatch) {
		t.Fatalf("expected ErrOtpMismatch, got %v", err)
	}
	reloaded := env.reload(t, donation.ID)
	if reloaded.Status != constants.DonationStatusPickupScheduled || reloaded.OtpVerified {
		t.Fatalf("mismatch must not change donation: %+v", reloaded)
	}
	if reloaded.OtpCode != "555666" {
		t.Fatalf("mismatch must keep code, got %q", reloaded.OtpCode)
	}
}

func TestConfirmOtpExpiredAfterWindow(t *testing.T) {
	env := setupDonationServiceTest(t, donationTestOptions{generator: sequenceCodes("808080")})
	ctx := context.Background()
	donor := DonorActor(4)
	donation := env.mustCreate(t, 4)

	if _, err := env.svc.IssueOtp(ctx, donation.ID, donor); err != nil {
		t.Fatalf("issue otp failed: %v", err)
	}
	env.clock.Advance(601 * time.Second)
	if _, err := env.svc.ConfirmOtp(ctx, donation.ID, "808080", donor); !errors.Is(err, ErrOtpExpired) {
		t.Fatalf("expected ErrOtpExpired, got %v", err)
	}
	if got := env.reload(t, donation.ID).OtpCode; got != "808080" {
		t.Fatalf("expired code must be kept, got %q", got)
	}

	if _, err := env.svc.IssueOtp(ctx, donation.ID, donor); err != nil {
		t.Fatalf("reissue otp failed: %v", err)
	}
	if _, err := env.svc.ConfirmOtp(ctx, donation.ID, "808080", donor); err != nil {
		t.Fatalf("confirm after reissue failed: %v", err)
	}
}

func TestConfirmOtpLocksAfterRepeatedMismatch(t *testing.T) {
	env := setupDonationServiceTest(t, donationTestOptions{generator: sequenceCodes("424242")})
	ctx := context.Background()
	donor := DonorActor(8)
	donation := env.mustCreate(t, 8)

	if _, err := env.svc.IssueOtp(ctx, donation.ID, donor); err != nil {
		t.Fatalf("issue otp failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := env.svc.ConfirmOtp(ctx, donation.ID, "999999", donor); !errors.Is(err, ErrOtpMismatch) {
			t.Fatalf("attempt %d: expected ErrOtpMismatch, got %v", i+1, err)
		}
	}
	_, err := env.svc.ConfirmOtp(ctx, donation.ID, "424242", donor)
	var lockedErr *OtpLockedError
	if !errors.As(err, &lockedErr) {
		t.Fatalf("expected OtpLockedError, got %v", err)
	}
	if lockedErr.RetryAfterSeconds <= 0 {
		t.Fatalf("expected positive retry after, got %d", lockedErr.RetryAfterSeconds)
	}

	// 重新签发后解除锁定
	if _, err := env.svc.IssueOtp(ctx, donation.ID, donor); err != nil {
		t.Fatalf("reissue otp failed: %v", err)
	}
	if _, err := env.svc.ConfirmOtp(ctx, donation.ID, "424242", donor); err != nil {
		t.Fatalf("confirm after reissue failed: %v", err)
	}
}

func TestConfirmOtpOnTerminalDonation(t *testing.T) {
	env := setupDonationServiceTest(t, donationTestOptions{generator: sequenceCodes("121212")})
	ctx := context.Background()
	donor := DonorActor(4)
	donation := env.mustCreate(t, 4)

	if _, err := env.svc.IssueOtp(ctx, donation.ID, donor); err != nil {
		t.Fatalf("issue otp failed: %v", err)
	}
	if _, err := env.svc.Cancel(ctx, donation.ID, donor); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := env.svc.ConfirmOtp(ctx, donation.ID, "121212", donor); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}
