package service

import (
	"testing"
	"time"

	"github.com/donatehub-next/internal/constants"
	"github.com/donatehub-next/internal/models"
	"github.com/donatehub-next/internal/repository"
)

func TestProgressPercentage(t *testing.T) {
	tests := map[string]int{
		constants.DonationStatusSubmitted:       0,
		constants.DonationStatusConfirmed:       14,
		constants.DonationStatusPickupScheduled: 28,
		constants.DonationStatusPickedUp:        42,
		constants.DonationStatusInTransit:       57,
		constants.DonationStatusDelivered:       100,
		constants.DonationStatusCompleted:       100,
		constants.DonationStatusCancelled:       0,
		"UNKNOWN":                               0,
	}
	for status, want := range tests {
		if got := ProgressPercentage(status); got != want {
			t.Fatalf("status %s: expected %d, got %d", status, want, got)
		}
	}
}

func TestRecordStatusIsWriteOnce(t *testing.T) {
	db := openDonationTestDB(t)
	ledger := NewTrackingLedger(repository.NewDonationTrackingRepository(db))
	donation := models.Donation{
		ReceiptNo:   "RCPT-20240301-AAAA0001",
		DonorID:     1,
		Category:    "Books",
		Description: "novels",
		PickupDate:  time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		State:       constants.DefaultState,
		Status:      constants.DonationStatusSubmitted,
	}
	if err := db.Create(&donation).Error; err != nil {
		t.Fatalf("create donation failed: %v", err)
	}

	first := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	if _, err := ledger.RecordStatus(donation.ID, constants.DonationStatusSubmitted, first); err != nil {
		t.Fatalf("record submitted failed: %v", err)
	}
	if _, err := ledger.RecordStatus(donation.ID, constants.DonationStatusConfirmed, first.Add(time.Hour)); err != nil {
		t.Fatalf("record confirmed failed: %v", err)
	}
	tracking, err := ledger.RecordStatus(donation.ID, constants.DonationStatusSubmitted, first.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("record submitted again failed: %v", err)
	}
	if tracking.SubmittedAt == nil || !tracking.SubmittedAt.Equal(first) {
		t.Fatalf("submitted_at must not be overwritten, got %v", tracking.SubmittedAt)
	}

	var count int64
	if err := db.Model(&models.DonationTracking{}).Where("donation_id = ?", donation.ID).Count(&count).Error; err != nil {
		t.Fatalf("count tracking failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one ledger row, got %d", count)
	}

	stored, err := ledger.Get(donation.ID)
	if err != nil {
		t.Fatalf("get tracking failed: %v", err)
	}
	if stored.ConfirmedAt == nil || !stored.ConfirmedAt.Equal(first.Add(time.Hour)) {
		t.Fatalf("unexpected confirmed_at: %v", stored.ConfirmedAt)
	}
	if stored.CurrentStatus != constants.DonationStatusSubmitted {
		t.Fatalf("expected current status mirrored, got %s", stored.CurrentStatus)
	}
}

func TestRecordStatusCancelledHasNoTimestamp(t *testing.T) {
	tracking := &models.DonationTracking{}
	stampOnce(tracking, constants.DonationStatusCancelled, time.Now())
	for _, status := range DonationStatuses() {
		if field := tracking.StatusAt(status); field != nil && *field != nil {
			t.Fatalf("cancel must not stamp %s", status)
		}
	}
}

func TestBuildTrackingSteps(t *testing.T) {
	submitted := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	confirmed := submitted.Add(time.Hour)
	tracking := &models.DonationTracking{
		CurrentStatus: constants.DonationStatusConfirmed,
		SubmittedAt:   &submitted,
		ConfirmedAt:   &confirmed,
	}

	steps := BuildTrackingSteps(tracking, constants.DonationStatusConfirmed)
	if len(steps) != 7 {
		t.Fatalf("expected 7 steps, got %d", len(steps))
	}
	for i, step := range steps {
		if step.StepNumber != i+1 {
			t.Fatalf("unexpected step number at %d: %d", i, step.StepNumber)
		}
	}
	if !steps[0].Completed || !steps[1].Completed || steps[2].Completed {
		t.Fatalf("unexpected completion flags: %+v", steps)
	}
	if !steps[1].IsCurrent || steps[0].IsCurrent {
		t.Fatalf("unexpected current flags: %+v", steps)
	}
	if steps[2].Label != "Pickup Scheduled" {
		t.Fatalf("unexpected label: %s", steps[2].Label)
	}

	// 取消后没有步骤为当前
	steps = BuildTrackingSteps(tracking, constants.DonationStatusCancelled)
	for _, step := range steps {
		if step.IsCurrent {
			t.Fatalf("no step should be current after cancel: %+v", step)
		}
	}

	empty := BuildTrackingSteps(nil, constants.DonationStatusSubmitted)
	if empty[0].Completed || !empty[0].IsCurrent {
		t.Fatalf("unexpected steps without ledger: %+v", empty[0])
	}
}
