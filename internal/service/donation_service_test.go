package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/donatehub-next/internal/constants"
)

func TestCreateDonationValidation(t *testing.T) {
	env := setupDonationServiceTest(t, donationTestOptions{})

	tests := []struct {
		name   string
		mutate func(in *CreateDonationInput)
		want   error
	}{
		{name: "missing_category", mutate: func(in *CreateDonationInput) { in.Category = " " }, want: ErrCategoryRequired},
		{name: "missing_description", mutate: func(in *CreateDonationInput) { in.Description = "" }, want: ErrDescriptionRequired},
		{name: "bad_date", mutate: func(in *CreateDonationInput) { in.PickupDate = "05/03/2024" }, want: ErrPickupDateInvalid},
		{name: "unknown_district", mutate: func(in *CreateDonationInput) { in.District = "Chennai" }, want: ErrDistrictInvalid},
		{name: "negative_value", mutate: func(in *CreateDonationInput) { in.EstimatedValue = "-1" }, want: ErrEstimatedValueInvalid},
		{name: "garbage_value", mutate: func(in *CreateDonationInput) { in.EstimatedValue = "lots" }, want: ErrEstimatedValueInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validDonationInput(1)
			tt.mutate(&input)
			if _, err := env.svc.Create(context.Background(), input); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateDonationDefaults(t *testing.T) {
	env := setupDonationServiceTest(t, donationTestOptions{})
	input := validDonationInput(1)
	input.EstimatedValue = ""
	donation, err := env.svc.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if donation.EstimatedValue != nil {
		t.Fatalf("expected nil estimated value, got %v", donation.EstimatedValue)
	}
	if donation.State != constants.DefaultState {
		t.Fatalf("expected state %s, got %s", constants.DefaultState, donation.State)
	}
	if !receiptPattern.MatchString(donation.ReceiptNo) {
		t.Fatalf("unexpected receipt: %s", donation.ReceiptNo)
	}
	tracking := env.tracking(t, donation.ID)
	if tracking.SubmittedAt == nil || !tracking.SubmittedAt.Equal(env.clock.Now()) {
		t.Fatalf("expected submitted_at at creation time, got %v", tracking.SubmittedAt)
	}
	if got := donation.LocationDisplay(); got != "Kakkanad → Ernakulam → Kerala" {
		t.Fatalf("unexpected location display: %s", got)
	}
}

func TestDonationOwnerAccess(t *testing.T) {
	env := setupDonationServiceTest(t, donationTestOptions{})
	ctx := context.Background()
	donation := env.mustCreate(t, 11)

	if _, err := env.svc.Get(ctx, donation.ID, DonorActor(11)); err != nil {
		t.Fatalf("owner get failed: %v", err)
	}
	if _, err := env.svc.Get(ctx, donation.ID, OperatorActor(1)); err != nil {
		t.Fatalf("operator get failed: %v", err)
	}
	if _, err := env.svc.Get(ctx, donation.ID, DonorActor(12)); !errors.Is(err, ErrDonationNotFound) {
		t.Fatalf("expected ErrDonationNotFound for other donor, got %v", err)
	}
	if _, err := env.svc.TrackingView(ctx, donation.ID, DonorActor(12)); !errors.Is(err, ErrDonationNotFound) {
		t.Fatalf("expected ErrDonationNotFound for tracking, got %v", err)
	}
	if _, err := env.svc.IssueOtp(ctx, donation.ID, DonorActor(12)); !errors.Is(err, ErrDonationNotFound) {
		t.Fatalf("expected ErrDonationNotFound for otp, got %v", err)
	}
}

func TestListDonations(t *testing.T) {
	env := setupDonationServiceTest(t, donationTestOptions{})
	first := env.mustCreate(t, 21)
	env.clock.Advance(time.Minute)
	second := env.mustCreate(t, 21)
	env.mustCreate(t, 22)
	env.mustSetStatus(t, second.ID, constants.DonationStatusConfirmed)

	mine, total, err := env.svc.ListForDonor(21, 1, 20)
	if err != nil {
		t.Fatalf("list for donor failed: %v", err)
	}
	if total != 2 || len(mine) != 2 {
		t.Fatalf("expected 2 donations, got total=%d len=%d", total, len(mine))
	}
	if mine[0].ID != second.ID || mine[1].ID != first.ID {
		t.Fatalf("expected newest first, got %d,%d", mine[0].ID, mine[1].ID)
	}

	confirmed, total, err := env.svc.ListAdmin(AdminDonationListInput{Page: 1, PageSize: 20, Status: "confirmed"})
	if err != nil {
		t.Fatalf("admin list failed: %v", err)
	}
	if total != 1 || confirmed[0].ID != second.ID {
		t.Fatalf("unexpected status filter result: total=%d", total)
	}

	byDate, total, err := env.svc.ListAdmin(AdminDonationListInput{PickupDate: "2024-03-05", District: "Ernakulam"})
	if err != nil {
		t.Fatalf("admin list by date failed: %v", err)
	}
	if total != 3 || len(byDate) != 3 {
		t.Fatalf("expected 3 donations for date, got %d", total)
	}

	if _, _, err := env.svc.ListAdmin(AdminDonationListInput{Status: "LOST"}); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestReceiptView(t *testing.T) {
	env := setupDonationServiceTest(t, donationTestOptions{})
	donation := env.mustCreate(t, 1)

	receipt, err := env.svc.Receipt(context.Background(), donation.ID, DonorActor(1))
	if err != nil {
		t.Fatalf("receipt failed: %v", err)
	}
	if receipt.ReceiptNo != donation.ReceiptNo || receipt.PickupDate != "2024-03-05" {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
	if receipt.EstimatedValue == nil || receipt.EstimatedValue.String() != "1500.00" {
		t.Fatalf("unexpected estimated value: %v", receipt.EstimatedValue)
	}
	if receipt.StatusLabel != "Submitted" {
		t.Fatalf("unexpected status label: %s", receipt.StatusLabel)
	}
}

func TestDistrictsAndCategorySuggestion(t *testing.T) {
	env := setupDonationServiceTest(t, donationTestOptions{})
	districts := env.svc.Districts()
	if len(districts) != 14 {
		t.Fatalf("expected 14 districts, got %d", len(districts))
	}
	if districts[0].ID != "Thiruvananthapuram" || districts[0].Name != districts[0].ID {
		t.Fatalf("unexpected first district: %+v", districts[0])
	}
	if districts[13].Name != "Kasaragod" {
		t.Fatalf("unexpected last district: %+v", districts[13])
	}

	suggestions := map[string]string{
		"old story books":     "Books",
		"Soft TOYS for kids":  "Toys",
		"used mobile phone":   "Electronics",
		"running shoes":       "Footwear",
		"winter clothes":      "Clothes",
		"wooden dining table": "Furniture",
		"pressure cooker":     constants.DefaultDonationCategory,
		"":                    constants.DefaultDonationCategory,
	}
	for text, want := range suggestions {
		if got := SuggestCategory(text); got != want {
			t.Fatalf("suggest %q: expected %s, got %s", text, want, got)
		}
	}
}

func buildImageFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("images", filename)
	if err != nil {
		t.Fatalf("create form file failed: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write form file failed: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer failed: %v", err)
	}
	req := httptest.NewRequest("POST", "/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := req.ParseMultipartForm(10 << 20); err != nil {
		t.Fatalf("parse multipart failed: %v", err)
	}
	return req.MultipartForm.File["images"][0]
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png failed: %v", err)
	}
	return buf.Bytes()
}

func TestAttachImages(t *testing.T) {
	dir := t.TempDir()
	env := setupDonationServiceTest(t, donationTestOptions{uploadDir: dir})
	ctx := context.Background()
	donation := env.mustCreate(t, 1)

	images, err := env.svc.AttachImages(ctx, donation.ID, DonorActor(1), []*multipart.FileHeader{
		buildImageFileHeader(t, "books.png", pngBytes(t)),
	})
	if err != nil {
		t.Fatalf("attach images failed: %v", err)
	}
	if len(images) != 1 || images[0].ContentType != "image/png" {
		t.Fatalf("unexpected images: %+v", images)
	}
	if !strings.HasPrefix(images[0].URL, "/uploads/donations/2024/03/01/") {
		t.Fatalf("unexpected url: %s", images[0].URL)
	}
	stored := filepath.Join(dir, strings.TrimPrefix(images[0].URL, "/uploads/"))
	if _, err := os.Stat(stored); err != nil {
		t.Fatalf("stored file missing: %v", err)
	}

	reloaded, err := env.svc.Get(ctx, donation.ID, DonorActor(1))
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(reloaded.Images) != 1 {
		t.Fatalf("expected 1 image on donation, got %d", len(reloaded.Images))
	}

	_, err = env.svc.AttachImages(ctx, donation.ID, DonorActor(1), []*multipart.FileHeader{
		buildImageFileHeader(t, "notes.txt", []byte("plain text")),
	})
	if !errors.Is(err, ErrUploadTypeNotAllowed) {
		t.Fatalf("expected ErrUploadTypeNotAllowed, got %v", err)
	}
	_, err = env.svc.AttachImages(ctx, donation.ID, DonorActor(1), []*multipart.FileHeader{
		buildImageFileHeader(t, "fake.png", []byte("not really a png")),
	})
	if !errors.Is(err, ErrUploadTypeNotAllowed) {
		t.Fatalf("expected ErrUploadTypeNotAllowed for fake png, got %v", err)
	}
}
