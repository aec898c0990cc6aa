//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/donatehub-next/internal/constants"
	"github.com/donatehub-next/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.DonationImage{},
		&models.DonationTracking{},
		&models.Donation{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := db.AutoMigrate(&models.Donation{}, &models.DonationImage{}, &models.DonationTracking{}); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func newPostgresDonation(receiptNo string, donorID uint) *models.Donation {
	value := models.NewMoneyFromDecimal(decimal.RequireFromString("99.90"))
	return &models.Donation{
		ReceiptNo:      receiptNo,
		DonorID:        donorID,
		Category:       "Electronics",
		Description:    "Used Mobile Phone",
		EstimatedValue: &value,
		PickupDate:     time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		State:          constants.DefaultState,
		District:       "Thrissur",
		Area:           "Chalakudy",
		Status:         constants.DonationStatusSubmitted,
	}
}

func TestPostgresDonationReceiptAndKeyword(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewDonationRepository(db)

	if err := repo.Create(newPostgresDonation("RCPT-20240301-PG000001", 1)); err != nil {
		t.Fatalf("create donation failed: %v", err)
	}
	if err := repo.Create(newPostgresDonation("RCPT-20240301-PG000001", 2)); !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation on postgres, got %v", err)
	}

	rows, total, err := repo.ListAdmin(DonationListFilter{Page: 1, PageSize: 10, Keyword: "mobile"})
	if err != nil {
		t.Fatalf("keyword search failed: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("ILIKE keyword search want 1 got total=%d len=%d", total, len(rows))
	}

	pickupDate := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	_, total, err = repo.ListAdmin(DonationListFilter{PickupDate: &pickupDate})
	if err != nil {
		t.Fatalf("pickup date filter failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("pickup date filter want 1 got %d", total)
	}
	if rows[0].EstimatedValue == nil || rows[0].EstimatedValue.String() != "99.90" {
		t.Fatalf("unexpected estimated value: %v", rows[0].EstimatedValue)
	}
}

func TestPostgresDonationRowLockSerializesUpdates(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewDonationRepository(db)
	donation := newPostgresDonation("RCPT-20240301-PG000002", 1)
	if err := repo.Create(donation); err != nil {
		t.Fatalf("create donation failed: %v", err)
	}

	// 两个事务争用同一行：后到者读到前者提交后的状态
	var wg sync.WaitGroup
	seen := make(chan string, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Transaction(func(tx *gorm.DB) error {
				locked, err := repo.WithTx(tx).GetByIDForUpdate(donation.ID)
				if err != nil {
					return err
				}
				seen <- locked.Status
				time.Sleep(50 * time.Millisecond)
				next := constants.DonationStatusConfirmed
				if locked.Status == constants.DonationStatusConfirmed {
					next = constants.DonationStatusPickupScheduled
				}
				return repo.WithTx(tx).Updates(donation.ID, map[string]interface{}{"status": next})
			})
			if err != nil {
				t.Errorf("locked update failed: %v", err)
			}
		}()
	}
	wg.Wait()
	close(seen)

	statuses := map[string]int{}
	for status := range seen {
		statuses[status]++
	}
	if statuses[constants.DonationStatusSubmitted] != 1 || statuses[constants.DonationStatusConfirmed] != 1 {
		t.Fatalf("row lock should serialize readers, got %v", statuses)
	}
	reloaded, err := repo.GetByID(donation.ID)
	if err != nil || reloaded.Status != constants.DonationStatusPickupScheduled {
		t.Fatalf("unexpected final status: %+v err=%v", reloaded, err)
	}
}
