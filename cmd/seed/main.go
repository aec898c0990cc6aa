package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/donatehub-next/internal/authz"
	"github.com/donatehub-next/internal/config"
	"github.com/donatehub-next/internal/constants"
	"github.com/donatehub-next/internal/logger"
	"github.com/donatehub-next/internal/models"
	"github.com/donatehub-next/internal/provider"
	"github.com/donatehub-next/internal/service"
)

type demoDonation struct {
	input  service.CreateDonationInput
	target []string
}

func main() {
	var (
		operatorName     string
		operatorPassword string
		donorID          uint
		donorEmail       string
	)
	flag.StringVar(&operatorName, "operator", "operator", "运营账号用户名")
	flag.StringVar(&operatorPassword, "operator-password", "operator123", "运营账号密码")
	flag.UintVar(&donorID, "donor-id", 1001, "演示捐赠人 ID")
	flag.StringVar(&donorEmail, "donor-email", "donor@example.com", "演示捐赠人邮箱")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns: cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns: cfg.Database.Pool.MaxIdleConns,
	}, false); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}
	if err := models.InitDefaultAdmin(cfg.App.DefaultAdminUsername, cfg.App.DefaultAdminPassword); err != nil {
		stdLog.Printf("Failed to ensure default admin: %v", err)
	}

	container := provider.NewContainer(cfg)
	defer container.Close()
	ctx := context.Background()

	operator, err := ensureOperator(container, operatorName, operatorPassword)
	if err != nil {
		stdLog.Fatalf("Failed to seed operator: %v", err)
	}
	if err := container.AuthzService.AssignRoles(operator.ID, []string{authz.RoleDonationOperator}); err != nil {
		stdLog.Fatalf("Failed to assign operator role: %v", err)
	}
	stdLog.Printf("Operator ready: %s (id=%d)", operator.Username, operator.ID)

	demos := []demoDonation{
		{
			input: service.CreateDonationInput{
				Category:       "Books",
				Description:    "Two boxes of school textbooks",
				EstimatedValue: "1500.00",
				PickupDate:     "2024-03-05",
				District:       "Ernakulam",
				Area:           "Kakkanad",
				PickupAddress:  "12 Infopark Road",
			},
		},
		{
			input: service.CreateDonationInput{
				Category:      "Clothes",
				Description:   "Winter jackets, lightly used",
				PickupDate:    "2024-03-07",
				District:      "Thrissur",
				PickupAddress: "Near Vadakkunnathan Temple",
			},
			target: []string{constants.DonationStatusConfirmed, constants.DonationStatusPickupScheduled},
		},
		{
			input: service.CreateDonationInput{
				Category:    "Furniture",
				Description: "Study table and chair",
				PickupDate:  "2024-03-09",
				District:    "Kozhikode",
			},
			target: []string{constants.DonationStatusCancelled},
		},
	}

	actor := service.OperatorActor(operator.ID)
	for _, demo := range demos {
		demo.input.DonorID = donorID
		demo.input.DonorEmail = donorEmail
		demo.input.DonorName = "Demo Donor"
		donation, err := container.DonationService.Create(ctx, demo.input)
		if err != nil {
			stdLog.Printf("Failed to create demo donation %s: %v", demo.input.Category, err)
			continue
		}
		for _, status := range demo.target {
			if _, err := container.DonationService.SetStatus(ctx, donation.ID, status, actor); err != nil {
				stdLog.Printf("Failed to move %s to %s: %v", donation.ReceiptNo, status, err)
				break
			}
		}
		stdLog.Printf("Created donation %s (id=%d)", donation.ReceiptNo, donation.ID)
	}

	token, expiresAt, err := container.DonorTokenService.Generate(donorID, donorEmail, "Demo Donor")
	if err != nil {
		stdLog.Fatalf("Failed to sign donor token: %v", err)
	}
	fmt.Printf("Donor token (expires %s):\n%s\n", expiresAt.Format("2006-01-02 15:04"), token)
}

func ensureOperator(container *provider.Container, username, password string) (*models.Admin, error) {
	existing, err := container.AdminRepo.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	hash, err := service.HashPassword(password)
	if err != nil {
		return nil, err
	}
	operator := &models.Admin{
		Username:     username,
		DisplayName:  "Pickup Operator",
		PasswordHash: hash,
	}
	if err := container.AdminRepo.Create(operator); err != nil {
		return nil, err
	}
	return operator, nil
}
