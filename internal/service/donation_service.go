package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/donatehub-next/internal/cache"
	"github.com/donatehub-next/internal/constants"
	"github.com/donatehub-next/internal/logger"
	"github.com/donatehub-next/internal/metrics"
	"github.com/donatehub-next/internal/models"
	"github.com/donatehub-next/internal/repository"

	"gorm.io/gorm"
)

const (
	trackingViewCacheTTL = 30 * time.Second
	pickupDateLayout     = "2006-01-02"
)

// CreateDonationInput 创建捐赠单参数
type CreateDonationInput struct {
	DonorID        uint
	DonorEmail     string
	DonorName      string
	Category       string
	Description    string
	EstimatedValue string
	PickupDate     string
	District       string
	Area           string
	PickupAddress  string
}

// AdminDonationListInput 运营端列表查询参数
type AdminDonationListInput struct {
	Page       int
	PageSize   int
	Status     string
	Category   string
	District   string
	ReceiptNo  string
	Keyword    string
	PickupDate string
}

// TrackingView 捐赠追踪视图
type TrackingView struct {
	Donation           *models.Donation `json:"donation"`
	Status             string           `json:"status"`
	StatusLabel        string           `json:"status_label"`
	ProgressPercentage int              `json:"progress_percentage"`
	Steps              []TrackingStep   `json:"steps"`
}

// DonationReceipt 收据视图
type DonationReceipt struct {
	ReceiptNo      string        `json:"receipt_no"`
	DonorName      string        `json:"donor_name"`
	DonorEmail     string        `json:"donor_email"`
	Category       string        `json:"category"`
	Description    string        `json:"description"`
	EstimatedValue *models.Money `json:"estimated_value"`
	PickupDate     string        `json:"pickup_date"`
	Location       string        `json:"location"`
	Status         string        `json:"status"`
	StatusLabel    string        `json:"status_label"`
	IssuedAt       time.Time     `json:"issued_at"`
}

// DistrictOption 区选项，id 与名称相同
type DistrictOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DonationService 捐赠业务入口：外部调用方只通过它访问生命周期、台账与验证码
type DonationService struct {
	donationRepo repository.DonationRepository
	imageRepo    repository.DonationImageRepository
	ledger       *TrackingLedger
	lifecycle    *DonationLifecycle
	receipts     *ReceiptAllocator
	uploads      *UploadService
	notifier     *DonationNotifier
	metrics      *metrics.Metrics
	now          func() time.Time
}

// DonationServiceDeps 捐赠服务依赖
type DonationServiceDeps struct {
	DonationRepo repository.DonationRepository
	ImageRepo    repository.DonationImageRepository
	Ledger       *TrackingLedger
	Lifecycle    *DonationLifecycle
	Receipts     *ReceiptAllocator
	Uploads      *UploadService
	Notifier     *DonationNotifier
	Metrics      *metrics.Metrics
}

// NewDonationService 创建捐赠服务
func NewDonationService(deps DonationServiceDeps) *DonationService {
	return &DonationService{
		donationRepo: deps.DonationRepo,
		imageRepo:    deps.ImageRepo,
		ledger:       deps.Ledger,
		lifecycle:    deps.Lifecycle,
		receipts:     deps.Receipts,
		uploads:      deps.Uploads,
		notifier:     deps.Notifier,
		metrics:      deps.Metrics,
		now:          time.Now,
	}
}

// SetClock 替换时钟（测试用），同时作用于生命周期服务
func (s *DonationService) SetClock(now func() time.Time) {
	if now == nil {
		return
	}
	s.now = now
	if s.lifecycle != nil {
		s.lifecycle.SetClock(now)
	}
}

// Create 创建捐赠单：初始状态为已提交，同一事务内写入台账；收据编号冲突时整单重试
func (s *DonationService) Create(ctx context.Context, input CreateDonationInput) (*models.Donation, error) {
	donation, err := buildDonation(input)
	if err != nil {
		return nil, err
	}
	now := s.now()
	_, err = s.receipts.AllocateAndPersist(now, func(receiptNo string) error {
		donation.ID = 0
		donation.ReceiptNo = receiptNo
		donation.CreatedAt = now
		donation.UpdatedAt = now
		return s.donationRepo.Transaction(func(tx *gorm.DB) error {
			if err := s.donationRepo.WithTx(tx).Create(donation); err != nil {
				return err
			}
			_, err := s.ledger.WithTx(tx).RecordStatus(donation.ID, constants.DonationStatusSubmitted, now)
			return err
		})
	})
	if err != nil {
		if !errors.Is(err, ErrReceiptAllocationFailed) {
			logger.Errorw("donation_create_failed", "donor_id", input.DonorID, "error", err)
		}
		return nil, err
	}
	s.metrics.IncCreated()
	logger.Infow("donation_created",
		"donation_id", donation.ID,
		"receipt_no", donation.ReceiptNo,
		"donor_id", donation.DonorID,
		"district", donation.District,
	)
	s.notifier.StatusChanged(ctx, donation.ID, donation.Status)
	return donation, nil
}

func buildDonation(input CreateDonationInput) (*models.Donation, error) {
	category := strings.TrimSpace(input.Category)
	if category == "" {
		return nil, ErrCategoryRequired
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, ErrDescriptionRequired
	}
	pickupDate, err := parsePickupDate(input.PickupDate)
	if err != nil {
		return nil, err
	}
	district := strings.TrimSpace(input.District)
	if district != "" && !IsValidDistrict(district) {
		return nil, ErrDistrictInvalid
	}
	value, err := models.ParseMoney(input.EstimatedValue)
	if err != nil {
		return nil, ErrEstimatedValueInvalid
	}
	return &models.Donation{
		DonorID:        input.DonorID,
		DonorEmail:     strings.TrimSpace(input.DonorEmail),
		DonorName:      strings.TrimSpace(input.DonorName),
		Category:       category,
		Description:    description,
		EstimatedValue: value,
		PickupDate:     pickupDate,
		State:          constants.DefaultState,
		District:       district,
		Area:           strings.TrimSpace(input.Area),
		PickupAddress:  strings.TrimSpace(input.PickupAddress),
		Status:         constants.DonationStatusSubmitted,
	}, nil
}

func parsePickupDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrPickupDateInvalid
	}
	date, err := time.ParseInLocation(pickupDateLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, ErrPickupDateInvalid
	}
	return date, nil
}

// Get 获取捐赠单详情（含图片）
func (s *DonationService) Get(_ context.Context, donationID uint, actor Actor) (*models.Donation, error) {
	donation, err := s.donationRepo.GetByID(donationID)
	if err != nil {
		return nil, err
	}
	if donation == nil || !actor.canAccess(donation) {
		return nil, ErrDonationNotFound
	}
	return donation, nil
}

// ListForDonor 捐赠人自己的捐赠单，按创建时间倒序
func (s *DonationService) ListForDonor(donorID uint, page, pageSize int) ([]models.Donation, int64, error) {
	return s.donationRepo.ListByDonor(repository.DonationListFilter{
		Page:     page,
		PageSize: pageSize,
		DonorID:  donorID,
	})
}

// ListAdmin 运营端列表
func (s *DonationService) ListAdmin(input AdminDonationListInput) ([]models.Donation, int64, error) {
	filter := repository.DonationListFilter{
		Page:      input.Page,
		PageSize:  input.PageSize,
		Category:  strings.TrimSpace(input.Category),
		District:  strings.TrimSpace(input.District),
		ReceiptNo: strings.TrimSpace(input.ReceiptNo),
		Keyword:   strings.TrimSpace(input.Keyword),
	}
	if raw := strings.TrimSpace(input.Status); raw != "" {
		status := NormalizeDonationStatus(raw)
		if status == "" {
			return nil, 0, ErrInvalidStatus
		}
		filter.Status = status
	}
	if strings.TrimSpace(input.PickupDate) != "" {
		date, err := parsePickupDate(input.PickupDate)
		if err != nil {
			return nil, 0, err
		}
		filter.PickupDate = &date
	}
	return s.donationRepo.ListAdmin(filter)
}

// TrackingView 追踪视图：短期缓存，状态变更时失效
func (s *DonationService) TrackingView(ctx context.Context, donationID uint, actor Actor) (*TrackingView, error) {
	key := trackingViewCacheKey(donationID)
	var cached TrackingView
	hit, err := cache.GetJSON(ctx, key, &cached)
	if err != nil {
		logger.Warnw("tracking_view_cache_get_failed", "donation_id", donationID, "error", err)
	}
	if hit && cached.Donation != nil {
		if !actor.canAccess(cached.Donation) {
			return nil, ErrDonationNotFound
		}
		return &cached, nil
	}

	donation, err := s.Get(ctx, donationID, actor)
	if err != nil {
		return nil, err
	}
	tracking, err := s.ledger.Get(donation.ID)
	if err != nil {
		return nil, err
	}
	view := TrackingView{
		Donation:           donation,
		Status:             donation.Status,
		StatusLabel:        StatusLabel(donation.Status),
		ProgressPercentage: ProgressPercentage(donation.Status),
		Steps:              BuildTrackingSteps(tracking, donation.Status),
	}
	if err := cache.SetJSON(ctx, key, view, trackingViewCacheTTL); err != nil {
		logger.Warnw("tracking_view_cache_set_failed", "donation_id", donationID, "error", err)
	}
	return &view, nil
}

// Receipt 收据视图
func (s *DonationService) Receipt(ctx context.Context, donationID uint, actor Actor) (*DonationReceipt, error) {
	donation, err := s.Get(ctx, donationID, actor)
	if err != nil {
		return nil, err
	}
	return &DonationReceipt{
		ReceiptNo:      donation.ReceiptNo,
		DonorName:      donation.DonorName,
		DonorEmail:     donation.DonorEmail,
		Category:       donation.Category,
		Description:    donation.Description,
		EstimatedValue: donation.EstimatedValue,
		PickupDate:     donation.PickupDate.Format(pickupDateLayout),
		Location:       donation.LocationDisplay(),
		Status:         donation.Status,
		StatusLabel:    StatusLabel(donation.Status),
		IssuedAt:       donation.CreatedAt,
	}, nil
}

// AttachImages 为捐赠单追加物品图片，不参与状态流转
func (s *DonationService) AttachImages(ctx context.Context, donationID uint, actor Actor, files []*multipart.FileHeader) ([]models.DonationImage, error) {
	donation, err := s.Get(ctx, donationID, actor)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrUploadTypeNotAllowed
	}
	existing, err := s.imageRepo.CountByDonation(donation.ID)
	if err != nil {
		return nil, err
	}
	if int(existing)+len(files) > s.uploads.MaxFiles() {
		return nil, ErrUploadTooManyFiles
	}

	now := s.now()
	images := make([]models.DonationImage, 0, len(files))
	for _, file := range files {
		stored, err := s.uploads.SaveImage(file, now)
		if err != nil {
			return nil, err
		}
		images = append(images, models.DonationImage{
			DonationID:  donation.ID,
			URL:         stored.URL,
			ContentType: stored.ContentType,
			Size:        stored.Size,
			UploadedAt:  now,
		})
	}
	if err := s.imageRepo.Create(images); err != nil {
		return nil, err
	}
	if err := cache.Del(ctx, trackingViewCacheKey(donation.ID)); err != nil {
		logger.Warnw("tracking_view_cache_invalidate_failed", "donation_id", donation.ID, "error", err)
	}
	logger.Infow("donation_images_attached", "donation_id", donation.ID, "count", len(images))
	return images, nil
}

// IssueOtp 签发取件验证码
func (s *DonationService) IssueOtp(ctx context.Context, donationID uint, actor Actor) (time.Time, error) {
	return s.lifecycle.IssueOtp(ctx, donationID, actor)
}

// ConfirmOtp 校验验证码并确认取件
func (s *DonationService) ConfirmOtp(ctx context.Context, donationID uint, code string, actor Actor) (*models.Donation, error) {
	return s.lifecycle.ConfirmOtp(ctx, donationID, code, actor)
}

// SetStatus 运营人员推进状态
func (s *DonationService) SetStatus(ctx context.Context, donationID uint, status string, actor Actor) (*models.Donation, error) {
	return s.lifecycle.RequestTransition(ctx, donationID, status, actor)
}

// Cancel 取消捐赠单（任意非终态可取消）
func (s *DonationService) Cancel(ctx context.Context, donationID uint, actor Actor) (*models.Donation, error) {
	return s.lifecycle.RequestTransition(ctx, donationID, constants.DonationStatusCancelled, actor)
}

// Districts 区列表
func (s *DonationService) Districts() []DistrictOption {
	names := Districts()
	options := make([]DistrictOption, 0, len(names))
	for _, name := range names {
		options = append(options, DistrictOption{ID: name, Name: name})
	}
	return options
}

func trackingViewCacheKey(donationID uint) string {
	return fmt.Sprintf("%s:%d", constants.RedisKeyTrackingView, donationID)
}
