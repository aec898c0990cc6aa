package repository

import (
	"github.com/donatehub-next/internal/models"

	"gorm.io/gorm"
)

// DonationTrackingRepository 捐赠轨迹台账数据访问接口
type DonationTrackingRepository interface {
	GetByDonationID(donationID uint) (*models.DonationTracking, error)
	Create(tracking *models.DonationTracking) error
	Save(tracking *models.DonationTracking) error
	WithTx(tx *gorm.DB) *GormDonationTrackingRepository
}

// GormDonationTrackingRepository GORM 实现
type GormDonationTrackingRepository struct {
	db *gorm.DB
}

// NewDonationTrackingRepository 创建轨迹台账仓库
func NewDonationTrackingRepository(db *gorm.DB) *GormDonationTrackingRepository {
	return &GormDonationTrackingRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDonationTrackingRepository) WithTx(tx *gorm.DB) *GormDonationTrackingRepository {
	if tx == nil {
		return r
	}
	return &GormDonationTrackingRepository{db: tx}
}

// GetByDonationID 根据捐赠单获取台账
func (r *GormDonationTrackingRepository) GetByDonationID(donationID uint) (*models.DonationTracking, error) {
	if donationID == 0 {
		return nil, nil
	}
	return firstOrNil[models.DonationTracking](r.db.Where("donation_id = ?", donationID))
}

// Create 创建台账
func (r *GormDonationTrackingRepository) Create(tracking *models.DonationTracking) error {
	return r.db.Create(tracking).Error
}

// Save 保存台账全部字段
func (r *GormDonationTrackingRepository) Save(tracking *models.DonationTracking) error {
	return r.db.Save(tracking).Error
}
