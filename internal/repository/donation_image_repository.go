package repository

import (
	"github.com/donatehub-next/internal/models"

	"gorm.io/gorm"
)

// DonationImageRepository 捐赠图片数据访问接口
type DonationImageRepository interface {
	Create(images []models.DonationImage) error
	ListByDonation(donationID uint) ([]models.DonationImage, error)
	CountByDonation(donationID uint) (int64, error)
}

// GormDonationImageRepository GORM 实现
type GormDonationImageRepository struct {
	db *gorm.DB
}

// NewDonationImageRepository 创建捐赠图片仓库
func NewDonationImageRepository(db *gorm.DB) *GormDonationImageRepository {
	return &GormDonationImageRepository{db: db}
}

// Create 批量保存图片记录
func (r *GormDonationImageRepository) Create(images []models.DonationImage) error {
	if len(images) == 0 {
		return nil
	}
	return r.db.Create(&images).Error
}

// ListByDonation 按上传时间顺序列出图片
func (r *GormDonationImageRepository) ListByDonation(donationID uint) ([]models.DonationImage, error) {
	images := make([]models.DonationImage, 0)
	if donationID == 0 {
		return images, nil
	}
	if err := r.db.Where("donation_id = ?", donationID).
		Order("uploaded_at ASC, id ASC").
		Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

// CountByDonation 统计捐赠单图片数量
func (r *GormDonationImageRepository) CountByDonation(donationID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.DonationImage{}).Where("donation_id = ?", donationID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
