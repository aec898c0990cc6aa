package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/donatehub-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DonationRepository 捐赠单数据访问接口
type DonationRepository interface {
	Create(donation *models.Donation) error
	GetByID(id uint) (*models.Donation, error)
	GetByIDForUpdate(id uint) (*models.Donation, error)
	GetByReceiptNo(receiptNo string) (*models.Donation, error)
	ListByDonor(filter DonationListFilter) ([]models.Donation, int64, error)
	ListAdmin(filter DonationListFilter) ([]models.Donation, int64, error)
	Updates(id uint, updates map[string]interface{}) error
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormDonationRepository
}

// GormDonationRepository GORM 实现
type GormDonationRepository struct {
	db *gorm.DB
}

// NewDonationRepository 创建捐赠单仓库
func NewDonationRepository(db *gorm.DB) *GormDonationRepository {
	return &GormDonationRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDonationRepository) WithTx(tx *gorm.DB) *GormDonationRepository {
	if tx == nil {
		return r
	}
	return &GormDonationRepository{db: tx}
}

// Transaction 在同一事务内执行
func (r *GormDonationRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

func withImages(query *gorm.DB) *gorm.DB {
	return query.Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("uploaded_at ASC, id ASC")
	})
}

// Create 创建捐赠单
func (r *GormDonationRepository) Create(donation *models.Donation) error {
	return r.db.Omit(clause.Associations).Create(donation).Error
}

// GetByID 根据 ID 获取捐赠单（含图片）
func (r *GormDonationRepository) GetByID(id uint) (*models.Donation, error) {
	if id == 0 {
		return nil, nil
	}
	return firstOrNil[models.Donation](withImages(r.db), id)
}

// GetByIDForUpdate 加行锁获取捐赠单，需在事务内调用
func (r *GormDonationRepository) GetByIDForUpdate(id uint) (*models.Donation, error) {
	if id == 0 {
		return nil, nil
	}
	return firstOrNil[models.Donation](r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

// GetByReceiptNo 根据收据编号获取捐赠单
func (r *GormDonationRepository) GetByReceiptNo(receiptNo string) (*models.Donation, error) {
	receiptNo = strings.TrimSpace(receiptNo)
	if receiptNo == "" {
		return nil, nil
	}
	return firstOrNil[models.Donation](r.db.Where("receipt_no = ?", receiptNo))
}

// ListByDonor 获取捐赠人自己的捐赠单
func (r *GormDonationRepository) ListByDonor(filter DonationListFilter) ([]models.Donation, int64, error) {
	if filter.DonorID == 0 {
		return []models.Donation{}, 0, nil
	}
	return r.list(filter)
}

// ListAdmin 运营端捐赠单列表
func (r *GormDonationRepository) ListAdmin(filter DonationListFilter) ([]models.Donation, int64, error) {
	return r.list(filter)
}

func (r *GormDonationRepository) list(filter DonationListFilter) ([]models.Donation, int64, error) {
	query := r.db.Model(&models.Donation{})

	if filter.DonorID != 0 {
		query = query.Where("donor_id = ?", filter.DonorID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.District != "" {
		query = query.Where("district = ?", filter.District)
	}
	if filter.ReceiptNo != "" {
		query = query.Where("receipt_no = ?", filter.ReceiptNo)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		condition, argCount := buildKeywordCondition(r.db, donationKeywordColumns)
		if argCount > 0 {
			query = query.Where(condition, repeatLikeArgs("%"+escapeLike(keyword)+"%", argCount)...)
		}
	}
	if filter.PickupDate != nil {
		day := filter.PickupDate.UTC().Truncate(24 * time.Hour)
		query = query.Where("pickup_date >= ? AND pickup_date < ?", day, day.Add(24*time.Hour))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var donations []models.Donation
	if err := withImages(query).Scopes(paginate(filter.Page, filter.PageSize)).
		Order("created_at desc, id desc").
		Find(&donations).Error; err != nil {
		return nil, 0, err
	}
	return donations, total, nil
}

// Updates 按字段更新捐赠单
func (r *GormDonationRepository) Updates(id uint, updates map[string]interface{}) error {
	if id == 0 || len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.Donation{}).Where("id = ?", id).Updates(updates).Error
}

// IsUniqueViolation 判断是否为唯一约束冲突（兼容 sqlite 与 postgres）
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "sqlstate 23505")
}
