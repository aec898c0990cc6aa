package models

import (
	"strings"
	"time"

	"github.com/donatehub-next/internal/constants"

	"gorm.io/gorm"
)

// Donation 捐赠单（生命周期聚合根）
type Donation struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                    // 主键
	ReceiptNo      string         `gorm:"type:varchar(32);uniqueIndex;not null" json:"receipt_no"` // 收据编号（创建时分配，不可变）
	DonorID        uint           `gorm:"index;not null" json:"donor_id"`                          // 捐赠人ID
	DonorEmail     string         `gorm:"type:varchar(255)" json:"donor_email,omitempty"`          // 捐赠人邮箱（通知用）
	DonorName      string         `gorm:"type:varchar(120)" json:"donor_name,omitempty"`           // 捐赠人名称
	Category       string         `gorm:"type:varchar(100);index;not null" json:"category"`        // 物品品类
	Description    string         `gorm:"type:text;not null" json:"description"`                   // 物品描述
	EstimatedValue *Money         `gorm:"type:decimal(10,2)" json:"estimated_value"`               // 估值（可空）
	PickupDate     time.Time      `gorm:"type:date;index;not null" json:"pickup_date"`             // 取件日期
	State          string         `gorm:"type:varchar(50);not null" json:"state"`                  // 州（固定 Kerala）
	District       string         `gorm:"type:varchar(50);index" json:"district"`                  // 区
	Area           string         `gorm:"type:varchar(200)" json:"area"`                           // 区域
	PickupAddress  string         `gorm:"type:text" json:"pickup_address"`                         // 取件地址
	Status         string         `gorm:"type:varchar(20);index;not null" json:"status"`           // 生命周期状态
	OtpCode        string         `gorm:"type:varchar(12)" json:"-"`                               // 取件验证码（不返回给前端）
	OtpIssuedAt    *time.Time     `json:"otp_issued_at,omitempty"`                                 // 验证码签发时间
	OtpVerified    bool           `gorm:"not null;default:false" json:"otp_verified"`              // 验证码是否已验证
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                 // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                          // 软删除时间

	Images   []DonationImage   `gorm:"foreignKey:DonationID;constraint:OnDelete:CASCADE" json:"images,omitempty"` // 物品图片
	Tracking *DonationTracking `gorm:"foreignKey:DonationID;constraint:OnDelete:CASCADE" json:"-"`                // 轨迹台账
}

// TableName 指定表名
func (Donation) TableName() string {
	return "donations"
}

// LocationDisplay 返回 "区域 → 区 → 州" 形式的地址摘要，跳过空段
func (d *Donation) LocationDisplay() string {
	state := strings.TrimSpace(d.State)
	if state == "" {
		state = constants.DefaultState
	}
	parts := make([]string, 0, 3)
	if area := strings.TrimSpace(d.Area); area != "" {
		parts = append(parts, area)
	}
	if district := strings.TrimSpace(d.District); district != "" {
		parts = append(parts, district)
	}
	parts = append(parts, state)
	return strings.Join(parts, " → ")
}
