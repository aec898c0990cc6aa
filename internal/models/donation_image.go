package models

import "time"

// DonationImage 捐赠物品图片（随捐赠单级联删除）
type DonationImage struct {
	ID          uint      `gorm:"primarykey" json:"id"`                  // 主键
	DonationID  uint      `gorm:"index;not null" json:"donation_id"`     // 捐赠单ID
	URL         string    `gorm:"type:varchar(500);not null" json:"url"` // 访问路径
	ContentType string    `gorm:"type:varchar(100)" json:"content_type"` // 文件类型
	Size        int64     `gorm:"not null;default:0" json:"size"`        // 文件大小（字节）
	UploadedAt  time.Time `gorm:"index;not null" json:"uploaded_at"`     // 上传时间
}

// TableName 指定表名
func (DonationImage) TableName() string {
	return "donation_images"
}
