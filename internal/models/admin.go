package models

import (
	"time"

	"gorm.io/gorm"
)

// Admin 运营人员账号（取件调度、状态推进）
type Admin struct {
	ID           uint           `gorm:"primarykey" json:"id"`                         // 主键
	Username     string         `gorm:"uniqueIndex;not null" json:"username"`         // 登录账号
	DisplayName  string         `gorm:"type:varchar(120)" json:"display_name"`        // 显示名称
	PasswordHash string         `gorm:"not null" json:"-"`                            // 密码哈希（不返回给前端）
	IsSuper      bool           `gorm:"not null;default:false;index" json:"is_super"` // 是否超级管理员（免权限校验）
	Disabled     bool           `gorm:"not null;default:false" json:"disabled"`       // 是否停用
	LastLoginAt  *time.Time     `json:"last_login_at"`                                // 最后登录时间
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                      // 创建时间
	UpdatedAt    time.Time      `json:"updated_at"`                                   // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                               // 软删除时间
}

// TableName 指定表名
func (Admin) TableName() string {
	return "admins"
}
