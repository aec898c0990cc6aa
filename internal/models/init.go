package models

import (
	"strings"

	"github.com/donatehub-next/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

const (
	defaultAdminUsername = "admin"
	defaultAdminPassword = "admin123"
)

// InitDefaultAdmin 初始化默认超级管理员，已有账号时仅确保其超级权限
func InitDefaultAdmin(username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		username = defaultAdminUsername
	}

	var existing Admin
	err := DB.Where("username = ?", username).Limit(1).Find(&existing).Error
	if err != nil {
		return err
	}
	if existing.ID != 0 {
		if !existing.IsSuper {
			if err := DB.Model(&existing).Update("is_super", true).Error; err != nil {
				logger.Warnw("ensure_default_admin_super_failed", "username", username, "error", err)
			}
		}
		return nil
	}

	if password == "" {
		password = defaultAdminPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := Admin{
		Username:     username,
		DisplayName:  "Administrator",
		PasswordHash: string(hash),
		IsSuper:      true,
	}
	if err := DB.Create(&admin).Error; err != nil {
		return err
	}

	if password == defaultAdminPassword {
		logger.Warnw("default_admin_created_with_default_password", "username", username)
		logger.Warnw("default_admin_password_change_required", "username", username)
	} else {
		logger.Infow("default_admin_created", "username", username)
	}
	return nil
}
