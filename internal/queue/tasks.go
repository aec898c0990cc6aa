package queue

import (
	"encoding/json"
	"time"

	"github.com/donatehub-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskDonationStatusEmail 捐赠状态邮件通知任务
	TaskDonationStatusEmail = constants.TaskDonationStatusEmail
	// TaskDonationOtpEmail 取件验证码邮件任务
	TaskDonationOtpEmail = constants.TaskDonationOtpEmail
)

// DonationStatusEmailPayload 捐赠状态邮件任务载荷
type DonationStatusEmailPayload struct {
	DonationID uint   `json:"donation_id"`
	Status     string `json:"status"`
}

// DonationOtpEmailPayload 取件验证码邮件任务载荷，IssuedAt 用于丢弃已被重新签发的旧任务
type DonationOtpEmailPayload struct {
	DonationID uint      `json:"donation_id"`
	IssuedAt   time.Time `json:"issued_at"`
}

// NewDonationStatusEmailTask 创建捐赠状态邮件任务
func NewDonationStatusEmailTask(payload DonationStatusEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDonationStatusEmail, body), nil
}

// NewDonationOtpEmailTask 创建取件验证码邮件任务
func NewDonationOtpEmailTask(payload DonationOtpEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDonationOtpEmail, body), nil
}
