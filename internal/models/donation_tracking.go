package models

import (
	"time"

	"github.com/donatehub-next/internal/constants"
)

// DonationTracking 捐赠轨迹台账（与捐赠单一对一，各状态首次到达时间只写一次）
type DonationTracking struct {
	ID                uint       `gorm:"primarykey" json:"id"`                            // 主键
	DonationID        uint       `gorm:"uniqueIndex;not null" json:"donation_id"`         // 捐赠单ID
	CurrentStatus     string     `gorm:"type:varchar(20);not null" json:"current_status"` // 当前状态（镜像捐赠单状态）
	SubmittedAt       *time.Time `json:"submitted_at"`                                    // 提交时间
	ConfirmedAt       *time.Time `json:"confirmed_at"`                                    // 确认时间
	PickupScheduledAt *time.Time `json:"pickup_scheduled_at"`                             // 预约取件时间
	PickedUpAt        *time.Time `json:"picked_up_at"`                                    // 取件时间
	InTransitAt       *time.Time `json:"in_transit_at"`                                   // 运输时间
	DeliveredAt       *time.Time `json:"delivered_at"`                                    // 送达时间
	CompletedAt       *time.Time `json:"completed_at"`                                    // 完成时间
	UpdatedAt         time.Time  `json:"updated_at"`                                      // 更新时间
}

// TableName 指定表名
func (DonationTracking) TableName() string {
	return "donation_trackings"
}

// StatusAt 返回指定状态的首次到达时间字段指针（未知状态返回 nil）
func (t *DonationTracking) StatusAt(status string) **time.Time {
	switch status {
	case constants.DonationStatusSubmitted:
		return &t.SubmittedAt
	case constants.DonationStatusConfirmed:
		return &t.ConfirmedAt
	case constants.DonationStatusPickupScheduled:
		return &t.PickupScheduledAt
	case constants.DonationStatusPickedUp:
		return &t.PickedUpAt
	case constants.DonationStatusInTransit:
		return &t.InTransitAt
	case constants.DonationStatusDelivered:
		return &t.DeliveredAt
	case constants.DonationStatusCompleted:
		return &t.CompletedAt
	}
	return nil
}
