package service

import (
	"strings"
	"time"

	"github.com/donatehub-next/internal/constants"
)

// donationStatusOrder 生命周期顺序（不含取消），用于进度与前后判断
var donationStatusOrder = []string{
	constants.DonationStatusSubmitted,
	constants.DonationStatusConfirmed,
	constants.DonationStatusPickupScheduled,
	constants.DonationStatusPickedUp,
	constants.DonationStatusInTransit,
	constants.DonationStatusDelivered,
	constants.DonationStatusCompleted,
}

var donationStatusLabels = map[string]string{
	constants.DonationStatusSubmitted:       "Submitted",
	constants.DonationStatusConfirmed:       "Confirmed",
	constants.DonationStatusPickupScheduled: "Pickup Scheduled",
	constants.DonationStatusPickedUp:        "Picked Up",
	constants.DonationStatusInTransit:       "In Transit",
	constants.DonationStatusDelivered:       "Delivered",
	constants.DonationStatusCompleted:       "Completed",
	constants.DonationStatusCancelled:       "Cancelled",
}

// 终态：送达、完成、取消后不再允许流转
var donationTerminalStatuses = map[string]struct{}{
	constants.DonationStatusDelivered: {},
	constants.DonationStatusCompleted: {},
	constants.DonationStatusCancelled: {},
}

var keralaDistricts = []string{
	"Thiruvananthapuram",
	"Kollam",
	"Pathanamthitta",
	"Alappuzha",
	"Kottayam",
	"Idukki",
	"Ernakulam",
	"Thrissur",
	"Palakkad",
	"Malappuram",
	"Kozhikode",
	"Wayanad",
	"Kannur",
	"Kasaragod",
}

// DonationStatuses 返回有序状态列表副本
func DonationStatuses() []string {
	out := make([]string, len(donationStatusOrder))
	copy(out, donationStatusOrder)
	return out
}

// Districts 返回区列表副本（固定 14 项，按官方顺序）
func Districts() []string {
	out := make([]string, len(keralaDistricts))
	copy(out, keralaDistricts)
	return out
}

// IsValidDistrict 判断区是否在固定列表中
func IsValidDistrict(district string) bool {
	district = strings.TrimSpace(district)
	for _, item := range keralaDistricts {
		if item == district {
			return true
		}
	}
	return false
}

// NormalizeDonationStatus 规范化状态输入，未知状态返回空串
func NormalizeDonationStatus(raw string) string {
	status := strings.ToUpper(strings.TrimSpace(raw))
	if _, ok := donationStatusLabels[status]; ok {
		return status
	}
	return ""
}

// StatusLabel 返回状态展示名
func StatusLabel(status string) string {
	if label, ok := donationStatusLabels[status]; ok {
		return label
	}
	return status
}

// IsTerminalStatus 判断是否终态
func IsTerminalStatus(status string) bool {
	_, ok := donationTerminalStatuses[status]
	return ok
}

// statusIndex 返回状态在顺序中的下标，取消或未知返回 -1
func statusIndex(status string) int {
	for idx, item := range donationStatusOrder {
		if item == status {
			return idx
		}
	}
	return -1
}

// ProgressPercentage 进度百分比：取消为 0，送达/完成为 100，其余按下标向下取整
func ProgressPercentage(status string) int {
	switch status {
	case constants.DonationStatusCancelled:
		return 0
	case constants.DonationStatusDelivered, constants.DonationStatusCompleted:
		return 100
	}
	idx := statusIndex(status)
	if idx < 0 {
		return 0
	}
	return idx * 100 / len(donationStatusOrder)
}

// otpSnapshot 流转校验所需的验证码状态
type otpSnapshot struct {
	IssuedAt *time.Time
	Verified bool
}

// checkTransition 按固定顺序校验流转：终态、验证码、回退、角色
func checkTransition(current, target, actorRole string, otp otpSnapshot, window time.Duration, now time.Time) error {
	if IsTerminalStatus(current) {
		return &TransitionError{From: current, To: target}
	}
	if target == constants.DonationStatusPickedUp {
		if !otp.Verified || otp.IssuedAt == nil {
			return ErrOtpRequired
		}
		if now.Sub(*otp.IssuedAt) > window {
			return ErrOtpExpired
		}
	}
	if target != constants.DonationStatusCancelled && statusIndex(target) <= statusIndex(current) {
		return &TransitionError{From: current, To: target}
	}
	if !actorMayTarget(actorRole, target) {
		return ErrTransitionForbidden
	}
	return nil
}

// actorMayTarget 捐赠人只能取消，或经验证码确认进入已取件；其余流转仅运营人员可执行
func actorMayTarget(actorRole, target string) bool {
	switch actorRole {
	case constants.ActorRoleOperator, constants.ActorRoleAdmin:
		return true
	case constants.ActorRoleDonor:
		return target == constants.DonationStatusCancelled || target == constants.DonationStatusPickedUp
	default:
		return false
	}
}
