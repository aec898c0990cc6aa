package service

import (
	"time"

	"github.com/donatehub-next/internal/models"
	"github.com/donatehub-next/internal/repository"

	"gorm.io/gorm"
)

// TrackingStep 轨迹步骤视图
type TrackingStep struct {
	Status     string     `json:"status"`
	Label      string     `json:"label"`
	Timestamp  *time.Time `json:"timestamp"`
	Completed  bool       `json:"completed"`
	IsCurrent  bool       `json:"is_current"`
	StepNumber int        `json:"step_number"`
}

// TrackingLedger 轨迹台账：捐赠单状态的派生投影，只追加各状态首次到达时间
type TrackingLedger struct {
	repo repository.DonationTrackingRepository
}

// NewTrackingLedger 创建轨迹台账服务
func NewTrackingLedger(repo repository.DonationTrackingRepository) *TrackingLedger {
	return &TrackingLedger{repo: repo}
}

// WithTx 绑定事务
func (l *TrackingLedger) WithTx(tx *gorm.DB) *TrackingLedger {
	if tx == nil {
		return l
	}
	return &TrackingLedger{repo: l.repo.WithTx(tx)}
}

// RecordStatus 幂等写入：台账不存在则创建；同步当前状态；对应时间字段仅在为空时写入
func (l *TrackingLedger) RecordStatus(donationID uint, status string, now time.Time) (*models.DonationTracking, error) {
	tracking, err := l.repo.GetByDonationID(donationID)
	if err != nil {
		return nil, err
	}
	if tracking == nil {
		tracking = &models.DonationTracking{
			DonationID:    donationID,
			CurrentStatus: status,
		}
		stampOnce(tracking, status, now)
		if err := l.repo.Create(tracking); err != nil {
			return nil, err
		}
		return tracking, nil
	}

	tracking.CurrentStatus = status
	stampOnce(tracking, status, now)
	if err := l.repo.Save(tracking); err != nil {
		return nil, err
	}
	return tracking, nil
}

// Get 读取台账，不存在时返回 nil
func (l *TrackingLedger) Get(donationID uint) (*models.DonationTracking, error) {
	return l.repo.GetByDonationID(donationID)
}

func stampOnce(tracking *models.DonationTracking, status string, now time.Time) {
	field := tracking.StatusAt(status)
	if field == nil || *field != nil {
		return
	}
	at := now
	*field = &at
}

// BuildTrackingSteps 纯投影：isCurrent 以捐赠单实时状态为准，台账可为 nil
func BuildTrackingSteps(tracking *models.DonationTracking, liveStatus string) []TrackingStep {
	steps := make([]TrackingStep, 0, len(donationStatusOrder))
	for idx, status := range donationStatusOrder {
		var ts *time.Time
		if tracking != nil {
			if field := tracking.StatusAt(status); field != nil && *field != nil {
				at := **field
				ts = &at
			}
		}
		steps = append(steps, TrackingStep{
			Status:     status,
			Label:      StatusLabel(status),
			Timestamp:  ts,
			Completed:  ts != nil,
			IsCurrent:  status == liveStatus,
			StepNumber: idx + 1,
		})
	}
	return steps
}
