package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/donatehub-next/internal/config"
	"github.com/donatehub-next/internal/logger"
	"github.com/donatehub-next/internal/metrics"
	"github.com/donatehub-next/internal/repository"

	"github.com/google/uuid"
)

const (
	defaultReceiptPrefix      = "RCPT"
	defaultReceiptMaxAttempts = 5
	receiptSuffixLength       = 8
)

// ReceiptSuffixFunc 收据编号随机段生成函数
type ReceiptSuffixFunc func() string

// ReceiptAllocator 收据编号分配：RCPT-YYYYMMDD-XXXXXXXX，唯一性由数据库唯一索引保证，冲突时有限次重试
type ReceiptAllocator struct {
	prefix      string
	maxAttempts int
	suffix      ReceiptSuffixFunc
	metrics     *metrics.Metrics
}

// NewReceiptAllocator 创建收据编号分配器，suffix 为 nil 时使用 uuid 前 8 位大写
func NewReceiptAllocator(cfg config.ReceiptConfig, suffix ReceiptSuffixFunc, m *metrics.Metrics) *ReceiptAllocator {
	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = defaultReceiptPrefix
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultReceiptMaxAttempts
	}
	if suffix == nil {
		suffix = uuidReceiptSuffix
	}
	return &ReceiptAllocator{
		prefix:      prefix,
		maxAttempts: maxAttempts,
		suffix:      suffix,
		metrics:     m,
	}
}

// Allocate 生成一个候选收据编号
func (a *ReceiptAllocator) Allocate(issueDate time.Time) string {
	return fmt.Sprintf("%s-%s-%s", a.prefix, issueDate.Format("20060102"), strings.ToUpper(a.suffix()))
}

// AllocateAndPersist 生成编号并交给 persist 写入；唯一约束冲突时换新随机段重试，用尽次数返回 ErrReceiptAllocationFailed
func (a *ReceiptAllocator) AllocateAndPersist(issueDate time.Time, persist func(receiptNo string) error) (string, error) {
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		receiptNo := a.Allocate(issueDate)
		err := persist(receiptNo)
		if err == nil {
			return receiptNo, nil
		}
		if !repository.IsUniqueViolation(err) {
			return "", err
		}
		a.metrics.IncReceiptCollision()
		logger.Warnw("receipt_number_collision",
			"receipt_no", receiptNo,
			"attempt", attempt,
			"max_attempts", a.maxAttempts,
		)
	}
	logger.Errorw("receipt_allocation_exhausted", "max_attempts", a.maxAttempts)
	return "", ErrReceiptAllocationFailed
}

func uuidReceiptSuffix() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return strings.ToUpper(hex[:receiptSuffixLength])
}
