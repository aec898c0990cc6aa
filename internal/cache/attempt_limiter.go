package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/donatehub-next/internal/constants"

	"github.com/redis/go-redis/v9"
)

// OtpAttemptLimiter 取件验证码失败次数限制：窗口内失败达到上限后锁定至窗口结束。
// Redis 启用时跨实例共享计数，否则退化为进程内计数。
type OtpAttemptLimiter struct {
	maxAttempts int
	window      time.Duration
	now         func() time.Time

	mu    sync.Mutex
	local map[uint]*attemptWindow
}

type attemptWindow struct {
	count     int
	expiresAt time.Time
}

// NewOtpAttemptLimiter 创建失败次数限制器，maxAttempts<=0 表示不限制
func NewOtpAttemptLimiter(maxAttempts int, window time.Duration) *OtpAttemptLimiter {
	if window <= 0 {
		window = 10 * time.Minute
	}
	return &OtpAttemptLimiter{
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
		local:       make(map[uint]*attemptWindow),
	}
}

// SetClock 替换时钟（测试用）
func (l *OtpAttemptLimiter) SetClock(now func() time.Time) {
	if l == nil || now == nil {
		return
	}
	l.mu.Lock()
	l.now = now
	l.mu.Unlock()
}

func otpAttemptKey(donationID uint) string {
	return fmt.Sprintf("%s:%d", constants.RedisKeyOtpAttempts, donationID)
}

// Check 判断是否已锁定，锁定时返回剩余等待时间
func (l *OtpAttemptLimiter) Check(ctx context.Context, donationID uint) (bool, time.Duration, error) {
	if l == nil || l.maxAttempts <= 0 || donationID == 0 {
		return false, 0, nil
	}
	if client := Client(); client != nil {
		key := BuildKey(otpAttemptKey(donationID))
		raw, err := client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return false, 0, nil
		}
		if err != nil {
			return false, 0, err
		}
		count, err := strconv.Atoi(raw)
		if err != nil || count < l.maxAttempts {
			return false, 0, nil
		}
		ttl, err := client.TTL(ctx, key).Result()
		if err != nil {
			return true, l.window, nil
		}
		return true, ttl, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	entry := l.liveEntry(donationID)
	if entry == nil || entry.count < l.maxAttempts {
		return false, 0, nil
	}
	return true, entry.expiresAt.Sub(l.now()), nil
}

// RecordFailure 记录一次失败，返回剩余可尝试次数
func (l *OtpAttemptLimiter) RecordFailure(ctx context.Context, donationID uint) (int, error) {
	if l == nil || l.maxAttempts <= 0 || donationID == 0 {
		return -1, nil
	}
	if client := Client(); client != nil {
		count, _, err := IncrWindow(ctx, client, BuildKey(otpAttemptKey(donationID)), l.window)
		if err != nil {
			return 0, err
		}
		return remaining(l.maxAttempts, int(count)), nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	entry := l.liveEntry(donationID)
	if entry == nil {
		entry = &attemptWindow{expiresAt: l.now().Add(l.window)}
		l.local[donationID] = entry
	}
	entry.count++
	return remaining(l.maxAttempts, entry.count), nil
}

// Reset 清空计数（重新签发验证码或验证成功时）
func (l *OtpAttemptLimiter) Reset(ctx context.Context, donationID uint) error {
	if l == nil || donationID == 0 {
		return nil
	}
	if Enabled() {
		return Del(ctx, otpAttemptKey(donationID))
	}
	l.mu.Lock()
	delete(l.local, donationID)
	l.mu.Unlock()
	return nil
}

func (l *OtpAttemptLimiter) liveEntry(donationID uint) *attemptWindow {
	entry, ok := l.local[donationID]
	if !ok {
		return nil
	}
	if !l.now().Before(entry.expiresAt) {
		delete(l.local, donationID)
		return nil
	}
	return entry
}

func remaining(max, used int) int {
	if used >= max {
		return 0
	}
	return max - used
}
