package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/donatehub-next/internal/constants"
)

// IdempotentResponse 幂等请求的首次响应快照
type IdempotentResponse struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// IdempotencyStore 幂等响应存储：Redis 启用时写 Redis，否则写进程内存
type IdempotencyStore struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	local map[string]idempotencyEntry
}

type idempotencyEntry struct {
	resp      IdempotentResponse
	expiresAt time.Time
}

// NewIdempotencyStore 创建幂等响应存储
func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{
		ttl:   ttl,
		now:   time.Now,
		local: make(map[string]idempotencyEntry),
	}
}

func idempotencyKey(scope, key string) string {
	return fmt.Sprintf("%s:%s:%s", constants.RedisKeyIdempotency, scope, key)
}

// Get 读取已缓存的响应
func (s *IdempotencyStore) Get(ctx context.Context, scope, key string) (*IdempotentResponse, bool, error) {
	if s == nil || key == "" {
		return nil, false, nil
	}
	if Enabled() {
		var resp IdempotentResponse
		hit, err := GetJSON(ctx, idempotencyKey(scope, key), &resp)
		if err != nil || !hit {
			return nil, false, err
		}
		return &resp, true, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.local[idempotencyKey(scope, key)]
	if !ok {
		return nil, false, nil
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.local, idempotencyKey(scope, key))
		return nil, false, nil
	}
	resp := entry.resp
	return &resp, true, nil
}

// Put 保存响应
func (s *IdempotencyStore) Put(ctx context.Context, scope, key string, resp IdempotentResponse) error {
	if s == nil || key == "" {
		return nil
	}
	if Enabled() {
		return SetJSON(ctx, idempotencyKey(scope, key), resp, s.ttl)
	}
	s.mu.Lock()
	s.local[idempotencyKey(scope, key)] = idempotencyEntry{resp: resp, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}
