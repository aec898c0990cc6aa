package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/donatehub-next/internal/cache"
	"github.com/donatehub-next/internal/config"
	"github.com/donatehub-next/internal/http/response"
	"github.com/donatehub-next/internal/i18n"
	"github.com/donatehub-next/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 限流规则：窗口内超过 MaxRequests 次后封禁 BlockSeconds
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	BlockSeconds  int
	MessageKey    string
}

// RuleFromConfig 由配置构造限流规则
func RuleFromConfig(prefix string, cfg config.RateLimitConfig) RateLimitRule {
	return RateLimitRule{
		Prefix:        prefix,
		WindowSeconds: cfg.WindowSeconds,
		MaxRequests:   cfg.MaxAttempts,
		BlockSeconds:  cfg.BlockSeconds,
	}
}

// RateLimitMiddleware Redis 固定窗口限流中间件，未启用 Redis 时直接放行
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || rule.WindowSeconds <= 0 || rule.MaxRequests <= 0 {
			c.Next()
			return
		}

		key := ""
		if keyFunc != nil {
			key = strings.TrimSpace(keyFunc(c))
		}
		if key == "" {
			key = c.ClientIP()
		}
		counterKey := cache.BuildKey(fmt.Sprintf("ratelimit:%s:%s", rule.Prefix, key))
		blockKey := counterKey + ":block"
		ctx := c.Request.Context()

		if blocked, err := client.TTL(ctx, blockKey).Result(); err == nil && blocked > 0 {
			abortRateLimited(c, rule, int(blocked/time.Second))
			return
		}

		count, ttl, err := cache.IncrWindow(ctx, client, counterKey, time.Duration(rule.WindowSeconds)*time.Second)
		if err != nil {
			logger.Warnw("rate_limit_counter_failed", "prefix", rule.Prefix, "error", err)
			msg := i18n.T(i18n.ResolveLocale(c), "error.rate_limit_unavailable")
			response.Abort(c, response.CodeInternal, msg)
			return
		}
		if count <= int64(rule.MaxRequests) {
			c.Next()
			return
		}

		waitSeconds := int(ttl / time.Second)
		if rule.BlockSeconds > 0 {
			if err := client.Set(ctx, blockKey, 1, time.Duration(rule.BlockSeconds)*time.Second).Err(); err != nil {
				logger.Warnw("rate_limit_block_set_failed", "prefix", rule.Prefix, "error", err)
			}
			waitSeconds = rule.BlockSeconds
		}
		abortRateLimited(c, rule, waitSeconds)
	}
}

func abortRateLimited(c *gin.Context, rule RateLimitRule, waitSeconds int) {
	if waitSeconds < 1 {
		waitSeconds = rule.WindowSeconds
	}
	if waitSeconds < 1 {
		waitSeconds = 1
	}
	msgKey := strings.TrimSpace(rule.MessageKey)
	if msgKey == "" {
		msgKey = "error.rate_limited"
	}
	msg := i18n.Sprintf(i18n.ResolveLocale(c), msgKey, waitSeconds)
	c.Header("Retry-After", strconv.Itoa(waitSeconds))
	response.Abort(c, response.CodeTooManyRequests, msg)
}

// KeyByIP 使用 IP 作为限流 key
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByIPAndParam 使用路径参数 + IP 作为限流 key
func KeyByIPAndParam(param string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.TrimSpace(c.Param(param))
		if value == "" {
			return c.ClientIP()
		}
		return fmt.Sprintf("%s|%s", value, c.ClientIP())
	}
}

// KeyByIPAndJSONField 使用 IP + JSON 字段作为限流 key，读取后恢复请求体
func KeyByIPAndJSONField(field string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.ToLower(strings.TrimSpace(readJSONField(c, field)))
		if value == "" {
			return c.ClientIP()
		}
		return fmt.Sprintf("%s|%s", value, c.ClientIP())
	}
}

func readJSONField(c *gin.Context, field string) string {
	if c == nil || c.Request == nil || c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
	if len(body) == 0 {
		return ""
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if text, ok := payload[field].(string); ok {
		return strings.TrimSpace(text)
	}
	return ""
}
