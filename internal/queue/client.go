package queue

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/donatehub-next/internal/config"
	"github.com/donatehub-next/internal/constants"
	"github.com/donatehub-next/internal/logger"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 状态通知队列
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 验证码投递队列，权重更高
	CriticalQueue = constants.QueueCritical

	defaultConcurrency = 10
	otpEmailTimeout    = 30 * time.Second
	otpEmailMaxRetry   = 3
	statusEmailRetain  = 24 * time.Hour
)

// Client asynq 生产端；未启用时所有投递都是空操作
type Client struct {
	inner *asynq.Client
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	return &Client{inner: asynq.NewClient(redisOpt(cfg))}, nil
}

// Enabled 是否连接了真实队列
func (c *Client) Enabled() bool {
	return c != nil && c.inner != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.inner.Close()
}

// EnqueueDonationStatusEmail 投递状态邮件；同一捐赠单同一状态只保留一个任务
func (c *Client) EnqueueDonationStatusEmail(ctx context.Context, payload DonationStatusEmailPayload) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewDonationStatusEmailTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task,
		asynq.Queue(DefaultQueue),
		asynq.TaskID(StatusEmailTaskID(payload)),
		asynq.Retention(statusEmailRetain),
	)
}

// EnqueueDonationOtpEmail 投递验证码邮件；验证码有效期短，重试次数与超时都收紧
func (c *Client) EnqueueDonationOtpEmail(ctx context.Context, payload DonationOtpEmailPayload) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewDonationOtpEmailTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task,
		asynq.Queue(CriticalQueue),
		asynq.TaskID(OtpEmailTaskID(payload)),
		asynq.MaxRetry(otpEmailMaxRetry),
		asynq.Timeout(otpEmailTimeout),
	)
}

func (c *Client) enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) error {
	if ctx == nil {
		ctx = context.Background()
	}
	info, err := c.inner.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		logger.Debugw("queue_task_deduplicated", "type", task.Type())
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	logger.Debugw("queue_task_enqueued", "type", task.Type(), "id", info.ID, "queue", info.Queue)
	return nil
}

// StatusEmailTaskID 状态邮件去重 ID
func StatusEmailTaskID(payload DonationStatusEmailPayload) string {
	return fmt.Sprintf("donation:%d:status:%s", payload.DonationID, strings.ToUpper(strings.TrimSpace(payload.Status)))
}

// OtpEmailTaskID 验证码邮件去重 ID，重新签发会得到新 ID
func OtpEmailTaskID(payload DonationOtpEmailPayload) string {
	return fmt.Sprintf("donation:%d:otp:%d", payload.DonationID, payload.IssuedAt.UnixNano())
}

// BuildServerConfig 生成消费端配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	serverCfg := asynq.Config{
		Concurrency: defaultConcurrency,
		Queues:      map[string]int{DefaultQueue: 1, CriticalQueue: 2},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logger.Warnw("queue_task_failed", "type", task.Type(), "retried", retried, "max_retry", maxRetry, "error", err)
		}),
	}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			serverCfg.Concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			serverCfg.Queues = cfg.Queues
		}
	}
	return redisOpt(cfg), serverCfg
}

func redisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	opt := asynq.RedisClientOpt{Addr: "127.0.0.1:6379"}
	if cfg == nil {
		return opt
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	opt.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	opt.Password = cfg.Password
	opt.DB = cfg.DB
	return opt
}
