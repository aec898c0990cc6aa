package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/donatehub-next/internal/logger"
	"github.com/donatehub-next/internal/provider"
	"github.com/donatehub-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Deliverer 邮件投递方，由 service.DonationNotifier 实现
type Deliverer interface {
	DeliverStatusEmail(ctx context.Context, payload queue.DonationStatusEmailPayload) error
	DeliverOtpEmail(ctx context.Context, payload queue.DonationOtpEmailPayload) error
}

// Consumer 捐赠通知任务消费者
type Consumer struct {
	deliverer Deliverer
}

// NewConsumer 从容器取出通知投递方
func NewConsumer(c *provider.Container) *Consumer {
	if c == nil || c.DonationNotifier == nil {
		return &Consumer{}
	}
	return &Consumer{deliverer: c.DonationNotifier}
}

// Register 注册任务处理函数
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskDonationStatusEmail, c.handleDonationStatusEmail)
	mux.HandleFunc(queue.TaskDonationOtpEmail, c.handleDonationOtpEmail)
}

func (c *Consumer) handleDonationStatusEmail(ctx context.Context, task *asynq.Task) error {
	payload, ok, err := decodePayload[queue.DonationStatusEmailPayload](task)
	if err != nil || !ok || payload.DonationID == 0 || c.deliverer == nil {
		return err
	}
	return c.deliverer.DeliverStatusEmail(ctx, payload)
}

func (c *Consumer) handleDonationOtpEmail(ctx context.Context, task *asynq.Task) error {
	payload, ok, err := decodePayload[queue.DonationOtpEmailPayload](task)
	if err != nil || !ok || payload.DonationID == 0 || c.deliverer == nil {
		return err
	}
	return c.deliverer.DeliverOtpEmail(ctx, payload)
}

// decodePayload 解析任务载荷；格式错误时返回 SkipRetry，避免坏消息反复重试
func decodePayload[T any](task *asynq.Task) (T, bool, error) {
	var payload T
	if task == nil {
		return payload, false, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_task_payload_invalid", "task_type", task.Type(), "error", err)
		return payload, false, fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	return payload, true, nil
}
