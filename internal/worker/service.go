package worker

import (
	"context"
	"errors"

	"github.com/donatehub-next/internal/config"
	"github.com/donatehub-next/internal/logger"
	"github.com/donatehub-next/internal/queue"

	"github.com/hibiken/asynq"
)

const serviceName = "notification-worker"

var (
	ErrQueueDisabled   = errors.New("queue disabled")
	ErrConsumerMissing = errors.New("consumer is nil")
	ErrWorkerNotReady  = errors.New("worker not initialized")
)

// Service 通知 worker，实现 app.Service
type Service struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	queues map[string]int
}

// NewService 按队列配置构建 asynq server 并注册消费者
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, ErrQueueDisabled
	}
	if consumer == nil {
		return nil, ErrConsumerMissing
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		server: asynq.NewServer(opt, serverCfg),
		mux:    mux,
		queues: serverCfg.Queues,
	}, nil
}

func (s *Service) Name() string {
	return serviceName
}

// Start 阻塞处理任务直到 Stop 被调用
func (s *Service) Start(_ context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return ErrWorkerNotReady
	}
	logger.Infow("worker_start", "queues", s.queues)
	return s.server.Run(s.mux)
}

// Stop 等待进行中的任务结束后退出
func (s *Service) Stop(_ context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	s.server.Shutdown()
	logger.Infow("worker_stopped")
	return nil
}
