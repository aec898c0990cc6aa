package provider

import (
	"time"

	"github.com/donatehub-next/internal/authz"
	"github.com/donatehub-next/internal/cache"
	"github.com/donatehub-next/internal/config"
	"github.com/donatehub-next/internal/logger"
	"github.com/donatehub-next/internal/metrics"
	"github.com/donatehub-next/internal/models"
	"github.com/donatehub-next/internal/queue"
	"github.com/donatehub-next/internal/repository"
	"github.com/donatehub-next/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

const idempotencyTTL = 24 * time.Hour

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Metrics     *metrics.Metrics

	// Repositories
	AdminRepo         repository.AdminRepository
	DonationRepo      repository.DonationRepository
	DonationImageRepo repository.DonationImageRepository
	TrackingRepo      repository.DonationTrackingRepository

	// Services
	AuthzService      *authz.Service
	AuthService       *service.AuthService
	DonorTokenService *service.DonorTokenService
	EmailService      *service.EmailService
	UploadService     *service.UploadService
	TrackingLedger    *service.TrackingLedger
	OtpChallenge      *service.OtpChallenge
	ReceiptAllocator  *service.ReceiptAllocator
	DonationNotifier  *service.DonationNotifier
	DonationLifecycle *service.DonationLifecycle
	DonationService   *service.DonationService

	// Stores
	OtpAttemptLimiter *cache.OtpAttemptLimiter
	IdempotencyStore  *cache.IdempotencyStore
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Metrics:     newMetrics(cfg.Metrics),
	}
	c.initRepositories(models.DB)
	c.initServices(models.DB)
	return c
}

func newMetrics(cfg config.MetricsConfig) *metrics.Metrics {
	if !cfg.Enabled {
		return nil
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return metrics.New(reg)
}

func (c *Container) initRepositories(db *gorm.DB) {
	c.AdminRepo = repository.NewAdminRepository(db)
	c.DonationRepo = repository.NewDonationRepository(db)
	c.DonationImageRepo = repository.NewDonationImageRepository(db)
	c.TrackingRepo = repository.NewDonationTrackingRepository(db)
}

func (c *Container) initServices(db *gorm.DB) {
	authzService, err := authz.NewService(db)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.SeedBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.AuthService = service.NewAuthService(c.Config.JWT, c.AdminRepo)
	c.DonorTokenService = service.NewDonorTokenService(c.Config.UserJWT)
	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.UploadService = service.NewUploadService(c.Config.Upload)

	c.OtpAttemptLimiter = cache.NewOtpAttemptLimiter(
		c.Config.OTP.MaxAttempts,
		time.Duration(c.Config.OTP.LockMinutes)*time.Minute,
	)
	c.IdempotencyStore = cache.NewIdempotencyStore(idempotencyTTL)

	c.TrackingLedger = service.NewTrackingLedger(c.TrackingRepo)
	c.OtpChallenge = service.NewOtpChallenge(c.Config.OTP, service.RandomCodeGenerator, c.OtpAttemptLimiter)
	c.ReceiptAllocator = service.NewReceiptAllocator(c.Config.Receipt, nil, c.Metrics)
	c.DonationNotifier = service.NewDonationNotifier(c.DonationRepo, c.EmailService, c.QueueClient, c.OtpChallenge.Window(), c.Metrics)
	c.DonationLifecycle = service.NewDonationLifecycle(c.DonationRepo, c.TrackingLedger, c.OtpChallenge, c.DonationNotifier, c.Metrics)
	c.DonationService = service.NewDonationService(service.DonationServiceDeps{
		DonationRepo: c.DonationRepo,
		ImageRepo:    c.DonationImageRepo,
		Ledger:       c.TrackingLedger,
		Lifecycle:    c.DonationLifecycle,
		Receipts:     c.ReceiptAllocator,
		Uploads:      c.UploadService,
		Notifier:     c.DonationNotifier,
		Metrics:      c.Metrics,
	})
}

// Close 释放容器持有的连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_client_failed", "error", err)
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
