package router

import (
	"strings"

	"github.com/donatehub-next/internal/cache"
	"github.com/donatehub-next/internal/config"
	adminhandlers "github.com/donatehub-next/internal/http/handlers/admin"
	publichandlers "github.com/donatehub-next/internal/http/handlers/public"
	"github.com/donatehub-next/internal/logger"
	"github.com/donatehub-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisClient := cache.Client()

	adminLoginRule := RuleFromConfig("admin_login", cfg.Security.LoginRateLimit)
	adminLoginRule.MessageKey = "error.login_too_many"
	otpVerifyRule := RuleFromConfig("otp_verify", cfg.Security.OTPRateLimit)

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// 已上传的物品图片
	r.Static("/uploads", c.UploadService.Dir())

	apiV1 := r.Group("/api/v1")
	{
		apiV1.GET("/districts", publicHandler.ListDistricts)
		apiV1.GET("/donations/category-suggestion", publicHandler.SuggestCategory)

		donor := apiV1.Group("/donations")
		donor.Use(DonorJWTAuthMiddleware(c.DonorTokenService))
		{
			donor.POST("", IdempotencyMiddleware(c.IdempotencyStore), publicHandler.CreateDonation)
			donor.GET("", publicHandler.ListMyDonations)
			donor.GET("/:id", publicHandler.GetDonation)
			donor.GET("/:id/tracking", publicHandler.GetDonationTracking)
			donor.GET("/:id/receipt", publicHandler.GetDonationReceipt)
			donor.POST("/:id/images", publicHandler.UploadDonationImages)
			donor.POST("/:id/otp", publicHandler.IssueDonationOtp)
			donor.POST("/:id/otp/verify", RateLimitMiddleware(redisClient, otpVerifyRule, KeyByIPAndParam("id")), publicHandler.VerifyDonationOtp)
			donor.POST("/:id/cancel", publicHandler.CancelDonation)
		}

		admin := apiV1.Group("/admin")
		{
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIPAndJSONField("username")), adminHandler.AdminLogin)

			authorized := admin.Group("")
			authorized.Use(AdminJWTAuthMiddleware(c.AuthService))
			authorized.Use(AdminRBACMiddleware(c.AuthzService))
			{
				authorized.GET("/donations", adminHandler.AdminListDonations)
				authorized.GET("/donations/:id", adminHandler.AdminGetDonation)
				authorized.GET("/donations/:id/tracking", adminHandler.AdminGetDonationTracking)
				authorized.PATCH("/donations/:id/status", adminHandler.AdminUpdateDonationStatus)
				authorized.POST("/donations/:id/otp", adminHandler.AdminIssueDonationOtp)
			}
		}
	}

	if c.Metrics != nil {
		path := strings.TrimSpace(cfg.Metrics.Path)
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(c.Metrics.Handler()))
	}

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
