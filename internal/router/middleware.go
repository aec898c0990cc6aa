package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/donatehub-next/internal/authz"
	"github.com/donatehub-next/internal/cache"
	"github.com/donatehub-next/internal/config"
	"github.com/donatehub-next/internal/http/response"
	"github.com/donatehub-next/internal/i18n"
	"github.com/donatehub-next/internal/logger"
	"github.com/donatehub-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDKey           = "request_id"
	requestIDHeader        = "X-Request-ID"
	idempotencyHeader      = "Idempotency-Key"
	idempotencyReplayed    = "Idempotent-Replayed"
	adminIDContextKey      = "admin_id"
	adminIsSuperContextKey = "admin_is_super"
	donorIDContextKey      = "user_id"
	donorEmailContextKey   = "user_email"
	donorNameContextKey    = "user_name"
)

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
	}
	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{"Content-Type", "Authorization", "Accept-Language", requestIDHeader, idempotencyHeader}
	}
	methodsHeader := strings.Join(allowedMethods, ", ")
	headersHeader := strings.Join(allowedHeaders, ", ")

	return func(c *gin.Context) {
		header := c.Writer.Header()
		if origin := resolveAllowedOrigin(c.GetHeader("Origin"), allowedOrigins, cfg.AllowCredentials); origin != "" {
			header.Set("Access-Control-Allow-Origin", origin)
			if origin != "*" {
				header.Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			header.Set("Access-Control-Allow-Credentials", "true")
		}
		header.Set("Access-Control-Allow-Headers", headersHeader)
		header.Set("Access-Control-Allow-Methods", methodsHeader)
		if cfg.MaxAge > 0 {
			header.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	for _, allowed := range allowedOrigins {
		if allowed != "*" {
			continue
		}
		if allowCredentials && origin != "" {
			return origin
		}
		return "*"
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 透传或生成请求 ID
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 结构化访问日志
func LoggerMiddleware(base *zap.Logger) gin.HandlerFunc {
	if base == nil {
		base = zap.L()
	}
	sugar := base.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := sugar.With(
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			log.Errorw("http_request", "errors", c.Errors.String())
			return
		}
		log.Infow("http_request")
	}
}

func getRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

func abortUnauthorized(c *gin.Context, key string) {
	response.Abort(c, response.CodeUnauthorized, i18n.T(i18n.ResolveLocale(c), key))
}

func bearerToken(c *gin.Context) (string, string) {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader == "" {
		return "", "error.auth_header_missing"
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", "error.auth_header_invalid"
	}
	return strings.TrimSpace(parts[1]), ""
}

// AdminJWTAuthMiddleware 操作员令牌鉴权，并按账号快照拒绝已停用账号
func AdminJWTAuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authService == nil {
			abortUnauthorized(c, "error.token_invalid")
			return
		}
		token, errKey := bearerToken(c)
		if errKey != "" {
			abortUnauthorized(c, errKey)
			return
		}
		claims, err := authService.ParseJWT(token)
		if err != nil || claims.AdminID == 0 {
			abortUnauthorized(c, "error.token_invalid")
			return
		}
		state, err := authService.ResolveAdminState(c.Request.Context(), claims.AdminID)
		if err != nil || state == nil {
			abortUnauthorized(c, "error.token_invalid")
			return
		}
		if state.Disabled {
			abortUnauthorized(c, "error.account_disabled")
			return
		}
		c.Set(adminIDContextKey, claims.AdminID)
		c.Set("username", claims.Username)
		c.Set(adminIsSuperContextKey, state.IsSuper)
		c.Next()
	}
}

// DonorJWTAuthMiddleware 捐赠人令牌鉴权
func DonorJWTAuthMiddleware(tokens *service.DonorTokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokens == nil {
			abortUnauthorized(c, "error.token_invalid")
			return
		}
		token, errKey := bearerToken(c)
		if errKey != "" {
			abortUnauthorized(c, errKey)
			return
		}
		claims, err := tokens.Parse(token)
		if err != nil || claims.UserID == 0 {
			abortUnauthorized(c, "error.token_invalid")
			return
		}
		c.Set(donorIDContextKey, claims.UserID)
		c.Set(donorEmailContextKey, claims.Email)
		c.Set(donorNameContextKey, claims.Name)
		c.Next()
	}
}

// AdminRBACMiddleware 后台路由 RBAC 校验，超级管理员直接放行
func AdminRBACMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authzService == nil {
			logger.Errorw("admin_rbac_service_unavailable")
			abortUnauthorized(c, "error.unauthorized")
			return
		}
		if c.GetBool(adminIsSuperContextKey) {
			c.Next()
			return
		}
		adminID := c.GetUint(adminIDContextKey)
		if adminID == 0 {
			abortUnauthorized(c, "error.unauthorized")
			return
		}

		resource := c.FullPath()
		if strings.TrimSpace(resource) == "" {
			resource = c.Request.URL.Path
		}
		allowed, err := authzService.CanAccess(adminID, c.Request.Method, resource)
		if err != nil {
			logger.Errorw("admin_rbac_enforce_failed",
				"admin_id", adminID,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
			abortUnauthorized(c, "error.unauthorized")
			return
		}
		if !allowed {
			logger.Warnw("admin_rbac_permission_denied",
				"admin_id", adminID,
				"method", c.Request.Method,
				"resource", authz.NormalizeObject(resource),
			)
			response.Abort(c, response.CodeForbidden, i18n.T(i18n.ResolveLocale(c), "error.forbidden"))
			return
		}
		c.Next()
	}
}

// bufferedWriter 在写出响应的同时保留一份副本
type bufferedWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bufferedWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

// IdempotencyMiddleware 按 Idempotency-Key 回放首次成功响应，作用域为当前捐赠人
func IdempotencyMiddleware(store *cache.IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(idempotencyHeader))
		if store == nil || key == "" {
			c.Next()
			return
		}
		scope := fmt.Sprintf("%s:%s:%d", c.Request.Method, c.FullPath(), c.GetUint(donorIDContextKey))
		ctx := c.Request.Context()

		cached, hit, err := store.Get(ctx, scope, key)
		if err != nil {
			logger.Warnw("idempotency_lookup_failed", "scope", scope, "error", err)
		}
		if hit && cached != nil {
			c.Header(idempotencyReplayed, "true")
			c.Data(cached.StatusCode, cached.ContentType, cached.Body)
			c.Abort()
			return
		}

		writer := &bufferedWriter{ResponseWriter: c.Writer}
		c.Writer = writer
		c.Next()

		if !isBusinessSuccess(writer.body.Bytes()) {
			return
		}
		if err := store.Put(ctx, scope, key, cache.IdempotentResponse{
			StatusCode:  writer.Status(),
			ContentType: writer.Header().Get("Content-Type"),
			Body:        append([]byte(nil), writer.body.Bytes()...),
		}); err != nil {
			logger.Warnw("idempotency_store_failed", "scope", scope, "error", err)
		}
	}
}

func isBusinessSuccess(body []byte) bool {
	var envelope struct {
		StatusCode *int `json:"status_code"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.StatusCode == nil {
		return false
	}
	return *envelope.StatusCode == response.CodeOK
}
