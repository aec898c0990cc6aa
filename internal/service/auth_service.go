package service

import (
	"context"
	"strings"
	"time"

	"github.com/donatehub-next/internal/cache"
	"github.com/donatehub-next/internal/config"
	"github.com/donatehub-next/internal/logger"
	"github.com/donatehub-next/internal/models"
	"github.com/donatehub-next/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const defaultJWTExpireHours = 24

// AuthService 运营人员登录与令牌签发
type AuthService struct {
	cfg       config.JWTConfig
	adminRepo repository.AdminRepository
}

// NewAuthService 创建认证服务实例
func NewAuthService(cfg config.JWTConfig, adminRepo repository.AdminRepository) *AuthService {
	return &AuthService{
		cfg:       cfg,
		adminRepo: adminRepo,
	}
}

// HashPassword 使用 bcrypt 加密密码
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// JWTClaims 运营人员令牌声明
type JWTClaims struct {
	AdminID  uint   `json:"admin_id"`
	Username string `json:"username"`
	IsSuper  bool   `json:"is_super"`
	jwt.RegisteredClaims
}

// GenerateJWT 生成运营人员令牌
func (s *AuthService) GenerateJWT(admin *models.Admin) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(time.Duration(resolveJWTExpireHours(s.cfg)) * time.Hour)
	claims := JWTClaims{
		AdminID:  admin.ID,
		Username: admin.Username,
		IsSuper:  admin.IsSuper,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ParseJWT 解析运营人员令牌
func (s *AuthService) ParseJWT(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	if err := parseHS256(tokenString, s.cfg.SecretKey, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Login 运营人员登录
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.Admin, string, time.Time, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	admin, err := s.adminRepo.GetByUsername(username)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if admin == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if admin.Disabled {
		return nil, "", time.Time{}, ErrAccountDisabled
	}

	token, expiresAt, err := s.GenerateJWT(admin)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := time.Now()
	if err := s.adminRepo.TouchLastLogin(admin.ID, now); err != nil {
		logger.Warnw("admin_touch_last_login_failed", "admin_id", admin.ID, "error", err)
	}
	admin.LastLoginAt = &now
	if err := cache.SetAdminAuthState(ctx, cache.BuildAdminAuthState(admin)); err != nil {
		logger.Warnw("admin_auth_state_cache_set_failed", "admin_id", admin.ID, "error", err)
	}
	return admin, token, expiresAt, nil
}

// ResolveAdminState 读取账号鉴权快照，缓存未命中时回源数据库
func (s *AuthService) ResolveAdminState(ctx context.Context, adminID uint) (*cache.AdminAuthState, error) {
	state, hit, err := cache.GetAdminAuthState(ctx, adminID)
	if err != nil {
		logger.Warnw("admin_auth_state_cache_get_failed", "admin_id", adminID, "error", err)
	}
	if hit && state != nil {
		return state, nil
	}
	admin, err := s.adminRepo.GetByID(adminID)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, ErrInvalidToken
	}
	state = cache.BuildAdminAuthState(admin)
	if err := cache.SetAdminAuthState(ctx, state); err != nil {
		logger.Warnw("admin_auth_state_cache_set_failed", "admin_id", adminID, "error", err)
	}
	return state, nil
}

// DonorClaims 捐赠人令牌声明（由账号系统签发，本服务只做校验）
type DonorClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// DonorTokenService 捐赠人令牌校验与签发
type DonorTokenService struct {
	cfg config.JWTConfig
}

// NewDonorTokenService 创建捐赠人令牌服务
func NewDonorTokenService(cfg config.JWTConfig) *DonorTokenService {
	return &DonorTokenService{cfg: cfg}
}

// Generate 签发捐赠人令牌，供种子数据与测试使用
func (s *DonorTokenService) Generate(userID uint, email, name string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(time.Duration(resolveJWTExpireHours(s.cfg)) * time.Hour)
	claims := DonorClaims{
		UserID: userID,
		Email:  strings.TrimSpace(email),
		Name:   strings.TrimSpace(name),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Parse 校验捐赠人令牌
func (s *DonorTokenService) Parse(tokenString string) (*DonorClaims, error) {
	claims := &DonorClaims{}
	if err := parseHS256(tokenString, s.cfg.SecretKey, claims); err != nil {
		return nil, err
	}
	if claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func parseHS256(tokenString, secret string, claims jwt.Claims) error {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return ErrInvalidToken
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

func resolveJWTExpireHours(cfg config.JWTConfig) int {
	if cfg.ExpireHours <= 0 {
		return defaultJWTExpireHours
	}
	return cfg.ExpireHours
}
