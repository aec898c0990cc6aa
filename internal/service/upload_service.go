package service

import (
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/donatehub-next/internal/config"
	"github.com/donatehub-next/internal/constants"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
)

const (
	defaultUploadDir      = "uploads"
	defaultUploadMaxSize  = 5 * 1024 * 1024
	defaultUploadMaxFiles = 5
)

var defaultImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// StoredFile 已落盘的上传文件
type StoredFile struct {
	URL         string
	ContentType string
	Size        int64
}

// UploadService 捐赠物品图片存储
type UploadService struct {
	dir               string
	maxSize           int64
	maxFiles          int
	allowedTypes      []string
	allowedExtensions []string
}

// NewUploadService 创建上传服务
func NewUploadService(cfg config.UploadConfig) *UploadService {
	svc := &UploadService{
		dir:               strings.TrimSpace(cfg.Dir),
		maxSize:           cfg.MaxSize,
		maxFiles:          cfg.MaxFiles,
		allowedTypes:      cfg.AllowedTypes,
		allowedExtensions: cfg.AllowedExtensions,
	}
	if svc.dir == "" {
		svc.dir = defaultUploadDir
	}
	if svc.maxSize <= 0 {
		svc.maxSize = defaultUploadMaxSize
	}
	if svc.maxFiles <= 0 {
		svc.maxFiles = defaultUploadMaxFiles
	}
	if len(svc.allowedExtensions) == 0 {
		svc.allowedExtensions = defaultImageExtensions
	}
	return svc
}

// MaxFiles 单个捐赠单允许的图片数量上限
func (s *UploadService) MaxFiles() int {
	return s.maxFiles
}

// Dir 上传根目录
func (s *UploadService) Dir() string {
	return s.dir
}

// SaveImage 校验并保存图片到 <dir>/donations/YYYY/MM/DD/，返回可访问的相对 URL
func (s *UploadService) SaveImage(file *multipart.FileHeader, now time.Time) (*StoredFile, error) {
	if file == nil {
		return nil, ErrUploadTypeNotAllowed
	}
	if file.Size > s.maxSize {
		return nil, ErrUploadFileTooLarge
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext == "" || !isAllowedExtension(ext, s.allowedExtensions) {
		return nil, ErrUploadTypeNotAllowed
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	contentType, err := sniffContentType(src)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(contentType, "image/") || !s.typeAllowed(contentType) {
		return nil, ErrUploadTypeNotAllowed
	}
	if err := validateImage(src, contentType); err != nil {
		return nil, err
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	relDir := filepath.Join(constants.UploadSceneDonation, now.Format("2006"), now.Format("01"), now.Format("02"))
	filename := uuid.New().String() + ext
	if err := os.MkdirAll(filepath.Join(s.dir, relDir), 0755); err != nil {
		return nil, err
	}
	dst, err := os.Create(filepath.Join(s.dir, relDir, filename))
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	written, err := io.Copy(dst, src)
	if err != nil {
		return nil, err
	}
	return &StoredFile{
		URL:         "/uploads/" + filepath.ToSlash(filepath.Join(relDir, filename)),
		ContentType: contentType,
		Size:        written,
	}, nil
}

func (s *UploadService) typeAllowed(contentType string) bool {
	if len(s.allowedTypes) == 0 {
		return true
	}
	for _, t := range s.allowedTypes {
		if strings.EqualFold(contentType, strings.TrimSpace(t)) {
			return true
		}
	}
	return false
}

func sniffContentType(src io.ReadSeeker) (string, error) {
	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buffer[:n]), nil
}

// validateImage 确认文件可被解码为图片；webp 仅校验 RIFF 头
func validateImage(src io.ReadSeeker, contentType string) error {
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if strings.EqualFold(contentType, "image/webp") {
		header := make([]byte, 12)
		if _, err := io.ReadFull(src, header); err != nil {
			return ErrUploadTypeNotAllowed
		}
		if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WEBP" {
			return ErrUploadTypeNotAllowed
		}
		return nil
	}
	if _, _, err := image.DecodeConfig(src); err != nil {
		return fmt.Errorf("%w: %v", ErrUploadTypeNotAllowed, err)
	}
	return nil
}

func isAllowedExtension(ext string, allowed []string) bool {
	for _, allowedExt := range allowed {
		normalized := strings.ToLower(strings.TrimSpace(allowedExt))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if ext == normalized {
			return true
		}
	}
	return false
}
