package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

// 支持的语言
const (
	LocaleEN = "en-US"
	LocaleZH = "zh-CN"
	LocaleTW = "zh-TW"

	DefaultLocale = LocaleEN
)

// ResolveLocale 从 query 参数 lang 或 Accept-Language 请求头解析语言
func ResolveLocale(c *gin.Context) string {
	if c == nil || c.Request == nil {
		return DefaultLocale
	}
	if lang := strings.TrimSpace(c.Query("lang")); lang != "" {
		return Normalize(lang)
	}
	header := strings.TrimSpace(c.GetHeader("Accept-Language"))
	if header == "" {
		return DefaultLocale
	}
	first := strings.Split(header, ",")[0]
	first = strings.Split(first, ";")[0]
	return Normalize(first)
}

// Normalize 规范化语言标识，未知语言回退到默认语言
func Normalize(locale string) string {
	l := strings.ToLower(strings.TrimSpace(locale))
	switch {
	case strings.HasPrefix(l, "zh-tw"), strings.HasPrefix(l, "zh-hk"), strings.HasPrefix(l, "zh-mo"), strings.HasPrefix(l, "zh-hant"):
		return LocaleTW
	case strings.HasPrefix(l, "zh"):
		return LocaleZH
	default:
		return LocaleEN
	}
}

// T 翻译消息 key，缺失时依次回退到默认语言与 key 本身
func T(locale, key string) string {
	if table, ok := messages[Normalize(locale)]; ok {
		if msg, ok := table[key]; ok {
			return msg
		}
	}
	if msg, ok := messages[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 翻译并格式化
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}
