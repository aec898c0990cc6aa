package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// donationKeywordColumns 关键词搜索覆盖的文本列
var donationKeywordColumns = []string{"receipt_no", "category", "description", "area", "pickup_address", "donor_name"}

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

// buildKeywordCondition 构建多列 OR LIKE 条件，并返回参数数量。
func buildKeywordCondition(db *gorm.DB, columns []string) (string, int) {
	return buildKeywordConditionByDialect(dbDialectName(db), columns)
}

func buildKeywordConditionByDialect(dialect string, columns []string) (string, int) {
	parts := make([]string, 0, len(columns))
	operator := likeOperatorByDialect(dialect)
	for _, column := range columns {
		trimmed := strings.TrimSpace(column)
		if trimmed == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s ? ESCAPE '\\'", trimmed, operator))
	}
	if len(parts) == 0 {
		return "", 0
	}
	return "(" + strings.Join(parts, " OR ") + ")", len(parts)
}

// postgres 的 LIKE 区分大小写，sqlite 对 ASCII 不区分
func likeOperatorByDialect(dialect string) string {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		return "ILIKE"
	default:
		return "LIKE"
	}
}

// escapeLike 转义 LIKE 通配符，配合条件中的反斜杠 ESCAPE 使用
func escapeLike(keyword string) string {
	replacer := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return replacer.Replace(keyword)
}

// repeatLikeArgs 生成重复的 LIKE 参数列表。
func repeatLikeArgs(like string, count int) []interface{} {
	args := make([]interface{}, 0, count)
	for i := 0; i < count; i++ {
		args = append(args, like)
	}
	return args
}
