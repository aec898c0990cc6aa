package service

import (
	"strings"

	"github.com/donatehub-next/internal/constants"
)

type categoryRule struct {
	category string
	keywords []string
}

// 按顺序匹配，先命中者优先
var categoryRules = []categoryRule{
	{category: "Books", keywords: []string{"book"}},
	{category: "Toys", keywords: []string{"toy"}},
	{category: "Electronics", keywords: []string{"laptop", "mobile", "phone"}},
	{category: "Footwear", keywords: []string{"shoe"}},
	{category: "Clothes", keywords: []string{"shirt", "pant", "cloth"}},
	{category: "Furniture", keywords: []string{"table", "chair", "sofa"}},
}

// SuggestCategory 根据描述关键词给出品类建议，未命中返回默认品类
func SuggestCategory(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return constants.DefaultDonationCategory
	}
	for _, rule := range categoryRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(text, keyword) {
				return rule.category
			}
		}
	}
	return constants.DefaultDonationCategory
}
