package repository

import (
	"errors"

	"gorm.io/gorm"
)

// firstOrNil 查询单条记录，不存在时返回 (nil, nil)
func firstOrNil[T any](query *gorm.DB, conds ...interface{}) (*T, error) {
	var row T
	if err := query.First(&row, conds...).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
