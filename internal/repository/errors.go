package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// isDuplicate 唯一索引冲突；TranslateError 未开启时退回到错误文本匹配
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key")
}

// offsetLimit 页码从 1 开始
func offsetLimit(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return (page - 1) * pageSize, pageSize
}
