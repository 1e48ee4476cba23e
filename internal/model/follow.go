package model

import (
	"time"
)

// Follow 订阅关系（UserID 订阅 AuthorID）
type Follow struct {
	ID       string `gorm:"primaryKey;type:varchar(36)"`
	UserID   string `gorm:"type:varchar(36);index:idx_follow_user;uniqueIndex:ux_follow_pair;not null;check:chk_follow_not_self,user_id <> author_id"`
	AuthorID string `gorm:"type:varchar(36);index:idx_follow_author;uniqueIndex:ux_follow_pair;not null"`
	// 复合唯一键，避免重复订阅
	// ux_follow_pair = (user_id, author_id)
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Follow) TableName() string { return "follows" }
