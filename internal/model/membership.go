package model

import "time"

// MembershipKind 区分收藏与购物车两个集合
type MembershipKind string

const (
	KindFavorite     MembershipKind = "favorite"
	KindShoppingCart MembershipKind = "shopping_cart"
)

// Valid 是否为已知集合
func (k MembershipKind) Valid() bool {
	return k == KindFavorite || k == KindShoppingCart
}

// Membership (user, recipe) 在某个集合中的成员关系
type Membership struct {
	ID       string         `gorm:"primaryKey;type:varchar(36)"`
	Kind     MembershipKind `gorm:"type:varchar(16);not null;uniqueIndex:ux_membership"`
	UserID   string         `gorm:"type:varchar(36);not null;uniqueIndex:ux_membership;index:idx_membership_user"`
	RecipeID string         `gorm:"type:varchar(36);not null;uniqueIndex:ux_membership;index:idx_membership_recipe"`
	// 复合唯一键 ux_membership = (kind, user_id, recipe_id)，并发重复添加由它兜底
	CreatedAt time.Time
}

func (Membership) TableName() string { return "memberships" }
