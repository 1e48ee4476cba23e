package model

// Tag 标签（管理员维护的参考数据）
type Tag struct {
	ID    string `gorm:"primaryKey;type:varchar(36)"`
	Name  string `gorm:"type:varchar(150);uniqueIndex;not null"`
	Color string `gorm:"type:varchar(7);not null"`
	Slug  string `gorm:"type:varchar(150);uniqueIndex;not null"`
}

func (Tag) TableName() string { return "tags" }
