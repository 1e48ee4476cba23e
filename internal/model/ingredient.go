package model

// Ingredient 食材目录，(name, measurement_unit) 唯一
type Ingredient struct {
	ID              string `gorm:"primaryKey;type:varchar(36)"`
	Name            string `gorm:"type:varchar(200);not null;uniqueIndex:ux_ingredient_name_unit;index:idx_ingredient_name"`
	MeasurementUnit string `gorm:"type:varchar(200);not null;uniqueIndex:ux_ingredient_name_unit"`
}

func (Ingredient) TableName() string { return "ingredients" }
