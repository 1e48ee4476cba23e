package model

import "time"

const (
	MinCookingTime = 1
	MaxCookingTime = 32767
	MinAmount      = 1
	MaxAmount      = 32767
	MaxRecipeName  = 200
)

// Recipe 菜谱，作者独占
type Recipe struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)"`
	AuthorID    string    `gorm:"type:varchar(36);index:idx_recipe_author;not null"`
	Name        string    `gorm:"type:varchar(200);not null"`
	Image       string    `gorm:"type:varchar(512);not null"`
	Text        string    `gorm:"type:text;not null"`
	CookingTime int       `gorm:"not null;check:chk_recipe_cooking_time,cooking_time BETWEEN 1 AND 32767"`
	PubDate     time.Time `gorm:"index:idx_recipe_pub_date;not null"`
	UpdatedAt   time.Time

	Author      *User              `gorm:"foreignKey:AuthorID"`
	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID"`
	Tags        []Tag              `gorm:"many2many:recipe_tags"`
}

func (Recipe) TableName() string { return "recipes" }

// RecipeIngredient 菜谱组成行，(recipe_id, ingredient_id) 唯一
type RecipeIngredient struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	RecipeID     string `gorm:"type:varchar(36);not null;uniqueIndex:ux_recipe_ingredient"`
	IngredientID string `gorm:"type:varchar(36);not null;uniqueIndex:ux_recipe_ingredient;index:idx_recipe_ingredient_ingredient"`
	Amount       int    `gorm:"not null;check:chk_recipe_ingredient_amount,amount BETWEEN 1 AND 32767"`
	// Position 保留提交顺序
	Position int `gorm:"not null;default:0"`

	Ingredient Ingredient `gorm:"foreignKey:IngredientID"`
}

func (RecipeIngredient) TableName() string { return "recipe_ingredients" }

// RecipeTag 菜谱与标签的关联表
type RecipeTag struct {
	RecipeID string `gorm:"primaryKey;type:varchar(36)"`
	TagID    string `gorm:"primaryKey;type:varchar(36);index:idx_recipe_tag_tag"`
}

func (RecipeTag) TableName() string { return "recipe_tags" }
