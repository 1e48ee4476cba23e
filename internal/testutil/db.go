// Package testutil provides an in-memory database and seed helpers for tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/recipehub/internal/model"
	"github.com/d60-Lab/recipehub/pkg/database"
)

var dbSeq atomic.Int64

// NewDB 每个测试一个独立的内存库，单连接保证事务内外看到同一份数据
func NewDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := fmt.Sprintf("file:recipehub_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

// SeedUser 插入一个用户
func SeedUser(tb testing.TB, db *gorm.DB, username string) *model.User {
	tb.Helper()
	u := &model.User{
		ID:           uuid.New().String(),
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    username,
		LastName:     "Test",
		PasswordHash: "x",
	}
	if err := db.Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedIngredient 插入一个食材
func SeedIngredient(tb testing.TB, db *gorm.DB, name, unit string) *model.Ingredient {
	tb.Helper()
	ing := &model.Ingredient{ID: uuid.New().String(), Name: name, MeasurementUnit: unit}
	if err := db.Create(ing).Error; err != nil {
		tb.Fatalf("seed ingredient: %v", err)
	}
	return ing
}

// SeedTag 插入一个标签
func SeedTag(tb testing.TB, db *gorm.DB, name, slug string) *model.Tag {
	tb.Helper()
	tag := &model.Tag{ID: uuid.New().String(), Name: name, Color: "#E26C2D", Slug: slug}
	if err := db.Create(tag).Error; err != nil {
		tb.Fatalf("seed tag: %v", err)
	}
	return tag
}
