package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/recipehub/config"
	"github.com/d60-Lab/recipehub/internal/api/handler"
	"github.com/d60-Lab/recipehub/internal/cache"
	"github.com/d60-Lab/recipehub/internal/imagestore"
	"github.com/d60-Lab/recipehub/internal/repository"
	"github.com/d60-Lab/recipehub/internal/service"
	"github.com/d60-Lab/recipehub/pkg/database"
	"github.com/d60-Lab/recipehub/pkg/logger"
)

// app 一次进程生命周期内共享的依赖
type app struct {
	cfg   *config.Config
	db    *gorm.DB
	redis *redis.Client
	cache *cache.Catalog

	users       repository.UserRepository
	follows     repository.FollowRepository
	members     repository.MembershipRepository
	recipes     repository.RecipeRepository
	ingredients repository.IngredientRepository
	tags        repository.TagRepository
}

// bootstrap 加载配置、初始化日志并连接数据库；redis 连不上时降级为无缓存
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := database.InitDB(cfg)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:         cfg,
		db:          db,
		users:       repository.NewUserRepository(db),
		follows:     repository.NewFollowRepository(db),
		members:     repository.NewMembershipRepository(db),
		recipes:     repository.NewRecipeRepository(db),
		ingredients: repository.NewIngredientRepository(db),
		tags:        repository.NewTagRepository(db),
	}

	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unavailable, catalog cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = client.Close()
		} else {
			a.redis = client
			a.cache = cache.NewCatalog(client, cfg.Redis.TTL)
		}
	}
	return a, nil
}

func (a *app) catalogService() service.CatalogService {
	return service.NewCatalogService(a.ingredients, a.tags, a.cache)
}

func (a *app) services(images imagestore.Store) handler.Services {
	return handler.Services{
		Recipes:   service.NewRecipeService(a.recipes, a.ingredients, a.tags, a.follows, a.members, images),
		Relations: service.NewRelationshipService(a.users, a.follows, a.recipes),
		Members:   service.NewMembershipService(a.members, a.recipes),
		Shopping:  service.NewShoppingService(a.members),
		Users:     service.NewUserService(a.users, a.follows),
		Catalog:   a.catalogService(),
	}
}

func (a *app) health(ctx context.Context) error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if err := database.Close(a.db); err != nil {
		logger.Warn("close database", zap.Error(err))
	}
	logger.Sync()
}
