package router

import (
	"context"
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/recipehub/config"
	_ "github.com/d60-Lab/recipehub/docs"
	"github.com/d60-Lab/recipehub/internal/api/handler"
	"github.com/d60-Lab/recipehub/internal/api/middleware"
	"github.com/d60-Lab/recipehub/pkg/response"
)

// Options 路由装配参数
type Options struct {
	Config  *config.Config
	Handler *handler.Handler
	// Health 为 nil 时 /healthz 总是返回 ok
	Health        func(ctx context.Context) error
	SentryEnabled bool
}

func Setup(opts Options) *gin.Engine {
	cfg := opts.Config
	h := opts.Handler

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Otel.Enabled {
		r.Use(otelgin.Middleware(cfg.Otel.ServiceName))
	}
	if opts.SentryEnabled {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}), middleware.ReportErrors())
	}
	r.Use(middleware.RequestLogger(), middleware.Metrics(), gzip.Gzip(gzip.DefaultCompression))

	r.GET("/healthz", func(c *gin.Context) {
		if opts.Health != nil {
			if err := opts.Health(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, response.Response{Code: http.StatusServiceUnavailable, Message: err.Error()})
				return
			}
		}
		response.Success(c, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if cfg.Storage.Driver == "local" {
		r.Static(cfg.Storage.Local.BaseURL, cfg.Storage.Local.Dir)
	}

	auth := middleware.NewAuth(cfg.JWT.Secret, cfg.JWT.Issuer)
	optional, required := auth.Optional(), auth.Required()

	v1 := r.Group("/api/v1")
	v1.Use(middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst).Handler())
	{
		users := v1.Group("/users")
		users.POST("", h.Register)
		users.GET("", optional, h.ListUsers)
		users.GET("/me", required, h.Me)
		users.GET("/subscriptions", required, h.ListSubscriptions)
		users.GET("/:id", optional, h.GetUser)
		users.POST("/:id/subscribe", required, h.Subscribe)
		users.DELETE("/:id/subscribe", required, h.Unsubscribe)

		v1.GET("/tags", h.ListTags)
		v1.GET("/tags/:id", h.GetTag)
		v1.GET("/ingredients", h.ListIngredients)
		v1.GET("/ingredients/:id", h.GetIngredient)

		recipes := v1.Group("/recipes")
		recipes.GET("", optional, h.ListRecipes)
		recipes.POST("", required, h.CreateRecipe)
		// 静态路径要在 /:id 之前注册
		recipes.GET("/download_shopping_cart", required, h.DownloadShoppingCart)
		recipes.GET("/:id", optional, h.GetRecipe)
		recipes.PATCH("/:id", required, h.UpdateRecipe)
		recipes.DELETE("/:id", required, h.DeleteRecipe)
		recipes.POST("/:id/favorite", required, h.AddFavorite)
		recipes.DELETE("/:id/favorite", required, h.RemoveFavorite)
		recipes.POST("/:id/shopping_cart", required, h.AddToCart)
		recipes.DELETE("/:id/shopping_cart", required, h.RemoveFromCart)
	}
	return r
}
