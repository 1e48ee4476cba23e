package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/recipehub/config"
	"github.com/d60-Lab/recipehub/internal/apperr"
	"github.com/d60-Lab/recipehub/internal/service"
	"github.com/d60-Lab/recipehub/pkg/response"
)

// Services 处理器依赖的全部服务
type Services struct {
	Recipes   service.RecipeService
	Relations service.RelationshipService
	Members   service.MembershipService
	Shopping  service.ShoppingService
	Users     service.UserService
	Catalog   service.CatalogService
}

type Handler struct {
	recipeService   service.RecipeService
	relService      service.RelationshipService
	memberService   service.MembershipService
	shoppingService service.ShoppingService
	userService     service.UserService
	catalogService  service.CatalogService

	pageSize    int
	maxPageSize int
}

func New(s Services, p config.PaginationConfig) *Handler {
	h := &Handler{
		recipeService:   s.Recipes,
		relService:      s.Relations,
		memberService:   s.Members,
		shoppingService: s.Shopping,
		userService:     s.Users,
		catalogService:  s.Catalog,
		pageSize:        p.PageSize,
		maxPageSize:     p.MaxPageSize,
	}
	if h.pageSize <= 0 {
		h.pageSize = 6
	}
	if h.maxPageSize < h.pageSize {
		h.maxPageSize = h.pageSize
	}
	return h
}

// pagination 解析 page 与 limit，limit 超过上限时截断
func (h *Handler) pagination(c *gin.Context) (page, limit int, err error) {
	page, err = intQuery(c, "page", 1)
	if err != nil {
		return 0, 0, err
	}
	limit, err = intQuery(c, "limit", h.pageSize)
	if err != nil {
		return 0, 0, err
	}
	if page < 1 {
		return 0, 0, apperr.FieldValidation("page", "page must be a positive integer")
	}
	if limit < 1 {
		return 0, 0, apperr.FieldValidation("limit", "limit must be a positive integer")
	}
	if limit > h.maxPageSize {
		limit = h.maxPageSize
	}
	return page, limit, nil
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.FieldValidation(name, "%s must be an integer", name)
	}
	return v, nil
}

func boolQuery(c *gin.Context, name string) (bool, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperr.FieldValidation(name, "%s must be 0 or 1", name)
	}
	return v, nil
}

// recipesLimit 解析 recipes_limit，0 表示不限制
func recipesLimit(c *gin.Context) (int, error) {
	n, err := intQuery(c, "recipes_limit", 0)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, apperr.FieldValidation("recipes_limit", "recipes_limit must not be negative")
	}
	return n, nil
}

func paged[T any](c *gin.Context, p *service.Page[T], page, limit int) {
	response.Success(c, response.Page{Count: p.Count, Page: page, Limit: limit, Results: p.Results})
}
