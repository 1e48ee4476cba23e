package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/recipehub/internal/api/middleware"
	"github.com/d60-Lab/recipehub/internal/service"
	"github.com/d60-Lab/recipehub/pkg/response"
)

// ListRecipes 菜谱列表
// @Summary 菜谱列表
// @Tags 菜谱
// @Produce json
// @Param author query string false "作者ID"
// @Param tags query []string false "标签 slug，可重复，满足任意一个即可" collectionFormat(multi)
// @Param is_favorited query int false "只看已收藏 (0/1)"
// @Param is_in_shopping_cart query int false "只看购物车 (0/1)"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量"
// @Success 200 {object} response.Response{data=response.Page{results=[]service.RecipeView}}
// @Failure 400 {object} response.Response
// @Router /api/v1/recipes [get]
func (h *Handler) ListRecipes(c *gin.Context) {
	viewer, _ := middleware.CurrentUser(c)
	page, limit, err := h.pagination(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	q := service.RecipeQuery{
		AuthorID: c.Query("author"),
		Tags:     c.QueryArray("tags"),
		Page:     page,
		Limit:    limit,
	}
	if q.IsFavorited, err = boolQuery(c, "is_favorited"); err != nil {
		response.Error(c, err)
		return
	}
	if q.IsInShoppingCart, err = boolQuery(c, "is_in_shopping_cart"); err != nil {
		response.Error(c, err)
		return
	}
	list, err := h.recipeService.List(c.Request.Context(), q, viewer)
	if err != nil {
		response.Error(c, err)
		return
	}
	paged(c, list, page, limit)
}

// CreateRecipe 发布菜谱
// @Summary 发布菜谱
// @Tags 菜谱
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.RecipeInput true "菜谱内容，image 为 base64 data URI"
// @Success 201 {object} response.Response{data=service.RecipeView}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/recipes [post]
func (h *Handler) CreateRecipe(c *gin.Context) {
	userID, _ := middleware.CurrentUser(c)
	var req service.RecipeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	view, err := h.recipeService.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// GetRecipe 菜谱详情
// @Summary 菜谱详情
// @Tags 菜谱
// @Produce json
// @Param id path string true "菜谱ID"
// @Success 200 {object} response.Response{data=service.RecipeView}
// @Failure 404 {object} response.Response
// @Router /api/v1/recipes/{id} [get]
func (h *Handler) GetRecipe(c *gin.Context) {
	viewer, _ := middleware.CurrentUser(c)
	view, err := h.recipeService.Get(c.Request.Context(), c.Param("id"), viewer)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}

// UpdateRecipe 修改菜谱（仅作者），标签与食材整体替换
// @Summary 修改菜谱
// @Tags 菜谱
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "菜谱ID"
// @Param request body service.RecipeInput true "菜谱内容"
// @Success 200 {object} response.Response{data=service.RecipeView}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/recipes/{id} [patch]
func (h *Handler) UpdateRecipe(c *gin.Context) {
	userID, _ := middleware.CurrentUser(c)
	var req service.RecipeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	view, err := h.recipeService.Update(c.Request.Context(), c.Param("id"), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}

// DeleteRecipe 删除菜谱（仅作者）
// @Summary 删除菜谱
// @Tags 菜谱
// @Security BearerAuth
// @Param id path string true "菜谱ID"
// @Success 204
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/recipes/{id} [delete]
func (h *Handler) DeleteRecipe(c *gin.Context) {
	userID, _ := middleware.CurrentUser(c)
	if err := h.recipeService.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
