package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/recipehub/pkg/response"
)

// ListTags 全部标签
// @Summary 标签列表
// @Tags 标签
// @Produce json
// @Success 200 {object} response.Response{data=[]service.TagView}
// @Router /api/v1/tags [get]
func (h *Handler) ListTags(c *gin.Context) {
	tags, err := h.catalogService.ListTags(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, tags)
}

// GetTag 单个标签
// @Summary 标签详情
// @Tags 标签
// @Produce json
// @Param id path string true "标签ID"
// @Success 200 {object} response.Response{data=service.TagView}
// @Failure 404 {object} response.Response
// @Router /api/v1/tags/{id} [get]
func (h *Handler) GetTag(c *gin.Context) {
	tag, err := h.catalogService.GetTag(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, tag)
}

// ListIngredients 按名称前缀搜索食材
// @Summary 食材列表
// @Tags 食材
// @Produce json
// @Param name query string false "名称前缀（不区分大小写）"
// @Success 200 {object} response.Response{data=[]service.IngredientView}
// @Router /api/v1/ingredients [get]
func (h *Handler) ListIngredients(c *gin.Context) {
	items, err := h.catalogService.SearchIngredients(c.Request.Context(), c.Query("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, items)
}

// GetIngredient 单个食材
// @Summary 食材详情
// @Tags 食材
// @Produce json
// @Param id path string true "食材ID"
// @Success 200 {object} response.Response{data=service.IngredientView}
// @Failure 404 {object} response.Response
// @Router /api/v1/ingredients/{id} [get]
func (h *Handler) GetIngredient(c *gin.Context) {
	item, err := h.catalogService.GetIngredient(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, item)
}
