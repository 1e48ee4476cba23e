package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/recipehub/internal/api/middleware"
	"github.com/d60-Lab/recipehub/pkg/response"
)

// Subscribe 订阅作者
// @Summary 订阅作者
// @Tags 订阅
// @Produce json
// @Security BearerAuth
// @Param id path string true "作者ID"
// @Param recipes_limit query int false "返回的菜谱数量上限"
// @Success 201 {object} response.Response{data=service.Subscription}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/users/{id}/subscribe [post]
func (h *Handler) Subscribe(c *gin.Context) {
	userID, _ := middleware.CurrentUser(c)
	limit, err := recipesLimit(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	sub, err := h.relService.Follow(c.Request.Context(), userID, c.Param("id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sub)
}

// Unsubscribe 取消订阅
// @Summary 取消订阅
// @Tags 订阅
// @Security BearerAuth
// @Param id path string true "作者ID"
// @Success 204
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/users/{id}/subscribe [delete]
func (h *Handler) Unsubscribe(c *gin.Context) {
	userID, _ := middleware.CurrentUser(c)
	if err := h.relService.Unfollow(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListSubscriptions 当前用户订阅的作者
// @Summary 我的订阅
// @Tags 订阅
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量"
// @Param recipes_limit query int false "每位作者返回的菜谱数量上限"
// @Success 200 {object} response.Response{data=response.Page{results=[]service.Subscription}}
// @Router /api/v1/users/subscriptions [get]
func (h *Handler) ListSubscriptions(c *gin.Context) {
	userID, _ := middleware.CurrentUser(c)
	page, limit, err := h.pagination(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	rl, err := recipesLimit(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	list, err := h.relService.ListSubscriptions(c.Request.Context(), userID, page, limit, rl)
	if err != nil {
		response.Error(c, err)
		return
	}
	paged(c, list, page, limit)
}
