package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/recipehub/internal/api/middleware"
	"github.com/d60-Lab/recipehub/internal/model"
	"github.com/d60-Lab/recipehub/pkg/response"
)

const shoppingListFilename = "shopping_list.txt"

func (h *Handler) toggle(c *gin.Context, kind model.MembershipKind, add bool) {
	userID, _ := middleware.CurrentUser(c)
	short, err := h.memberService.Toggle(c.Request.Context(), kind, userID, c.Param("id"), add)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !add {
		response.NoContent(c)
		return
	}
	response.Created(c, short)
}

// AddFavorite 收藏
// @Summary 加入收藏
// @Tags 收藏与购物车
// @Produce json
// @Security BearerAuth
// @Param id path string true "菜谱ID"
// @Success 201 {object} response.Response{data=service.ShortRecipe}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/recipes/{id}/favorite [post]
func (h *Handler) AddFavorite(c *gin.Context) { h.toggle(c, model.KindFavorite, true) }

// RemoveFavorite 取消收藏
// @Summary 取消收藏
// @Tags 收藏与购物车
// @Security BearerAuth
// @Param id path string true "菜谱ID"
// @Success 204
// @Failure 400 {object} response.Response
// @Router /api/v1/recipes/{id}/favorite [delete]
func (h *Handler) RemoveFavorite(c *gin.Context) { h.toggle(c, model.KindFavorite, false) }

// AddToCart 加入购物车
// @Summary 加入购物车
// @Tags 收藏与购物车
// @Produce json
// @Security BearerAuth
// @Param id path string true "菜谱ID"
// @Success 201 {object} response.Response{data=service.ShortRecipe}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/recipes/{id}/shopping_cart [post]
func (h *Handler) AddToCart(c *gin.Context) { h.toggle(c, model.KindShoppingCart, true) }

// RemoveFromCart 移出购物车
// @Summary 移出购物车
// @Tags 收藏与购物车
// @Security BearerAuth
// @Param id path string true "菜谱ID"
// @Success 204
// @Failure 400 {object} response.Response
// @Router /api/v1/recipes/{id}/shopping_cart [delete]
func (h *Handler) RemoveFromCart(c *gin.Context) { h.toggle(c, model.KindShoppingCart, false) }

// DownloadShoppingCart 下载合并后的购物清单
// @Summary 下载购物清单
// @Tags 收藏与购物车
// @Produce plain
// @Security BearerAuth
// @Success 200 {string} string "每行: 名称: 数量 单位"
// @Router /api/v1/recipes/download_shopping_cart [get]
func (h *Handler) DownloadShoppingCart(c *gin.Context) {
	userID, _ := middleware.CurrentUser(c)
	report, err := h.shoppingService.BuildReport(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+shoppingListFilename+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(report.Text))
}
