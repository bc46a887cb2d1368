package handler

import (
	"github.com/buildhub/sitestock/internal/stock/repository"
	"github.com/buildhub/sitestock/internal/stock/service"
	"github.com/gin-gonic/gin"
)

// ItemHandler 物资档案接口
type ItemHandler struct {
	svc      *service.ItemService
	quantity *service.QuantityService
}

func NewItemHandler(svc *service.ItemService, quantity *service.QuantityService) *ItemHandler {
	return &ItemHandler{svc: svc, quantity: quantity}
}

// Create 创建物资
// POST /items
func (h *ItemHandler) Create(c *gin.Context) {
	var req service.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	item, err := h.svc.CreateItem(c.Request.Context(), req, GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, item)
}

// List 物资列表
// GET /items
func (h *ItemHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.ItemListParams{
		Search:       c.Query("search"),
		Category:     c.Query("category"),
		TrackingMode: c.Query("tracking_mode"),
		ActiveOnly:   c.Query("active_only") == "true",
		Page:         page,
		PageSize:     pageSize,
	}

	items, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		InternalError(c, "查询物资列表失败: "+err.Error())
		return
	}

	Success(c, ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages(total, pageSize),
		},
	})
}

// Get 物资详情
// GET /items/:id
func (h *ItemHandler) Get(c *gin.Context) {
	item, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, item)
}

// Update 更新物资
// PUT /items/:id
func (h *ItemHandler) Update(c *gin.Context) {
	var req service.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	item, err := h.svc.UpdateItem(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, item)
}

// ChangeTrackingMode 修改跟踪方式
// PUT /items/:id/tracking-mode
func (h *ItemHandler) ChangeTrackingMode(c *gin.Context) {
	var req struct {
		TrackingMode string `json:"tracking_mode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	item, err := h.svc.ChangeTrackingMode(c.Request.Context(), c.Param("id"), req.TrackingMode)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, item)
}

// Deactivate 停用物资
// POST /items/:id/deactivate
func (h *ItemHandler) Deactivate(c *gin.Context) {
	if err := h.svc.DeactivateItem(c.Request.Context(), c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, nil)
}

// Activate 启用物资
// POST /items/:id/activate
func (h *ItemHandler) Activate(c *gin.Context) {
	if err := h.svc.ActivateItem(c.Request.Context(), c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, nil)
}

// Quantities 统一数量视图
// GET /items/:id/quantities
func (h *ItemHandler) Quantities(c *gin.Context) {
	qty, err := h.quantity.GetQuantities(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, qty)
}

// LocationBreakdown 散装物资分地点数量
// GET /items/:id/locations
func (h *ItemHandler) LocationBreakdown(c *gin.Context) {
	rows, err := h.quantity.GetLocationBreakdown(c.Request.Context(), c.Param("id"))
	if err != nil {
		InternalError(c, "查询分地点数量失败: "+err.Error())
		return
	}
	Success(c, rows)
}
