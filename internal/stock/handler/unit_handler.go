package handler

import (
	"time"

	"github.com/buildhub/sitestock/internal/stock/repository"
	"github.com/buildhub/sitestock/internal/stock/service"
	"github.com/gin-gonic/gin"
)

// UnitHandler 序列化单件接口
type UnitHandler struct {
	svc *service.UnitService
}

func NewUnitHandler(svc *service.UnitService) *UnitHandler {
	return &UnitHandler{svc: svc}
}

// Register 登记单件
// POST /units
func (h *UnitHandler) Register(c *gin.Context) {
	var req service.RegisterUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	unit, err := h.svc.RegisterUnit(c.Request.Context(), req, GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, unit)
}

// List 单件列表
// GET /units
func (h *UnitHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.UnitListParams{
		ItemID:     c.Query("item_id"),
		LocationID: c.Query("location_id"),
		Status:     c.Query("status"),
		Condition:  c.Query("condition"),
		Search:     c.Query("search"),
		Page:       page,
		PageSize:   pageSize,
	}

	units, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		InternalError(c, "查询单件列表失败: "+err.Error())
		return
	}

	Success(c, ListResponse{
		Items: units,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages(total, pageSize),
		},
	})
}

// Get 单件详情
// GET /units/:id
func (h *UnitHandler) Get(c *gin.Context) {
	unit, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, unit)
}

// TransitionStatus 单件状态迁移
// PUT /units/:id/status
func (h *UnitHandler) TransitionStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	unit, err := h.svc.TransitionStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, unit)
}

// Relocate 单件移库
// PUT /units/:id/location
func (h *UnitHandler) Relocate(c *gin.Context) {
	var req struct {
		LocationID string `json:"location_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	unit, err := h.svc.RelocateUnit(c.Request.Context(), c.Param("id"), req.LocationID)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, unit)
}

// UpdateCondition 更新单件成色与保养日期
// PUT /units/:id/condition
func (h *UnitHandler) UpdateCondition(c *gin.Context) {
	var req struct {
		Condition       string     `json:"condition" binding:"required"`
		LastServiceDate *time.Time `json:"last_service_date"`
		NextServiceDate *time.Time `json:"next_service_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	unit, err := h.svc.UpdateCondition(c.Request.Context(), c.Param("id"), req.Condition, req.LastServiceDate, req.NextServiceDate)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, unit)
}
