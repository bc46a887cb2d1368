package handler

import (
	"time"

	"github.com/buildhub/sitestock/internal/stock/entity"
	"github.com/buildhub/sitestock/internal/stock/repository"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LocationHandler 库存地点接口
type LocationHandler struct {
	repo *repository.LocationRepository
}

func NewLocationHandler(repo *repository.LocationRepository) *LocationHandler {
	return &LocationHandler{repo: repo}
}

// CreateLocationRequest 创建库存地点请求
type CreateLocationRequest struct {
	Code    string `json:"code" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Type    string `json:"type"`
	Address string `json:"address"`
	Manager string `json:"manager"`
	Notes   string `json:"notes"`
}

// Create 创建库存地点
// POST /locations
func (h *LocationHandler) Create(c *gin.Context) {
	var req CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	locType := req.Type
	if locType == "" {
		locType = entity.LocationTypeWarehouse
	}
	switch locType {
	case entity.LocationTypeWarehouse, entity.LocationTypeSite, entity.LocationTypeVehicle:
	default:
		BadRequest(c, "无效的地点类型: "+locType)
		return
	}

	location := &entity.Location{
		ID:      uuid.New().String(),
		Code:    req.Code,
		Name:    req.Name,
		Type:    locType,
		Address: req.Address,
		Manager: req.Manager,
		Active:  true,
		Notes:   req.Notes,
	}
	if err := h.repo.Create(c.Request.Context(), location); err != nil {
		InternalError(c, "创建库存地点失败: "+err.Error())
		return
	}
	Created(c, location)
}

// Get 获取库存地点详情
// GET /locations/:id
func (h *LocationHandler) Get(c *gin.Context) {
	location, err := h.repo.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, location)
}

// List 库存地点列表
// GET /locations
func (h *LocationHandler) List(c *gin.Context) {
	locations, err := h.repo.List(c.Request.Context(), c.Query("type"), c.Query("active") == "true")
	if err != nil {
		InternalError(c, "查询库存地点失败: "+err.Error())
		return
	}
	Success(c, locations)
}

// UpdateLocationRequest 更新库存地点请求
type UpdateLocationRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Manager *string `json:"manager"`
	Active  *bool   `json:"active"`
	Notes   *string `json:"notes"`
}

// Update 更新库存地点
// PUT /locations/:id
func (h *LocationHandler) Update(c *gin.Context) {
	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	location, err := h.repo.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}

	if req.Name != nil {
		location.Name = *req.Name
	}
	if req.Address != nil {
		location.Address = *req.Address
	}
	if req.Manager != nil {
		location.Manager = *req.Manager
	}
	if req.Active != nil {
		location.Active = *req.Active
	}
	if req.Notes != nil {
		location.Notes = *req.Notes
	}
	location.UpdatedAt = time.Now()

	if err := h.repo.Update(c.Request.Context(), location); err != nil {
		InternalError(c, "更新库存地点失败: "+err.Error())
		return
	}
	Success(c, location)
}
