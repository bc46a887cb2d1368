package handler

import (
	"errors"
	"strconv"

	hireentity "github.com/buildhub/sitestock/internal/hire/entity"
	"github.com/buildhub/sitestock/internal/hire/repository"
	"github.com/buildhub/sitestock/internal/hire/service"
	stockentity "github.com/buildhub/sitestock/internal/stock/entity"
	stockrepo "github.com/buildhub/sitestock/internal/stock/repository"
	"github.com/gin-gonic/gin"
)

// BookingHandler 租赁/领用接口
type BookingHandler struct {
	svc *service.BookingService
}

func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

// Create 创建租赁单（预留库存）
// POST /bookings
func (h *BookingHandler) Create(c *gin.Context) {
	var req service.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	booking, err := h.svc.Create(c.Request.Context(), req, GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, booking)
}

// Get 获取租赁单详情
// GET /bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	booking, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, booking)
}

// List 租赁单列表
// GET /bookings
func (h *BookingHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.BookingListParams{
		ProjectID: c.Query("project_id"),
		ItemID:    c.Query("item_id"),
		Status:    c.Query("status"),
		Overdue:   c.Query("overdue") == "true",
		Page:      page,
		PageSize:  pageSize,
	}

	bookings, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		InternalError(c, "查询租赁单列表失败: "+err.Error())
		return
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	Success(c, ListResponse{
		Items: bookings,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	})
}

// Dispatch 发出
// POST /bookings/:id/dispatch
func (h *BookingHandler) Dispatch(c *gin.Context) {
	booking, err := h.svc.Dispatch(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, booking)
}

// Return 归还
// POST /bookings/:id/return
func (h *BookingHandler) Return(c *gin.Context) {
	var req service.ReturnBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, "参数错误: "+err.Error())
			return
		}
	}

	booking, err := h.svc.Return(c.Request.Context(), c.Param("id"), req, GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, booking)
}

// Cancel 取消预留
// POST /bookings/:id/cancel
func (h *BookingHandler) Cancel(c *gin.Context) {
	booking, err := h.svc.Cancel(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, booking)
}

// respondError 按错误类型映射响应码
func respondError(c *gin.Context, err error) {
	var bookingState *hireentity.InvalidBookingStateError
	var negQty *stockentity.NegativeQuantityError
	var badTransition *stockentity.InvalidStatusTransitionError
	var notBulk *stockentity.NotBulkItemError

	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, stockrepo.ErrNotFound):
		NotFound(c, "记录不存在")
	case errors.As(err, &bookingState),
		errors.As(err, &negQty),
		errors.As(err, &badTransition),
		errors.As(err, &notBulk):
		BadRequest(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

// === 响应辅助函数（与库存模块保持一致） ===

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{Code: 0, Message: "success", Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{Code: 0, Message: "success", Data: data})
}

func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{Code: code, Message: message})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}
	return page, pageSize
}
