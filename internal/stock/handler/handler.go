package handler

import (
	"errors"
	"strconv"

	"github.com/buildhub/sitestock/internal/stock/entity"
	"github.com/buildhub/sitestock/internal/stock/repository"
	"github.com/buildhub/sitestock/internal/stock/service"
	"github.com/gin-gonic/gin"
)

// Handlers 库存域处理器集合
type Handlers struct {
	Item       *ItemHandler
	Unit       *UnitHandler
	Movement   *MovementHandler
	Location   *LocationHandler
	Attachment *AttachmentHandler
}

// NewHandlers 创建库存域处理器集合
func NewHandlers(services *service.Services, locRepo *repository.LocationRepository) *Handlers {
	return &Handlers{
		Item:       NewItemHandler(services.Item, services.Quantity),
		Unit:       NewUnitHandler(services.Unit),
		Movement:   NewMovementHandler(services.Movement, services.Quantity, services.Export),
		Location:   NewLocationHandler(locRepo),
		Attachment: NewAttachmentHandler(services.Attachment),
	}
}

// === 响应辅助函数 ===

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
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// RespondError 业务错误统一映射。
// 校验类错误原样带出错误信息，让前端能指明违反的是哪条约束。
func RespondError(c *gin.Context, err error) {
	var (
		duplicateCode *entity.DuplicateCodeError
		invalidMode   *entity.InvalidTrackingModeError
		duplicateSN   *entity.DuplicateSerialError
		notSerialized *entity.NotSerializedItemError
		notBulk       *entity.NotBulkItemError
		modeLocked    *entity.TrackingModeLockedError
		negativeQty   *entity.NegativeQuantityError
		badTransition *entity.InvalidStatusTransitionError
	)

	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "记录不存在")
	case errors.As(err, &duplicateCode), errors.As(err, &duplicateSN):
		Conflict(c, err.Error())
	case errors.As(err, &invalidMode),
		errors.As(err, &notSerialized),
		errors.As(err, &notBulk),
		errors.As(err, &modeLocked),
		errors.As(err, &negativeQty),
		errors.As(err, &badTransition):
		BadRequest(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
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

func totalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
