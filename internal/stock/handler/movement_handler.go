package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/buildhub/sitestock/internal/stock/repository"
	"github.com/buildhub/sitestock/internal/stock/service"
	"github.com/gin-gonic/gin"
)

// MovementHandler 出入库与盘点接口
type MovementHandler struct {
	svc      *service.MovementService
	quantity *service.QuantityService
	export   *service.ExportService
}

func NewMovementHandler(svc *service.MovementService, quantity *service.QuantityService, export *service.ExportService) *MovementHandler {
	return &MovementHandler{svc: svc, quantity: quantity, export: export}
}

// Apply 通用数量变更（在库/预留增量）
// POST /movements
func (h *MovementHandler) Apply(c *gin.Context) {
	var req service.MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	row, err := h.svc.ApplyMovement(c.Request.Context(), req, GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, row)
}

// Receive 入库
// POST /movements/receive
func (h *MovementHandler) Receive(c *gin.Context) {
	var req service.ReceiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	row, err := h.svc.Receive(c.Request.Context(), req, GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, row)
}

// Issue 出库
// POST /movements/issue
func (h *MovementHandler) Issue(c *gin.Context) {
	var req service.IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	row, err := h.svc.Issue(c.Request.Context(), req, GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, row)
}

// Transfer 调拨
// POST /movements/transfer
func (h *MovementHandler) Transfer(c *gin.Context) {
	var req service.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	if err := h.svc.Transfer(c.Request.Context(), req, GetUserID(c)); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, nil)
}

// Count 盘点落账
// POST /movements/count
func (h *MovementHandler) Count(c *gin.Context) {
	var req service.CountStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.svc.CountStock(c.Request.Context(), req, GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, result)
}

// Transactions 库存流水
// GET /movements/transactions
func (h *MovementHandler) Transactions(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.TransactionListParams{
		ItemID:      c.Query("item_id"),
		LocationID:  c.Query("location_id"),
		Type:        c.Query("type"),
		ReferenceID: c.Query("reference_id"),
		Page:        page,
		PageSize:    pageSize,
	}

	if from := c.Query("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			params.From = &t
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			params.To = &t
		}
	}

	txs, total, err := h.svc.ListTransactions(c.Request.Context(), params)
	if err != nil {
		InternalError(c, "查询库存流水失败: "+err.Error())
		return
	}

	Success(c, ListResponse{
		Items: txs,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages(total, pageSize),
		},
	})
}

// Alerts 低库存预警
// GET /movements/alerts
func (h *MovementHandler) Alerts(c *gin.Context) {
	alerts, err := h.svc.LowStock(c.Request.Context())
	if err != nil {
		InternalError(c, "查询低库存预警失败: "+err.Error())
		return
	}
	Success(c, alerts)
}

// ExportStock 导出库存清单
// GET /movements/export
func (h *MovementHandler) ExportStock(c *gin.Context) {
	f, filename, err := h.export.ExportStock(c.Request.Context())
	if err != nil {
		InternalError(c, "导出库存清单失败: "+err.Error())
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	if err := f.Write(c.Writer); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}
