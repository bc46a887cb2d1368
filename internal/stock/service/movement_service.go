package service

import (
	"context"
	"fmt"

	"github.com/buildhub/sitestock/internal/stock/entity"
	"github.com/buildhub/sitestock/internal/stock/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MovementService 散装库存出入库服务。
// 所有变更以 ApplyMovement 为原语：台账行锁内读-改-写，
// 非负校验失败整体回滚，流水与台账同事务落库。
type MovementService struct {
	itemRepo *repository.ItemRepository
	qtyRepo  *repository.QuantityRepository
	locRepo  *repository.LocationRepository
	txRepo   *repository.TransactionRepository
}

func NewMovementService(itemRepo *repository.ItemRepository, qtyRepo *repository.QuantityRepository, locRepo *repository.LocationRepository, txRepo *repository.TransactionRepository) *MovementService {
	return &MovementService{
		itemRepo: itemRepo,
		qtyRepo:  qtyRepo,
		locRepo:  locRepo,
		txRepo:   txRepo,
	}
}

// WithTx 返回绑定到指定事务的服务副本，
// 供上层业务把台账变更和自己的写入放进同一个事务。
func (s *MovementService) WithTx(tx *gorm.DB) *MovementService {
	return &MovementService{
		itemRepo: s.itemRepo.WithTx(tx),
		qtyRepo:  s.qtyRepo.WithTx(tx),
		locRepo:  s.locRepo.WithTx(tx),
		txRepo:   s.txRepo.WithTx(tx),
	}
}

// requireBulkItem 数量出入库只对 bulk 物资开放
func (s *MovementService) requireBulkItem(ctx context.Context, itemID string) (*entity.Item, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.IsBulk() {
		return nil, &entity.NotBulkItemError{ItemID: item.ID, Code: item.Code}
	}
	return item, nil
}

// MovementRequest 通用数量变更请求
type MovementRequest struct {
	ItemID         string          `json:"item_id" binding:"required"`
	LocationID     string          `json:"location_id" binding:"required"`
	DeltaOnHand    decimal.Decimal `json:"delta_on_hand"`
	DeltaAllocated decimal.Decimal `json:"delta_allocated"`
	Type           string          `json:"type"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	ReferenceType  string          `json:"reference_type"`
	ReferenceID    string          `json:"reference_id"`
	Notes          string          `json:"notes"`
}

// ApplyMovement 对 (物资, 地点) 应用在库/预留增量。
// 行不存在时惰性创建；可用数在锁内重算；任何一项变负则拒绝且台账不变。
func (s *MovementService) ApplyMovement(ctx context.Context, req MovementRequest, userID string) (*entity.LocationQuantity, error) {
	if _, err := s.requireBulkItem(ctx, req.ItemID); err != nil {
		return nil, err
	}

	txType := req.Type
	if txType == "" {
		txType = entity.TxTypeAdjust
	}

	movement := &entity.StockTransaction{
		ID:            uuid.New().String(),
		ItemID:        req.ItemID,
		ToLocationID:  req.LocationID,
		Type:          txType,
		Quantity:      req.DeltaOnHand,
		UnitCost:      req.UnitCost,
		ReferenceType: req.ReferenceType,
		ReferenceID:   req.ReferenceID,
		Notes:         req.Notes,
		CreatedBy:     userID,
	}
	if req.DeltaOnHand.IsNegative() {
		movement.FromLocationID = req.LocationID
		movement.ToLocationID = ""
	}

	return s.qtyRepo.ApplyDelta(ctx, req.ItemID, req.LocationID, req.DeltaOnHand, req.DeltaAllocated, movement)
}

// ReceiveRequest 入库请求
type ReceiveRequest struct {
	ItemID        string          `json:"item_id" binding:"required"`
	LocationID    string          `json:"location_id" binding:"required"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	ReferenceType string          `json:"reference_type"`
	ReferenceID   string          `json:"reference_id"`
	Notes         string          `json:"notes"`
}

// Receive 采购/归还入库
func (s *MovementService) Receive(ctx context.Context, req ReceiveRequest, userID string) (*entity.LocationQuantity, error) {
	if !req.Quantity.IsPositive() {
		return nil, fmt.Errorf("入库数量必须大于0")
	}
	if _, err := s.locRepo.FindByID(ctx, req.LocationID); err != nil {
		return nil, fmt.Errorf("入库地点不存在: %w", err)
	}
	return s.ApplyMovement(ctx, MovementRequest{
		ItemID:        req.ItemID,
		LocationID:    req.LocationID,
		DeltaOnHand:   req.Quantity,
		Type:          entity.TxTypeReceipt,
		UnitCost:      req.UnitCost,
		ReferenceType: req.ReferenceType,
		ReferenceID:   req.ReferenceID,
		Notes:         req.Notes,
	}, userID)
}

// IssueRequest 领用出库请求
type IssueRequest struct {
	ItemID        string          `json:"item_id" binding:"required"`
	LocationID    string          `json:"location_id" binding:"required"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
	FromAllocated bool            `json:"from_allocated"` // 出库是否同时释放预留
	ReferenceType string          `json:"reference_type"`
	ReferenceID   string          `json:"reference_id"`
	Notes         string          `json:"notes"`
}

// Issue 领用出库。已预留的出库同时扣减预留，避免重复占用。
func (s *MovementService) Issue(ctx context.Context, req IssueRequest, userID string) (*entity.LocationQuantity, error) {
	if !req.Quantity.IsPositive() {
		return nil, fmt.Errorf("出库数量必须大于0")
	}
	deltaAllocated := decimal.Zero
	if req.FromAllocated {
		deltaAllocated = req.Quantity.Neg()
	}
	return s.ApplyMovement(ctx, MovementRequest{
		ItemID:         req.ItemID,
		LocationID:     req.LocationID,
		DeltaOnHand:    req.Quantity.Neg(),
		DeltaAllocated: deltaAllocated,
		Type:           entity.TxTypeIssue,
		ReferenceType:  req.ReferenceType,
		ReferenceID:    req.ReferenceID,
		Notes:          req.Notes,
	}, userID)
}

// TransferRequest 调拨请求
type TransferRequest struct {
	ItemID         string          `json:"item_id" binding:"required"`
	FromLocationID string          `json:"from_location_id" binding:"required"`
	ToLocationID   string          `json:"to_location_id" binding:"required"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"`
	Notes          string          `json:"notes"`
}

// Transfer 地点间调拨，两行在同一事务内变更
func (s *MovementService) Transfer(ctx context.Context, req TransferRequest, userID string) error {
	if !req.Quantity.IsPositive() {
		return fmt.Errorf("调拨数量必须大于0")
	}
	if req.FromLocationID == req.ToLocationID {
		return fmt.Errorf("调拨来源与目标地点不能相同")
	}
	if _, err := s.requireBulkItem(ctx, req.ItemID); err != nil {
		return err
	}
	if _, err := s.locRepo.FindByID(ctx, req.ToLocationID); err != nil {
		return fmt.Errorf("目标地点不存在: %w", err)
	}

	movement := &entity.StockTransaction{
		ID:             uuid.New().String(),
		ItemID:         req.ItemID,
		FromLocationID: req.FromLocationID,
		ToLocationID:   req.ToLocationID,
		Type:           entity.TxTypeTransfer,
		Quantity:       req.Quantity,
		Notes:          req.Notes,
		CreatedBy:      userID,
	}
	return s.qtyRepo.Transfer(ctx, req.ItemID, req.FromLocationID, req.ToLocationID, req.Quantity, movement)
}

// CountStockRequest 盘点请求
type CountStockRequest struct {
	ItemID      string          `json:"item_id" binding:"required"`
	LocationID  string          `json:"location_id" binding:"required"`
	ObservedQty decimal.Decimal `json:"observed_qty"`
	Notes       string          `json:"notes"`
}

// CountStockResult 盘点结果
type CountStockResult struct {
	Variance decimal.Decimal `json:"variance"`
}

// CountStock 盘点落账：流水记差异数，在库数改为实盘数
func (s *MovementService) CountStock(ctx context.Context, req CountStockRequest, userID string) (*CountStockResult, error) {
	if req.ObservedQty.IsNegative() {
		return nil, fmt.Errorf("实盘数量不能为负")
	}
	if _, err := s.requireBulkItem(ctx, req.ItemID); err != nil {
		return nil, err
	}

	movement := &entity.StockTransaction{
		ID:            uuid.New().String(),
		ItemID:        req.ItemID,
		ToLocationID:  req.LocationID,
		Type:          entity.TxTypeAdjust,
		ReferenceType: "COUNT",
		Notes:         req.Notes,
		CreatedBy:     userID,
	}
	variance, err := s.qtyRepo.SetOnHand(ctx, req.ItemID, req.LocationID, req.ObservedQty, movement)
	if err != nil {
		return nil, err
	}
	return &CountStockResult{Variance: variance}, nil
}

// ListTransactions 查询库存流水
func (s *MovementService) ListTransactions(ctx context.Context, params repository.TransactionListParams) ([]entity.StockTransaction, int64, error) {
	return s.txRepo.List(ctx, params)
}

// LowStock 低库存预警
func (s *MovementService) LowStock(ctx context.Context) ([]repository.LowStockAlert, error) {
	return s.qtyRepo.LowStock(ctx)
}
