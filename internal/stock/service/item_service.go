package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/buildhub/sitestock/internal/stock/entity"
	"github.com/buildhub/sitestock/internal/stock/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemService 物资档案服务
type ItemService struct {
	repo *repository.ItemRepository
}

func NewItemService(repo *repository.ItemRepository) *ItemService {
	return &ItemService{repo: repo}
}

// CreateItemRequest 创建物资请求
type CreateItemRequest struct {
	Code            string          `json:"code" binding:"required"`
	Name            string          `json:"name" binding:"required"`
	Category        string          `json:"category"`
	TrackingMode    string          `json:"tracking_mode" binding:"required"`
	Unit            string          `json:"unit"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	ReplacementCost decimal.Decimal `json:"replacement_cost"`
	ReorderLevel    decimal.Decimal `json:"reorder_level"`
	ReorderQty      decimal.Decimal `json:"reorder_qty"`
	Notes           string          `json:"notes"`
}

// CreateItem 创建物资。编码唯一；跟踪方式在此一次性确定。
func (s *ItemService) CreateItem(ctx context.Context, req CreateItemRequest, userID string) (*entity.Item, error) {
	if !entity.ValidTrackingMode(req.TrackingMode) {
		return nil, &entity.InvalidTrackingModeError{Mode: req.TrackingMode}
	}

	existing, err := s.repo.FindByCode(ctx, req.Code)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("查询物资编码失败: %w", err)
	}
	if existing != nil {
		return nil, &entity.DuplicateCodeError{Code: req.Code}
	}

	unit := req.Unit
	if unit == "" {
		unit = "pcs"
	}

	item := &entity.Item{
		ID:              uuid.New().String(),
		Code:            req.Code,
		Name:            req.Name,
		Category:        req.Category,
		TrackingMode:    req.TrackingMode,
		Unit:            unit,
		UnitCost:        req.UnitCost,
		ReplacementCost: req.ReplacementCost,
		ReorderLevel:    req.ReorderLevel,
		ReorderQty:      req.ReorderQty,
		Active:          true,
		Notes:           req.Notes,
		CreatedBy:       userID,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("创建物资失败: %w", err)
	}
	return item, nil
}

// Get 查询单个物资
func (s *ItemService) Get(ctx context.Context, id string) (*entity.Item, error) {
	return s.repo.FindByID(ctx, id)
}

// List 查询物资列表
func (s *ItemService) List(ctx context.Context, params repository.ItemListParams) ([]entity.Item, int64, error) {
	return s.repo.List(ctx, params)
}

// UpdateItemRequest 更新物资请求（跟踪方式走专门接口）
type UpdateItemRequest struct {
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	Unit            string          `json:"unit"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	ReplacementCost decimal.Decimal `json:"replacement_cost"`
	ReorderLevel    decimal.Decimal `json:"reorder_level"`
	ReorderQty      decimal.Decimal `json:"reorder_qty"`
	Notes           string          `json:"notes"`
}

// UpdateItem 更新物资基础信息
func (s *ItemService) UpdateItem(ctx context.Context, id string, req UpdateItemRequest) (*entity.Item, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		item.Name = req.Name
	}
	if req.Category != "" {
		item.Category = req.Category
	}
	if req.Unit != "" {
		item.Unit = req.Unit
	}
	item.UnitCost = req.UnitCost
	item.ReplacementCost = req.ReplacementCost
	item.ReorderLevel = req.ReorderLevel
	item.ReorderQty = req.ReorderQty
	item.Notes = req.Notes

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("更新物资失败: %w", err)
	}
	return item, nil
}

// ChangeTrackingMode 修改跟踪方式。
// 一旦存在任何单件台账、库位数量或流水记录即拒绝：
// 历史数量的含义依赖跟踪方式，事后改写等于篡改台账。
func (s *ItemService) ChangeTrackingMode(ctx context.Context, id, newMode string) (*entity.Item, error) {
	if !entity.ValidTrackingMode(newMode) {
		return nil, &entity.InvalidTrackingModeError{Mode: newMode}
	}

	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.TrackingMode == newMode {
		return item, nil
	}

	referenced, err := s.repo.HasLedgerReferences(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("检查台账引用失败: %w", err)
	}
	if referenced {
		return nil, &entity.TrackingModeLockedError{ItemID: item.ID, Code: item.Code}
	}

	if err := s.repo.UpdateTrackingMode(ctx, id, newMode); err != nil {
		return nil, fmt.Errorf("更新跟踪方式失败: %w", err)
	}
	item.TrackingMode = newMode
	return item, nil
}

// DeactivateItem 停用物资，保留全部台账与流水
func (s *ItemService) DeactivateItem(ctx context.Context, id string) error {
	return s.repo.SetActive(ctx, id, false)
}

// ActivateItem 重新启用物资
func (s *ItemService) ActivateItem(ctx context.Context, id string) error {
	return s.repo.SetActive(ctx, id, true)
}
