package service

import (
	"context"

	"github.com/buildhub/sitestock/internal/stock/entity"
	"github.com/buildhub/sitestock/internal/stock/repository"
	"github.com/shopspring/decimal"
)

// Quantities 统一数量视图：总数 / 可用 / 占用
type Quantities struct {
	ItemID       string          `json:"item_id"`
	TrackingMode string          `json:"tracking_mode"`
	Total        decimal.Decimal `json:"total"`
	Available    decimal.Decimal `json:"available"`
	Allocated    decimal.Decimal `json:"allocated"`
}

// quantitySource 数量来源，按跟踪方式二选一。
// 在物资边界上确定一次，之后不再到处 if tracking_mode。
type quantitySource interface {
	Quantities(ctx context.Context, itemID string) (*Quantities, error)
}

// serializedSource 按序列号跟踪：数量来自单件台账的状态计数
type serializedSource struct {
	units *repository.UnitRepository
}

func (s *serializedSource) Quantities(ctx context.Context, itemID string) (*Quantities, error) {
	counts, err := s.units.CountsByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return &Quantities{
		ItemID:       itemID,
		TrackingMode: entity.TrackingModeSerialized,
		Total:        decimal.NewFromInt(counts.Total),
		Available:    decimal.NewFromInt(counts.Available),
		Allocated:    decimal.NewFromInt(counts.Allocated),
	}, nil
}

// bulkSource 按数量跟踪：数量来自库位数量台账跨地点求和
type bulkSource struct {
	quantities *repository.QuantityRepository
}

func (s *bulkSource) Quantities(ctx context.Context, itemID string) (*Quantities, error) {
	sums, err := s.quantities.SumsByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return &Quantities{
		ItemID:       itemID,
		TrackingMode: entity.TrackingModeBulk,
		Total:        sums.OnHand,
		Available:    sums.Available,
		Allocated:    sums.Allocated,
	}, nil
}

// QuantityService 统一数量视图服务。
// 数量永远从两本台账现算，不落缓存、不存汇总值。
type QuantityService struct {
	itemRepo   *repository.ItemRepository
	serialized *serializedSource
	bulk       *bulkSource
}

func NewQuantityService(itemRepo *repository.ItemRepository, unitRepo *repository.UnitRepository, qtyRepo *repository.QuantityRepository) *QuantityService {
	return &QuantityService{
		itemRepo:   itemRepo,
		serialized: &serializedSource{units: unitRepo},
		bulk:       &bulkSource{quantities: qtyRepo},
	}
}

// sourceFor 按物资跟踪方式选定数量来源
func (s *QuantityService) sourceFor(item *entity.Item) quantitySource {
	if item.IsSerialized() {
		return s.serialized
	}
	return s.bulk
}

// GetQuantities 查询某物资的统一数量。纯读，无副作用。
func (s *QuantityService) GetQuantities(ctx context.Context, itemID string) (*Quantities, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return s.sourceFor(item).Quantities(ctx, itemID)
}

// GetLocationBreakdown 散装物资分地点的数量行
func (s *QuantityService) GetLocationBreakdown(ctx context.Context, itemID string) ([]entity.LocationQuantity, error) {
	return s.bulk.quantities.ListByItem(ctx, itemID)
}
