package service

import (
	"context"
	"fmt"
	"time"

	"github.com/buildhub/sitestock/internal/stock/entity"
	"github.com/buildhub/sitestock/internal/stock/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UnitService 序列化单件台账服务
type UnitService struct {
	itemRepo *repository.ItemRepository
	unitRepo *repository.UnitRepository
	locRepo  *repository.LocationRepository
	txRepo   *repository.TransactionRepository
}

func NewUnitService(itemRepo *repository.ItemRepository, unitRepo *repository.UnitRepository, locRepo *repository.LocationRepository, txRepo *repository.TransactionRepository) *UnitService {
	return &UnitService{
		itemRepo: itemRepo,
		unitRepo: unitRepo,
		locRepo:  locRepo,
		txRepo:   txRepo,
	}
}

// WithTx 返回绑定到指定事务的服务副本
func (s *UnitService) WithTx(tx *gorm.DB) *UnitService {
	return &UnitService{
		itemRepo: s.itemRepo.WithTx(tx),
		unitRepo: s.unitRepo.WithTx(tx),
		locRepo:  s.locRepo.WithTx(tx),
		txRepo:   s.txRepo.WithTx(tx),
	}
}

// RegisterUnitRequest 登记单件请求
type RegisterUnitRequest struct {
	ItemID          string     `json:"item_id" binding:"required"`
	SerialNumber    string     `json:"serial_number" binding:"required"`
	LocationID      string     `json:"location_id"`
	Condition       string     `json:"condition"`
	PurchaseDate    *time.Time `json:"purchase_date"`
	PurchaseCost    float64    `json:"purchase_cost"`
	WarrantyExpiry  *time.Time `json:"warranty_expiry"`
	NextServiceDate *time.Time `json:"next_service_date"`
	Notes           string     `json:"notes"`
}

// RegisterUnit 登记一台实物单件。
// 物资必须是 serialized 跟踪（跨实体约束，写入前校验）；
// 序列号全局唯一由数据库唯一索引保证。
func (s *UnitService) RegisterUnit(ctx context.Context, req RegisterUnitRequest, userID string) (*entity.SerializedUnit, error) {
	item, err := s.itemRepo.FindByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if !item.IsSerialized() {
		return nil, &entity.NotSerializedItemError{ItemID: item.ID, Code: item.Code}
	}

	condition := req.Condition
	if condition == "" {
		condition = entity.ConditionGood
	}
	if !entity.ValidUnitCondition(condition) {
		return nil, fmt.Errorf("无效的成色 %q", condition)
	}

	unit := &entity.SerializedUnit{
		ID:              uuid.New().String(),
		ItemID:          item.ID,
		SerialNumber:    req.SerialNumber,
		LocationID:      req.LocationID,
		Condition:       condition,
		Status:          entity.UnitStatusAvailable,
		PurchaseDate:    req.PurchaseDate,
		PurchaseCost:    req.PurchaseCost,
		WarrantyExpiry:  req.WarrantyExpiry,
		NextServiceDate: req.NextServiceDate,
		Notes:           req.Notes,
		CreatedBy:       userID,
	}
	// 登记流水。单件不走库位数量台账，数量恒为1，仅作审计；
	// 与单件行在同一事务内落库，不会出现有单件无流水的半截状态
	movement := &entity.StockTransaction{
		ID:            uuid.New().String(),
		ItemID:        item.ID,
		SerialNumber:  unit.SerialNumber,
		ToLocationID:  req.LocationID,
		Type:          entity.TxTypeReceipt,
		Quantity:      decimal.NewFromInt(1),
		UnitCost:      decimal.NewFromFloat(req.PurchaseCost),
		ReferenceType: "REGISTER",
		ReferenceID:   unit.ID,
		CreatedBy:     userID,
	}
	if err := s.unitRepo.CreateWithMovement(ctx, unit, movement); err != nil {
		return nil, err
	}

	return unit, nil
}

// Get 查询单件
func (s *UnitService) Get(ctx context.Context, id string) (*entity.SerializedUnit, error) {
	return s.unitRepo.FindByID(ctx, id)
}

// GetBySerial 根据序列号查询单件
func (s *UnitService) GetBySerial(ctx context.Context, serial string) (*entity.SerializedUnit, error) {
	return s.unitRepo.FindBySerial(ctx, serial)
}

// List 查询单件列表
func (s *UnitService) List(ctx context.Context, params repository.UnitListParams) ([]entity.SerializedUnit, int64, error) {
	return s.unitRepo.List(ctx, params)
}

// TransitionStatus 单件状态迁移，严格按状态机执行。
// disposed 为终态；retired/disposed 的行保留作历史，不删除。
func (s *UnitService) TransitionStatus(ctx context.Context, unitID, newStatus string) (*entity.SerializedUnit, error) {
	if !entity.ValidUnitStatus(newStatus) {
		return nil, fmt.Errorf("无效的单件状态 %q", newStatus)
	}

	unit, err := s.unitRepo.FindByID(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if !entity.CanTransition(unit.Status, newStatus) {
		return nil, &entity.InvalidStatusTransitionError{
			UnitID:       unit.ID,
			SerialNumber: unit.SerialNumber,
			From:         unit.Status,
			To:           newStatus,
		}
	}

	if err := s.unitRepo.UpdateStatus(ctx, unitID, newStatus); err != nil {
		return nil, fmt.Errorf("更新单件状态失败: %w", err)
	}
	unit.Status = newStatus
	return unit, nil
}

// RelocateUnit 单件移库。只改字段，序列化单件不进库位数量台账。
func (s *UnitService) RelocateUnit(ctx context.Context, unitID, locationID string) (*entity.SerializedUnit, error) {
	unit, err := s.unitRepo.FindByID(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if _, err := s.locRepo.FindByID(ctx, locationID); err != nil {
		return nil, fmt.Errorf("目标地点不存在: %w", err)
	}

	if err := s.unitRepo.UpdateLocation(ctx, unitID, locationID); err != nil {
		return nil, fmt.Errorf("更新单件地点失败: %w", err)
	}
	unit.LocationID = locationID
	return unit, nil
}

// UpdateCondition 更新单件成色与保养日期
func (s *UnitService) UpdateCondition(ctx context.Context, unitID, condition string, lastService, nextService *time.Time) (*entity.SerializedUnit, error) {
	if !entity.ValidUnitCondition(condition) {
		return nil, fmt.Errorf("无效的成色 %q", condition)
	}

	unit, err := s.unitRepo.FindByID(ctx, unitID)
	if err != nil {
		return nil, err
	}

	unit.Condition = condition
	if lastService != nil {
		unit.LastServiceDate = lastService
	}
	if nextService != nil {
		unit.NextServiceDate = nextService
	}
	if err := s.unitRepo.Update(ctx, unit); err != nil {
		return nil, fmt.Errorf("更新单件失败: %w", err)
	}
	return unit, nil
}
