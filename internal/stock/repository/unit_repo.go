package repository

import (
	"context"
	"errors"

	"github.com/buildhub/sitestock/internal/stock/entity"
	"gorm.io/gorm"
)

// UnitRepository 序列化单件台账仓库
type UnitRepository struct {
	db *gorm.DB
}

func NewUnitRepository(db *gorm.DB) *UnitRepository {
	return &UnitRepository{db: db}
}

// WithTx 返回绑定到指定事务的仓库副本
func (r *UnitRepository) WithTx(tx *gorm.DB) *UnitRepository {
	return &UnitRepository{db: tx}
}

// Create 登记单件。序列号冲突由唯一索引兜底，
// 转换为 DuplicateSerialError 返回（check-then-insert 有竞态，不能只靠预查）。
func (r *UnitRepository) Create(ctx context.Context, unit *entity.SerializedUnit) error {
	err := r.db.WithContext(ctx).Create(unit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &entity.DuplicateSerialError{SerialNumber: unit.SerialNumber}
		}
		return err
	}
	return nil
}

// CreateWithMovement 登记单件并写登记流水，两者在同一事务内落库
func (r *UnitRepository) CreateWithMovement(ctx context.Context, unit *entity.SerializedUnit, movement *entity.StockTransaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(unit).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &entity.DuplicateSerialError{SerialNumber: unit.SerialNumber}
			}
			return err
		}
		return tx.Create(movement).Error
	})
}

// FindByID 根据ID查找单件
func (r *UnitRepository) FindByID(ctx context.Context, id string) (*entity.SerializedUnit, error) {
	var unit entity.SerializedUnit
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&unit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &unit, nil
}

// FindBySerial 根据序列号查找单件
func (r *UnitRepository) FindBySerial(ctx context.Context, serial string) (*entity.SerializedUnit, error) {
	var unit entity.SerializedUnit
	err := r.db.WithContext(ctx).Where("serial_number = ?", serial).First(&unit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &unit, nil
}

// UnitListParams 单件列表查询参数
type UnitListParams struct {
	ItemID     string
	LocationID string
	Status     string
	Condition  string
	Search     string
	Page       int
	PageSize   int
}

// List 查询单件列表
func (r *UnitRepository) List(ctx context.Context, params UnitListParams) ([]entity.SerializedUnit, int64, error) {
	var units []entity.SerializedUnit
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.SerializedUnit{})

	if params.ItemID != "" {
		query = query.Where("item_id = ?", params.ItemID)
	}
	if params.LocationID != "" {
		query = query.Where("location_id = ?", params.LocationID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Condition != "" {
		query = query.Where("condition = ?", params.Condition)
	}
	if params.Search != "" {
		query = query.Where("serial_number ILIKE ?", "%"+params.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if params.Page <= 0 {
		params.Page = 1
	}
	if params.PageSize <= 0 {
		params.PageSize = 20
	}

	err := query.
		Preload("Item").
		Preload("Location").
		Order("serial_number ASC").
		Offset((params.Page - 1) * params.PageSize).
		Limit(params.PageSize).
		Find(&units).Error

	return units, total, err
}

// UpdateStatus 更新单件状态
func (r *UnitRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).
		Model(&entity.SerializedUnit{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// UpdateLocation 更新单件所在地点
func (r *UnitRepository) UpdateLocation(ctx context.Context, id, locationID string) error {
	return r.db.WithContext(ctx).
		Model(&entity.SerializedUnit{}).
		Where("id = ?", id).
		Update("location_id", locationID).Error
}

// Update 更新单件
func (r *UnitRepository) Update(ctx context.Context, unit *entity.SerializedUnit) error {
	return r.db.WithContext(ctx).Save(unit).Error
}

// UnitCounts 单件数量统计
type UnitCounts struct {
	Total     int64
	Available int64
	Allocated int64
}

// CountsByItem 统计某物资的单件数：总数、可用数（available）、
// 占用数（on_hire + in_use）。总数包含 retired / disposed 的历史行。
func (r *UnitRepository) CountsByItem(ctx context.Context, itemID string) (*UnitCounts, error) {
	var result struct {
		Total     int64
		Available int64
		Allocated int64
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = ?) AS available,
			COUNT(*) FILTER (WHERE status IN (?, ?)) AS allocated
		FROM stock_serialized_units
		WHERE item_id = ?
	`, entity.UnitStatusAvailable, entity.UnitStatusOnHire, entity.UnitStatusInUse, itemID).
		Scan(&result).Error
	if err != nil {
		return nil, err
	}
	return &UnitCounts{
		Total:     result.Total,
		Available: result.Available,
		Allocated: result.Allocated,
	}, nil
}
