package repository

import (
	"context"
	"errors"
	"time"

	"github.com/buildhub/sitestock/internal/stock/entity"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuantityRepository 库位数量台账仓库。
// 所有写路径都在数据库事务内对 (item_id, location_id) 行加 FOR UPDATE 锁，
// 避免并发出入库丢失更新。
type QuantityRepository struct {
	db *gorm.DB
}

func NewQuantityRepository(db *gorm.DB) *QuantityRepository {
	return &QuantityRepository{db: db}
}

// WithTx 返回绑定到指定事务的仓库副本。
// 内部的 Transaction 调用在已有事务上降级为 SAVEPOINT。
func (r *QuantityRepository) WithTx(tx *gorm.DB) *QuantityRepository {
	return &QuantityRepository{db: tx}
}

// lockRow 锁定 (item, location) 行；不存在时惰性创建零行再锁。
func lockRow(tx *gorm.DB, itemID, locationID string) (*entity.LocationQuantity, error) {
	var row entity.LocationQuantity
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("item_id = ? AND location_id = ?", itemID, locationID).
		First(&row).Error
	if err == nil {
		return &row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	row = entity.LocationQuantity{
		ID:                uuid.New().String(),
		ItemID:            itemID,
		LocationID:        locationID,
		QuantityOnHand:    decimal.Zero,
		QuantityAvailable: decimal.Zero,
		QuantityAllocated: decimal.Zero,
		QuantityOnOrder:   decimal.Zero,
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return nil, err
	}

	// 并发时行可能刚被其他事务创建，重新加锁读取
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("item_id = ? AND location_id = ?", itemID, locationID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ApplyDelta 原子地对 (item, location) 行应用在库/预留增量，
// 重算可用数量并校验非负；movement 不为空时在同一事务内落流水。
// 校验失败整个事务回滚，台账行保持原值。
func (r *QuantityRepository) ApplyDelta(ctx context.Context, itemID, locationID string, deltaOnHand, deltaAllocated decimal.Decimal, movement *entity.StockTransaction) (*entity.LocationQuantity, error) {
	var out *entity.LocationQuantity
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockRow(tx, itemID, locationID)
		if err != nil {
			return err
		}
		if err := row.ApplyDelta(deltaOnHand, deltaAllocated); err != nil {
			return err
		}
		if err := tx.Save(row).Error; err != nil {
			return err
		}
		if movement != nil {
			if err := tx.Create(movement).Error; err != nil {
				return err
			}
		}
		out = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Transfer 地点间调拨：同一事务内扣减来源行、增加目标行。
// 按地点ID排序加锁，两个方向的并发调拨不会互相死锁。
func (r *QuantityRepository) Transfer(ctx context.Context, itemID, fromLocationID, toLocationID string, qty decimal.Decimal, movement *entity.StockTransaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		first, second := fromLocationID, toLocationID
		if second < first {
			first, second = second, first
		}

		rows := map[string]*entity.LocationQuantity{}
		for _, locID := range []string{first, second} {
			row, err := lockRow(tx, itemID, locID)
			if err != nil {
				return err
			}
			rows[locID] = row
		}

		if err := rows[fromLocationID].ApplyDelta(qty.Neg(), decimal.Zero); err != nil {
			return err
		}
		if err := rows[toLocationID].ApplyDelta(qty, decimal.Zero); err != nil {
			return err
		}

		for _, row := range rows {
			if err := tx.Save(row).Error; err != nil {
				return err
			}
		}
		if movement != nil {
			if err := tx.Create(movement).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SetOnHand 盘点落账：把在库数改为实盘数，返回盘盈盘亏差异。
// 实盘数小于预留数会让可用数变负，同样拒绝。
func (r *QuantityRepository) SetOnHand(ctx context.Context, itemID, locationID string, observed decimal.Decimal, movement *entity.StockTransaction) (decimal.Decimal, error) {
	var variance decimal.Decimal
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockRow(tx, itemID, locationID)
		if err != nil {
			return err
		}

		variance = observed.Sub(row.QuantityOnHand)
		if err := row.ApplyDelta(variance, decimal.Zero); err != nil {
			return err
		}

		now := time.Now()
		row.LastCountedAt = &now
		if err := tx.Save(row).Error; err != nil {
			return err
		}
		if movement != nil {
			movement.Quantity = variance
			if err := tx.Create(movement).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return variance, nil
}

// QuantitySums 某物资跨所有地点的数量汇总
type QuantitySums struct {
	OnHand    decimal.Decimal
	Available decimal.Decimal
	Allocated decimal.Decimal
}

// SumsByItem 汇总某物资所有地点的在库/可用/预留数量
func (r *QuantityRepository) SumsByItem(ctx context.Context, itemID string) (*QuantitySums, error) {
	var result struct {
		OnHand    decimal.Decimal
		Available decimal.Decimal
		Allocated decimal.Decimal
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COALESCE(SUM(quantity_on_hand), 0) AS on_hand,
			COALESCE(SUM(quantity_available), 0) AS available,
			COALESCE(SUM(quantity_allocated), 0) AS allocated
		FROM stock_location_quantities
		WHERE item_id = ?
	`, itemID).Scan(&result).Error
	if err != nil {
		return nil, err
	}
	return &QuantitySums{
		OnHand:    result.OnHand,
		Available: result.Available,
		Allocated: result.Allocated,
	}, nil
}

// ListByItem 某物资所有地点的数量行
func (r *QuantityRepository) ListByItem(ctx context.Context, itemID string) ([]entity.LocationQuantity, error) {
	var rows []entity.LocationQuantity
	err := r.db.WithContext(ctx).
		Preload("Location").
		Where("item_id = ?", itemID).
		Order("location_id ASC").
		Find(&rows).Error
	return rows, err
}

// GetByItemAndLocation 某物资在某地点的数量行
func (r *QuantityRepository) GetByItemAndLocation(ctx context.Context, itemID, locationID string) (*entity.LocationQuantity, error) {
	var row entity.LocationQuantity
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND location_id = ?", itemID, locationID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

// LowStockAlert 低库存预警行
type LowStockAlert struct {
	ItemID       string          `json:"item_id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
	ReorderQty   decimal.Decimal `json:"reorder_qty"`
	Available    decimal.Decimal `json:"available"`
}

// LowStock 可用数量低于补货线的散装物资
func (r *QuantityRepository) LowStock(ctx context.Context) ([]LowStockAlert, error) {
	var alerts []LowStockAlert
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			i.id AS item_id,
			i.code,
			i.name,
			i.reorder_level,
			i.reorder_qty,
			COALESCE(SUM(q.quantity_available), 0) AS available
		FROM stock_items i
		LEFT JOIN stock_location_quantities q ON q.item_id = i.id
		WHERE i.tracking_mode = ? AND i.active = true AND i.reorder_level > 0
		GROUP BY i.id, i.code, i.name, i.reorder_level, i.reorder_qty
		HAVING COALESCE(SUM(q.quantity_available), 0) < i.reorder_level
		ORDER BY i.code
	`, entity.TrackingModeBulk).Scan(&alerts).Error
	return alerts, err
}
