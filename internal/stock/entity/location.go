package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// LocationType 库存地点类型
const (
	LocationTypeWarehouse = "warehouse" // 仓库
	LocationTypeSite      = "site"      // 工地
	LocationTypeVehicle   = "vehicle"   // 工程车/工具车
)

// Location 库存地点
type Location struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Code      string    `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	Type      string    `json:"type" gorm:"size:20;not null;default:warehouse"`
	Address   string    `json:"address" gorm:"size:500"`
	Manager   string    `json:"manager" gorm:"size:36"`
	Active    bool      `json:"active" gorm:"not null;default:true"`
	Notes     string    `json:"notes" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Location) TableName() string {
	return "stock_locations"
}

// LocationQuantity 散装物资在某一地点的数量台账
//
// (item_id, location_id) 唯一；行在首次入库时惰性创建，数量归零后保留。
// QuantityAvailable = QuantityOnHand - QuantityAllocated 是应用层约定，
// 每次变更都在行锁内重算，不允许任何一项为负。
type LocationQuantity struct {
	ID                string          `json:"id" gorm:"primaryKey;size:36"`
	ItemID            string          `json:"item_id" gorm:"size:36;not null;uniqueIndex:idx_location_qty_item_location,priority:1"`
	LocationID        string          `json:"location_id" gorm:"size:36;not null;uniqueIndex:idx_location_qty_item_location,priority:2"`
	QuantityOnHand    decimal.Decimal `json:"quantity_on_hand" gorm:"type:decimal(20,4);not null;default:0"`
	QuantityAvailable decimal.Decimal `json:"quantity_available" gorm:"type:decimal(20,4);not null;default:0"`
	QuantityAllocated decimal.Decimal `json:"quantity_allocated" gorm:"type:decimal(20,4);not null;default:0"`
	QuantityOnOrder   decimal.Decimal `json:"quantity_on_order" gorm:"type:decimal(20,4);not null;default:0"`
	BinLabel          string          `json:"bin_label" gorm:"size:50"`
	LastCountedAt     *time.Time      `json:"last_counted_at"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`

	Item     *Item     `json:"item,omitempty" gorm:"foreignKey:ItemID"`
	Location *Location `json:"location,omitempty" gorm:"foreignKey:LocationID"`
}

func (LocationQuantity) TableName() string {
	return "stock_location_quantities"
}

// ApplyDelta 在内存中应用增量并重算可用数量。
// 在库或可用或预留任何一项变负时返回 NegativeQuantityError，且不修改原行。
func (q *LocationQuantity) ApplyDelta(deltaOnHand, deltaAllocated decimal.Decimal) error {
	onHand := q.QuantityOnHand.Add(deltaOnHand)
	allocated := q.QuantityAllocated.Add(deltaAllocated)
	available := onHand.Sub(allocated)

	if onHand.IsNegative() || allocated.IsNegative() || available.IsNegative() {
		return &NegativeQuantityError{
			ItemID:     q.ItemID,
			LocationID: q.LocationID,
			OnHand:     onHand,
			Allocated:  allocated,
			Available:  available,
		}
	}

	q.QuantityOnHand = onHand
	q.QuantityAllocated = allocated
	q.QuantityAvailable = available
	return nil
}
