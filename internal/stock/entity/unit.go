package entity

import (
	"time"
)

// UnitStatus 单件状态
const (
	UnitStatusAvailable   = "available"   // 在库可用
	UnitStatusInUse       = "in_use"      // 内部使用中
	UnitStatusOnHire      = "on_hire"     // 租出
	UnitStatusMaintenance = "maintenance" // 维修保养中
	UnitStatusRetired     = "retired"     // 退役
	UnitStatusDisposed    = "disposed"    // 已处置（终态）
)

// UnitCondition 单件成色，从好到差
const (
	ConditionExcellent = "excellent"
	ConditionGood      = "good"
	ConditionFair      = "fair"
	ConditionPoor      = "poor"
	ConditionDamaged   = "damaged"
)

// unitStatusTransitions 状态机：key 为当前状态，value 为允许迁移到的状态。
// disposed 为终态，不在 map 中出现。
var unitStatusTransitions = map[string][]string{
	UnitStatusAvailable:   {UnitStatusInUse, UnitStatusOnHire, UnitStatusMaintenance, UnitStatusRetired},
	UnitStatusInUse:       {UnitStatusAvailable, UnitStatusMaintenance},
	UnitStatusOnHire:      {UnitStatusAvailable, UnitStatusMaintenance},
	UnitStatusMaintenance: {UnitStatusAvailable, UnitStatusRetired},
	UnitStatusRetired:     {UnitStatusDisposed},
}

// ValidUnitStatus 校验状态取值
func ValidUnitStatus(status string) bool {
	switch status {
	case UnitStatusAvailable, UnitStatusInUse, UnitStatusOnHire,
		UnitStatusMaintenance, UnitStatusRetired, UnitStatusDisposed:
		return true
	}
	return false
}

// ValidUnitCondition 校验成色取值
func ValidUnitCondition(condition string) bool {
	switch condition {
	case ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor, ConditionDamaged:
		return true
	}
	return false
}

// CanTransition 判断单件状态能否从 from 迁移到 to
func CanTransition(from, to string) bool {
	for _, next := range unitStatusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SerializedUnit 序列化单件台账
//
// 仅允许挂在 tracking_mode = serialized 的物资下；序列号全局唯一，
// 由数据库唯一索引兜底。retired / disposed 的行保留作历史审计，不删除。
type SerializedUnit struct {
	ID              string     `json:"id" gorm:"primaryKey;size:36"`
	ItemID          string     `json:"item_id" gorm:"size:36;not null;index"`
	SerialNumber    string     `json:"serial_number" gorm:"size:100;not null;uniqueIndex"`
	LocationID      string     `json:"location_id" gorm:"size:36;index"`
	Condition       string     `json:"condition" gorm:"size:16;not null;default:good"`
	Status          string     `json:"status" gorm:"size:16;not null;default:available;index"`
	PurchaseDate    *time.Time `json:"purchase_date"`
	PurchaseCost    float64    `json:"purchase_cost" gorm:"type:decimal(20,4);default:0"`
	WarrantyExpiry  *time.Time `json:"warranty_expiry"`
	LastServiceDate *time.Time `json:"last_service_date"`
	NextServiceDate *time.Time `json:"next_service_date"`
	Notes           string     `json:"notes" gorm:"type:text"`
	CreatedBy       string     `json:"created_by" gorm:"size:36"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Item     *Item     `json:"item,omitempty" gorm:"foreignKey:ItemID"`
	Location *Location `json:"location,omitempty" gorm:"foreignKey:LocationID"`
}

func (SerializedUnit) TableName() string {
	return "stock_serialized_units"
}
