package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TrackingMode 物资跟踪方式
const (
	TrackingModeSerialized = "serialized" // 按序列号逐件跟踪
	TrackingModeBulk       = "bulk"       // 按数量跟踪
)

// ValidTrackingMode 校验跟踪方式取值
func ValidTrackingMode(mode string) bool {
	return mode == TrackingModeSerialized || mode == TrackingModeBulk
}

// Item 物资档案
//
// TrackingMode 在创建时确定；一旦存在单件台账、库位数量或库存流水，
// 不允许再修改（否则历史数量的含义会被破坏）。
type Item struct {
	ID              string          `json:"id" gorm:"primaryKey;size:36"`
	Code            string          `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Name            string          `json:"name" gorm:"size:128;not null"`
	Category        string          `json:"category" gorm:"size:64;index"`
	TrackingMode    string          `json:"tracking_mode" gorm:"size:16;not null"`
	Unit            string          `json:"unit" gorm:"size:16;not null;default:pcs"`
	UnitCost        decimal.Decimal `json:"unit_cost" gorm:"type:decimal(20,4);default:0"`
	ReplacementCost decimal.Decimal `json:"replacement_cost" gorm:"type:decimal(20,4);default:0"`
	ReorderLevel    decimal.Decimal `json:"reorder_level" gorm:"type:decimal(20,4);default:0"`
	ReorderQty      decimal.Decimal `json:"reorder_qty" gorm:"type:decimal(20,4);default:0"`
	Active          bool            `json:"active" gorm:"not null;default:true"`
	Notes           string          `json:"notes" gorm:"type:text"`
	CreatedBy       string          `json:"created_by" gorm:"size:36"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (Item) TableName() string {
	return "stock_items"
}

// IsSerialized 是否按序列号跟踪
func (i *Item) IsSerialized() bool {
	return i.TrackingMode == TrackingModeSerialized
}

// IsBulk 是否按数量跟踪
func (i *Item) IsBulk() bool {
	return i.TrackingMode == TrackingModeBulk
}
