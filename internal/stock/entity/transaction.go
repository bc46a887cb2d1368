package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType 库存流水类型
const (
	TxTypeReceipt    = "RECEIPT"     // 采购/登记入库
	TxTypeIssue      = "ISSUE"       // 领用出库
	TxTypeReturn     = "RETURN"      // 归还入库
	TxTypeTransfer   = "TRANSFER"    // 地点调拨
	TxTypeAdjust     = "ADJUST"      // 数量调整/盘点
	TxTypeHireOut    = "HIRE_OUT"    // 租赁发出
	TxTypeHireReturn = "HIRE_RETURN" // 租赁归还
)

// StockTransaction 库存流水，只追加不修改。
//
// 流水是台账变更的审计依据，但数量计算永远只读两本台账
// （单件台账 / 库位数量台账），不从流水累加。
type StockTransaction struct {
	ID             string          `json:"id" gorm:"primaryKey;size:36"`
	ItemID         string          `json:"item_id" gorm:"size:36;not null;index"`
	SerialNumber   string          `json:"serial_number" gorm:"size:100"`
	FromLocationID string          `json:"from_location_id" gorm:"size:36;index"`
	ToLocationID   string          `json:"to_location_id" gorm:"size:36;index"`
	Type           string          `json:"type" gorm:"size:20;not null;index"`
	Quantity       decimal.Decimal `json:"quantity" gorm:"type:decimal(20,4);not null"` // 正=入，负=出
	UnitCost       decimal.Decimal `json:"unit_cost" gorm:"type:decimal(20,4);default:0"`
	ReferenceType  string          `json:"reference_type" gorm:"size:30"` // BOOKING, COUNT, MANUAL...
	ReferenceID    string          `json:"reference_id" gorm:"size:64;index"`
	Notes          string          `json:"notes" gorm:"type:text"`
	CreatedBy      string          `json:"created_by" gorm:"size:36;not null"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (StockTransaction) TableName() string {
	return "stock_transactions"
}
