package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BookingStatus 租赁/领用单状态
const (
	BookingStatusReserved  = "reserved"  // 已预留
	BookingStatusOut       = "out"       // 已发出
	BookingStatusReturned  = "returned"  // 已归还
	BookingStatusCancelled = "cancelled" // 已取消
)

// Booking 设备租赁/工地领用单。
// 散装物资按数量预留可用库存；序列化单件在发出时锁定具体序列号。
type Booking struct {
	ID           string          `json:"id" gorm:"primaryKey;size:36"`
	ProjectID    string          `json:"project_id" gorm:"size:36;not null;index"`
	ItemID       string          `json:"item_id" gorm:"size:36;not null;index"`
	UnitID       string          `json:"unit_id" gorm:"size:36;index"`
	LocationID   string          `json:"location_id" gorm:"size:36;not null"`
	Quantity     decimal.Decimal `json:"quantity" gorm:"type:decimal(20,4);not null;default:0"`
	Status       string          `json:"status" gorm:"size:20;not null;default:reserved"`
	StartDate    *time.Time      `json:"start_date"`
	DueDate      *time.Time      `json:"due_date"`
	DispatchedAt *time.Time      `json:"dispatched_at"`
	ReturnedAt   *time.Time      `json:"returned_at"`
	Notes        string          `json:"notes" gorm:"type:text"`
	CreatedBy    string          `json:"created_by" gorm:"size:36"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (Booking) TableName() string {
	return "hire_bookings"
}

// bookingTransitions 单据状态机
var bookingTransitions = map[string][]string{
	BookingStatusReserved: {BookingStatusOut, BookingStatusCancelled},
	BookingStatusOut:      {BookingStatusReturned},
}

// CanTransition 校验单据状态迁移
func CanTransition(from, to string) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// InvalidBookingStateError 单据状态不允许当前操作
type InvalidBookingStateError struct {
	BookingID string
	Status    string
	Action    string
}

func (e *InvalidBookingStateError) Error() string {
	return fmt.Sprintf("单据 %s 当前状态 %s 不允许执行 %s", e.BookingID, e.Status, e.Action)
}
