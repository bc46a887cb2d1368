package entity

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// 业务校验错误。全部同步返回给调用方，不自动重试；
// 错误信息要能说清违反了哪条约束，便于前端直接展示。

// DuplicateCodeError 物资编码已存在
type DuplicateCodeError struct {
	Code string
}

func (e *DuplicateCodeError) Error() string {
	return fmt.Sprintf("物资编码 %s 已存在", e.Code)
}

// InvalidTrackingModeError 跟踪方式取值非法
type InvalidTrackingModeError struct {
	Mode string
}

func (e *InvalidTrackingModeError) Error() string {
	return fmt.Sprintf("无效的跟踪方式 %q，仅支持 serialized / bulk", e.Mode)
}

// DuplicateSerialError 序列号已被登记（全局唯一，跨物资）
type DuplicateSerialError struct {
	SerialNumber string
}

func (e *DuplicateSerialError) Error() string {
	return fmt.Sprintf("序列号 %s 已被登记，序列号全局唯一", e.SerialNumber)
}

// NotSerializedItemError 对按数量跟踪的物资做单件操作
type NotSerializedItemError struct {
	ItemID string
	Code   string
}

func (e *NotSerializedItemError) Error() string {
	return fmt.Sprintf("物资 %s 按数量跟踪，不能登记序列号单件", e.Code)
}

// NotBulkItemError 对按序列号跟踪的物资做数量出入库
type NotBulkItemError struct {
	ItemID string
	Code   string
}

func (e *NotBulkItemError) Error() string {
	return fmt.Sprintf("物资 %s 按序列号跟踪，不能按数量出入库", e.Code)
}

// TrackingModeLockedError 已有台账记录，跟踪方式不可修改
type TrackingModeLockedError struct {
	ItemID string
	Code   string
}

func (e *TrackingModeLockedError) Error() string {
	return fmt.Sprintf("物资 %s 已存在台账或流水记录，跟踪方式不可再修改", e.Code)
}

// NegativeQuantityError 变更会导致在库/可用/预留为负，台账未修改
type NegativeQuantityError struct {
	ItemID     string
	LocationID string
	OnHand     decimal.Decimal
	Allocated  decimal.Decimal
	Available  decimal.Decimal
}

func (e *NegativeQuantityError) Error() string {
	return fmt.Sprintf("库存不足：物资 %s 在地点 %s 变更后在库 %s、预留 %s、可用 %s，不允许为负",
		e.ItemID, e.LocationID, e.OnHand.String(), e.Allocated.String(), e.Available.String())
}

// InvalidStatusTransitionError 单件状态迁移不在状态机允许范围内
type InvalidStatusTransitionError struct {
	UnitID       string
	SerialNumber string
	From         string
	To           string
}

func (e *InvalidStatusTransitionError) Error() string {
	return fmt.Sprintf("单件 %s 状态不能从 %s 变更为 %s", e.SerialNumber, e.From, e.To)
}
