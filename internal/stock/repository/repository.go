package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories 库存域仓库集合
type Repositories struct {
	Item        *ItemRepository
	Unit        *UnitRepository
	Quantity    *QuantityRepository
	Transaction *TransactionRepository
	Location    *LocationRepository
	Attachment  *AttachmentRepository
}

// NewRepositories 创建库存域仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Item:        NewItemRepository(db),
		Unit:        NewUnitRepository(db),
		Quantity:    NewQuantityRepository(db),
		Transaction: NewTransactionRepository(db),
		Location:    NewLocationRepository(db),
		Attachment:  NewAttachmentRepository(db),
	}
}
