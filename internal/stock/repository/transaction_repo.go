package repository

import (
	"context"
	"time"

	"github.com/buildhub/sitestock/internal/stock/entity"
	"gorm.io/gorm"
)

// TransactionRepository 库存流水仓库（只追加）
type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// WithTx 返回绑定到指定事务的仓库副本
func (r *TransactionRepository) WithTx(tx *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: tx}
}

// Create 追加流水
func (r *TransactionRepository) Create(ctx context.Context, tx *entity.StockTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// TransactionListParams 流水查询参数
type TransactionListParams struct {
	ItemID      string
	LocationID  string
	Type        string
	ReferenceID string
	From        *time.Time
	To          *time.Time
	Page        int
	PageSize    int
}

// List 查询流水列表
func (r *TransactionRepository) List(ctx context.Context, params TransactionListParams) ([]entity.StockTransaction, int64, error) {
	var txs []entity.StockTransaction
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.StockTransaction{})

	if params.ItemID != "" {
		query = query.Where("item_id = ?", params.ItemID)
	}
	if params.LocationID != "" {
		query = query.Where("from_location_id = ? OR to_location_id = ?", params.LocationID, params.LocationID)
	}
	if params.Type != "" {
		query = query.Where("type = ?", params.Type)
	}
	if params.ReferenceID != "" {
		query = query.Where("reference_id = ?", params.ReferenceID)
	}
	if params.From != nil {
		query = query.Where("created_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("created_at < ?", *params.To)
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
		Order("created_at DESC").
		Offset((params.Page - 1) * params.PageSize).
		Limit(params.PageSize).
		Find(&txs).Error

	return txs, total, err
}
