package repository

import (
	"context"
	"errors"

	"github.com/buildhub/sitestock/internal/stock/entity"
	"gorm.io/gorm"
)

// ItemRepository 物资档案仓库
type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// WithTx 返回绑定到指定事务的仓库副本
func (r *ItemRepository) WithTx(tx *gorm.DB) *ItemRepository {
	return &ItemRepository{db: tx}
}

// Create 创建物资。编码冲突由唯一索引兜底，
// 转换为 DuplicateCodeError 返回（并发下预查可能同时通过）。
func (r *ItemRepository) Create(ctx context.Context, item *entity.Item) error {
	err := r.db.WithContext(ctx).Create(item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &entity.DuplicateCodeError{Code: item.Code}
		}
		return err
	}
	return nil
}

// FindByID 根据ID查找物资
func (r *ItemRepository) FindByID(ctx context.Context, id string) (*entity.Item, error) {
	var item entity.Item
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindByCode 根据编码查找物资
func (r *ItemRepository) FindByCode(ctx context.Context, code string) (*entity.Item, error) {
	var item entity.Item
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// ItemListParams 物资列表查询参数
type ItemListParams struct {
	Search       string
	Category     string
	TrackingMode string
	ActiveOnly   bool
	Page         int
	PageSize     int
}

// List 查询物资列表
func (r *ItemRepository) List(ctx context.Context, params ItemListParams) ([]entity.Item, int64, error) {
	var items []entity.Item
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Item{})

	if params.Search != "" {
		kw := "%" + params.Search + "%"
		query = query.Where("code ILIKE ? OR name ILIKE ?", kw, kw)
	}
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}
	if params.TrackingMode != "" {
		query = query.Where("tracking_mode = ?", params.TrackingMode)
	}
	if params.ActiveOnly {
		query = query.Where("active = true")
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
		Order("code ASC").
		Offset((params.Page - 1) * params.PageSize).
		Limit(params.PageSize).
		Find(&items).Error

	return items, total, err
}

// Update 更新物资
func (r *ItemRepository) Update(ctx context.Context, item *entity.Item) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// SetActive 启用/停用物资，不级联删除任何台账
func (r *ItemRepository) SetActive(ctx context.Context, id string, active bool) error {
	result := r.db.WithContext(ctx).
		Model(&entity.Item{}).
		Where("id = ?", id).
		Update("active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTrackingMode 修改跟踪方式（调用方必须先通过 HasLedgerReferences 检查）
func (r *ItemRepository) UpdateTrackingMode(ctx context.Context, id, mode string) error {
	result := r.db.WithContext(ctx).
		Model(&entity.Item{}).
		Where("id = ?", id).
		Update("tracking_mode", mode)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// HasLedgerReferences 判断物资是否已被任一台账或流水引用。
// 单件台账、库位数量、库存流水任意一处有记录即视为已锁定。
func (r *ItemRepository) HasLedgerReferences(ctx context.Context, itemID string) (bool, error) {
	var count int64

	if err := r.db.WithContext(ctx).Model(&entity.SerializedUnit{}).
		Where("item_id = ?", itemID).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}

	if err := r.db.WithContext(ctx).Model(&entity.LocationQuantity{}).
		Where("item_id = ?", itemID).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}

	if err := r.db.WithContext(ctx).Model(&entity.StockTransaction{}).
		Where("item_id = ?", itemID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
