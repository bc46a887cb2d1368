package repository

import (
	"context"
	"errors"

	"github.com/buildhub/sitestock/internal/stock/entity"
	"gorm.io/gorm"
)

// LocationRepository 库存地点仓库
type LocationRepository struct {
	db *gorm.DB
}

func NewLocationRepository(db *gorm.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// WithTx 返回绑定到指定事务的仓库副本
func (r *LocationRepository) WithTx(tx *gorm.DB) *LocationRepository {
	return &LocationRepository{db: tx}
}

// Create 创建地点
func (r *LocationRepository) Create(ctx context.Context, location *entity.Location) error {
	return r.db.WithContext(ctx).Create(location).Error
}

// FindByID 根据ID查找地点
func (r *LocationRepository) FindByID(ctx context.Context, id string) (*entity.Location, error) {
	var location entity.Location
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&location).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &location, nil
}

// List 查询地点列表
func (r *LocationRepository) List(ctx context.Context, locationType string, activeOnly bool) ([]entity.Location, error) {
	var locations []entity.Location

	query := r.db.WithContext(ctx).Model(&entity.Location{})
	if locationType != "" {
		query = query.Where("type = ?", locationType)
	}
	if activeOnly {
		query = query.Where("active = true")
	}

	err := query.Order("code ASC").Find(&locations).Error
	return locations, err
}

// Update 更新地点
func (r *LocationRepository) Update(ctx context.Context, location *entity.Location) error {
	return r.db.WithContext(ctx).Save(location).Error
}
