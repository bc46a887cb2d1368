package repository

import (
	"context"
	"errors"
	"time"

	"github.com/buildhub/sitestock/internal/hire/entity"
	"gorm.io/gorm"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// BookingRepository 租赁单数据访问
type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// WithTx 返回绑定到指定事务的仓库副本
func (r *BookingRepository) WithTx(tx *gorm.DB) *BookingRepository {
	return &BookingRepository{db: tx}
}

func (r *BookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *BookingRepository) FindByID(ctx context.Context, id string) (*entity.Booking, error) {
	var booking entity.Booking
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &booking, nil
}

// BookingListParams 租赁单列表查询参数
type BookingListParams struct {
	ProjectID string
	ItemID    string
	Status    string
	Overdue   bool
	Page      int
	PageSize  int
}

func (r *BookingRepository) List(ctx context.Context, params BookingListParams) ([]entity.Booking, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Booking{})

	if params.ProjectID != "" {
		query = query.Where("project_id = ?", params.ProjectID)
	}
	if params.ItemID != "" {
		query = query.Where("item_id = ?", params.ItemID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Overdue {
		query = query.Where("status = ? AND due_date IS NOT NULL AND due_date < ?",
			entity.BookingStatusOut, time.Now())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var bookings []entity.Booking
	offset := (params.Page - 1) * params.PageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(params.PageSize).Find(&bookings).Error
	return bookings, total, err
}

func (r *BookingRepository) Update(ctx context.Context, booking *entity.Booking) error {
	return r.db.WithContext(ctx).Save(booking).Error
}
