package service

import (
	"context"
	"fmt"
	"time"

	"github.com/buildhub/sitestock/internal/hire/entity"
	"github.com/buildhub/sitestock/internal/hire/repository"
	projectrepo "github.com/buildhub/sitestock/internal/project/repository"
	stockentity "github.com/buildhub/sitestock/internal/stock/entity"
	stockrepo "github.com/buildhub/sitestock/internal/stock/repository"
	stocksvc "github.com/buildhub/sitestock/internal/stock/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BookingService 租赁/领用业务逻辑。
// 散装物资：预留占用可用量，发出扣减在库并释放占用，归还加回在库；
// 序列化单件：发出时单件状态迁移到 on_hire，归还迁回 available，
// 每次实物移动同步写一条库存流水。
// 租赁单写入和对应的台账变更在同一个数据库事务内提交，
// 不会出现有预留无租赁单、或库存已动而单据状态未变的半截状态。
type BookingService struct {
	db          *gorm.DB
	bookingRepo *repository.BookingRepository
	projectRepo *projectrepo.ProjectRepository
	itemRepo    *stockrepo.ItemRepository
	txRepo      *stockrepo.TransactionRepository
	movementSvc *stocksvc.MovementService
	unitSvc     *stocksvc.UnitService
}

func NewBookingService(
	db *gorm.DB,
	bookingRepo *repository.BookingRepository,
	projectRepo *projectrepo.ProjectRepository,
	itemRepo *stockrepo.ItemRepository,
	txRepo *stockrepo.TransactionRepository,
	movementSvc *stocksvc.MovementService,
	unitSvc *stocksvc.UnitService,
) *BookingService {
	return &BookingService{
		db:          db,
		bookingRepo: bookingRepo,
		projectRepo: projectRepo,
		itemRepo:    itemRepo,
		txRepo:      txRepo,
		movementSvc: movementSvc,
		unitSvc:     unitSvc,
	}
}

// CreateBookingRequest 创建租赁单请求
type CreateBookingRequest struct {
	ProjectID  string          `json:"project_id" binding:"required"`
	ItemID     string          `json:"item_id" binding:"required"`
	UnitID     string          `json:"unit_id"`
	LocationID string          `json:"location_id" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity"`
	StartDate  *time.Time      `json:"start_date"`
	DueDate    *time.Time      `json:"due_date"`
	Notes      string          `json:"notes"`
}

// Create 创建租赁单并预留库存。
// 散装物资增加占用量（可用量不足则失败）；序列化单件校验其当前可用。
func (s *BookingService) Create(ctx context.Context, req CreateBookingRequest, userID string) (*entity.Booking, error) {
	if _, err := s.projectRepo.FindByID(ctx, req.ProjectID); err != nil {
		return nil, fmt.Errorf("项目不存在: %w", err)
	}
	item, err := s.itemRepo.FindByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}

	booking := &entity.Booking{
		ID:         uuid.New().String(),
		ProjectID:  req.ProjectID,
		ItemID:     req.ItemID,
		LocationID: req.LocationID,
		Status:     entity.BookingStatusReserved,
		StartDate:  req.StartDate,
		DueDate:    req.DueDate,
		Notes:      req.Notes,
		CreatedBy:  userID,
	}

	if item.IsSerialized() {
		if req.UnitID == "" {
			return nil, fmt.Errorf("序列化物资租赁必须指定单件")
		}
		unit, err := s.unitSvc.Get(ctx, req.UnitID)
		if err != nil {
			return nil, err
		}
		if unit.ItemID != item.ID {
			return nil, fmt.Errorf("单件 %s 不属于物资 %s", unit.SerialNumber, item.Code)
		}
		if unit.Status != stockentity.UnitStatusAvailable {
			return nil, fmt.Errorf("单件 %s 当前状态 %s 不可租出", unit.SerialNumber, unit.Status)
		}
		booking.UnitID = unit.ID
		booking.Quantity = decimal.NewFromInt(1)

		if err := s.bookingRepo.Create(ctx, booking); err != nil {
			return nil, fmt.Errorf("创建租赁单失败: %w", err)
		}
		return booking, nil
	}

	if !req.Quantity.IsPositive() {
		return nil, fmt.Errorf("租赁数量必须大于0")
	}
	booking.Quantity = req.Quantity

	// 预留：占用量增加，可用量不足即报 NegativeQuantityError。
	// 租赁单与预留同事务提交，预留失败时单据一并回滚
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.bookingRepo.WithTx(tx).Create(ctx, booking); err != nil {
			return fmt.Errorf("创建租赁单失败: %w", err)
		}
		_, err := s.movementSvc.WithTx(tx).ApplyMovement(ctx, stocksvc.MovementRequest{
			ItemID:         req.ItemID,
			LocationID:     req.LocationID,
			DeltaAllocated: req.Quantity,
			Type:           stockentity.TxTypeAdjust,
			ReferenceType:  "BOOKING",
			ReferenceID:    booking.ID,
			Notes:          "租赁预留",
		}, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *BookingService) Get(ctx context.Context, id string) (*entity.Booking, error) {
	return s.bookingRepo.FindByID(ctx, id)
}

func (s *BookingService) List(ctx context.Context, params repository.BookingListParams) ([]entity.Booking, int64, error) {
	return s.bookingRepo.List(ctx, params)
}

// Dispatch 发出。散装：扣减在库并释放预留；序列化：单件迁移到 on_hire。
func (s *BookingService) Dispatch(ctx context.Context, id, userID string) (*entity.Booking, error) {
	booking, err := s.bookingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !entity.CanTransition(booking.Status, entity.BookingStatusOut) {
		return nil, &entity.InvalidBookingStateError{BookingID: booking.ID, Status: booking.Status, Action: "发出"}
	}

	now := time.Now()
	booking.Status = entity.BookingStatusOut
	booking.DispatchedAt = &now
	booking.UpdatedAt = now

	// 实物移动和单据状态变更同事务提交
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if booking.UnitID != "" {
			unit, err := s.unitSvc.WithTx(tx).TransitionStatus(ctx, booking.UnitID, stockentity.UnitStatusOnHire)
			if err != nil {
				return err
			}
			movement := &stockentity.StockTransaction{
				ID:             uuid.New().String(),
				ItemID:         booking.ItemID,
				SerialNumber:   unit.SerialNumber,
				FromLocationID: booking.LocationID,
				Type:           stockentity.TxTypeHireOut,
				Quantity:       decimal.NewFromInt(1).Neg(),
				ReferenceType:  "BOOKING",
				ReferenceID:    booking.ID,
				CreatedBy:      userID,
			}
			if err := s.txRepo.WithTx(tx).Create(ctx, movement); err != nil {
				return fmt.Errorf("写入库存流水失败: %w", err)
			}
		} else {
			_, err := s.movementSvc.WithTx(tx).ApplyMovement(ctx, stocksvc.MovementRequest{
				ItemID:         booking.ItemID,
				LocationID:     booking.LocationID,
				DeltaOnHand:    booking.Quantity.Neg(),
				DeltaAllocated: booking.Quantity.Neg(),
				Type:           stockentity.TxTypeHireOut,
				ReferenceType:  "BOOKING",
				ReferenceID:    booking.ID,
			}, userID)
			if err != nil {
				return err
			}
		}

		if err := s.bookingRepo.WithTx(tx).Update(ctx, booking); err != nil {
			return fmt.Errorf("更新租赁单失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// ReturnBookingRequest 归还请求
type ReturnBookingRequest struct {
	Condition string `json:"condition"` // 归还时的成色，仅序列化单件有效
	Notes     string `json:"notes"`
}

// Return 归还。散装：在库加回；序列化：单件迁回 available。
func (s *BookingService) Return(ctx context.Context, id string, req ReturnBookingRequest, userID string) (*entity.Booking, error) {
	booking, err := s.bookingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !entity.CanTransition(booking.Status, entity.BookingStatusReturned) {
		return nil, &entity.InvalidBookingStateError{BookingID: booking.ID, Status: booking.Status, Action: "归还"}
	}

	now := time.Now()
	booking.Status = entity.BookingStatusReturned
	booking.ReturnedAt = &now
	booking.UpdatedAt = now

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if booking.UnitID != "" {
			unitSvc := s.unitSvc.WithTx(tx)
			unit, err := unitSvc.TransitionStatus(ctx, booking.UnitID, stockentity.UnitStatusAvailable)
			if err != nil {
				return err
			}
			if req.Condition != "" {
				if _, err := unitSvc.UpdateCondition(ctx, booking.UnitID, req.Condition, nil, nil); err != nil {
					return err
				}
			}
			movement := &stockentity.StockTransaction{
				ID:            uuid.New().String(),
				ItemID:        booking.ItemID,
				SerialNumber:  unit.SerialNumber,
				ToLocationID:  booking.LocationID,
				Type:          stockentity.TxTypeHireReturn,
				Quantity:      decimal.NewFromInt(1),
				ReferenceType: "BOOKING",
				ReferenceID:   booking.ID,
				Notes:         req.Notes,
				CreatedBy:     userID,
			}
			if err := s.txRepo.WithTx(tx).Create(ctx, movement); err != nil {
				return fmt.Errorf("写入库存流水失败: %w", err)
			}
		} else {
			_, err := s.movementSvc.WithTx(tx).ApplyMovement(ctx, stocksvc.MovementRequest{
				ItemID:        booking.ItemID,
				LocationID:    booking.LocationID,
				DeltaOnHand:   booking.Quantity,
				Type:          stockentity.TxTypeHireReturn,
				ReferenceType: "BOOKING",
				ReferenceID:   booking.ID,
				Notes:         req.Notes,
			}, userID)
			if err != nil {
				return err
			}
		}

		if err := s.bookingRepo.WithTx(tx).Update(ctx, booking); err != nil {
			return fmt.Errorf("更新租赁单失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// Cancel 取消预留。散装物资释放占用量。
func (s *BookingService) Cancel(ctx context.Context, id, userID string) (*entity.Booking, error) {
	booking, err := s.bookingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !entity.CanTransition(booking.Status, entity.BookingStatusCancelled) {
		return nil, &entity.InvalidBookingStateError{BookingID: booking.ID, Status: booking.Status, Action: "取消"}
	}

	booking.Status = entity.BookingStatusCancelled
	booking.UpdatedAt = time.Now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if booking.UnitID == "" {
			_, err := s.movementSvc.WithTx(tx).ApplyMovement(ctx, stocksvc.MovementRequest{
				ItemID:         booking.ItemID,
				LocationID:     booking.LocationID,
				DeltaAllocated: booking.Quantity.Neg(),
				Type:           stockentity.TxTypeAdjust,
				ReferenceType:  "BOOKING",
				ReferenceID:    booking.ID,
				Notes:          "取消预留",
			}, userID)
			if err != nil {
				return err
			}
		}
		if err := s.bookingRepo.WithTx(tx).Update(ctx, booking); err != nil {
			return fmt.Errorf("更新租赁单失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}
