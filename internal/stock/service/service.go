package service

import (
	"github.com/buildhub/sitestock/internal/stock/repository"
	"github.com/minio/minio-go/v7"
)

// Services 库存域服务集合
type Services struct {
	Item       *ItemService
	Unit       *UnitService
	Movement   *MovementService
	Quantity   *QuantityService
	Export     *ExportService
	Attachment *AttachmentService
}

// NewServices 创建库存域服务集合
func NewServices(repos *repository.Repositories, minioClient *minio.Client, bucket string) *Services {
	quantity := NewQuantityService(repos.Item, repos.Unit, repos.Quantity)
	return &Services{
		Item:       NewItemService(repos.Item),
		Unit:       NewUnitService(repos.Item, repos.Unit, repos.Location, repos.Transaction),
		Movement:   NewMovementService(repos.Item, repos.Quantity, repos.Location, repos.Transaction),
		Quantity:   quantity,
		Export:     NewExportService(repos.Item, quantity),
		Attachment: NewAttachmentService(repos.Attachment, minioClient, bucket),
	}
}
