package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/buildhub/sitestock/internal/stock/entity"
	"github.com/buildhub/sitestock/internal/stock/repository"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// AttachmentService 附件服务。文件本体存 MinIO，库里只落路径。
type AttachmentService struct {
	repo        *repository.AttachmentRepository
	minioClient *minio.Client
	bucket      string
}

func NewAttachmentService(repo *repository.AttachmentRepository, minioClient *minio.Client, bucket string) *AttachmentService {
	return &AttachmentService{
		repo:        repo,
		minioClient: minioClient,
		bucket:      bucket,
	}
}

// Upload 上传附件并落库
func (s *AttachmentService) Upload(ctx context.Context, ownerType, ownerID, fileName, contentType string, reader io.Reader, size int64, userID string) (*entity.Attachment, error) {
	if ownerType != entity.AttachmentOwnerItem && ownerType != entity.AttachmentOwnerUnit {
		return nil, fmt.Errorf("无效的附件归属类型 %q", ownerType)
	}
	if s.minioClient == nil {
		return nil, fmt.Errorf("对象存储未配置")
	}

	id := uuid.New().String()
	objectName := fmt.Sprintf("attachments/%s/%s/%s%s", ownerType, ownerID, id, filepath.Ext(fileName))

	_, err := s.minioClient.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("上传文件失败: %w", err)
	}

	attachment := &entity.Attachment{
		ID:          id,
		OwnerType:   ownerType,
		OwnerID:     ownerID,
		FileName:    fileName,
		FilePath:    objectName,
		ContentType: contentType,
		FileSize:    size,
		UploadedBy:  userID,
	}
	if err := s.repo.Create(ctx, attachment); err != nil {
		return nil, fmt.Errorf("保存附件记录失败: %w", err)
	}
	return attachment, nil
}

// ListByOwner 查询某对象的附件列表
func (s *AttachmentService) ListByOwner(ctx context.Context, ownerType, ownerID string) ([]entity.Attachment, error) {
	return s.repo.ListByOwner(ctx, ownerType, ownerID)
}

// Download 取附件内容流，调用方负责 Close
func (s *AttachmentService) Download(ctx context.Context, id string) (*entity.Attachment, io.ReadCloser, error) {
	attachment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if s.minioClient == nil {
		return nil, nil, fmt.Errorf("对象存储未配置")
	}

	object, err := s.minioClient.GetObject(ctx, s.bucket, attachment.FilePath, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("读取文件失败: %w", err)
	}
	return attachment, object, nil
}

// Delete 删除附件记录与对象
func (s *AttachmentService) Delete(ctx context.Context, id string) error {
	attachment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if s.minioClient != nil {
		if err := s.minioClient.RemoveObject(ctx, s.bucket, attachment.FilePath, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("删除文件失败: %w", err)
		}
	}
	return s.repo.Delete(ctx, id)
}
