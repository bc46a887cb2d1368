package entity

import "time"

// AttachmentOwner 附件归属对象类型
const (
	AttachmentOwnerItem = "item"
	AttachmentOwnerUnit = "unit"
)

// Attachment 物资/单件附件（照片、合格证、说明书等）。
// 文件本体存对象存储，这里只落 bucket 内路径。
type Attachment struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	OwnerType   string    `json:"owner_type" gorm:"size:16;not null;index:idx_attachment_owner,priority:1"`
	OwnerID     string    `json:"owner_id" gorm:"size:36;not null;index:idx_attachment_owner,priority:2"`
	FileName    string    `json:"file_name" gorm:"size:255;not null"`
	FilePath    string    `json:"file_path" gorm:"size:500;not null"`
	ContentType string    `json:"content_type" gorm:"size:100"`
	FileSize    int64     `json:"file_size" gorm:"default:0"`
	UploadedBy  string    `json:"uploaded_by" gorm:"size:36"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Attachment) TableName() string {
	return "stock_attachments"
}
