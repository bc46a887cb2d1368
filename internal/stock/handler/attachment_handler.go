package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/buildhub/sitestock/internal/stock/service"
	"github.com/gin-gonic/gin"
)

// AttachmentHandler 附件接口
type AttachmentHandler struct {
	svc *service.AttachmentService
}

func NewAttachmentHandler(svc *service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{svc: svc}
}

// Upload 上传附件
// POST /attachments
func (h *AttachmentHandler) Upload(c *gin.Context) {
	ownerType := c.PostForm("owner_type")
	ownerID := c.PostForm("owner_id")
	if ownerType == "" || ownerID == "" {
		BadRequest(c, "参数错误: owner_type 和 owner_id 必填")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		BadRequest(c, "参数错误: 缺少上传文件")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	attachment, err := h.svc.Upload(c.Request.Context(), ownerType, ownerID,
		header.Filename, contentType, file, header.Size, GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, attachment)
}

// List 附件列表
// GET /attachments
func (h *AttachmentHandler) List(c *gin.Context) {
	ownerType := c.Query("owner_type")
	ownerID := c.Query("owner_id")
	if ownerType == "" || ownerID == "" {
		BadRequest(c, "参数错误: owner_type 和 owner_id 必填")
		return
	}

	attachments, err := h.svc.ListByOwner(c.Request.Context(), ownerType, ownerID)
	if err != nil {
		InternalError(c, "查询附件失败: "+err.Error())
		return
	}
	Success(c, attachments)
}

// Download 下载附件
// GET /attachments/:id/download
func (h *AttachmentHandler) Download(c *gin.Context) {
	attachment, reader, err := h.svc.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	defer reader.Close()

	contentType := attachment.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, attachment.FileName))
	if _, err := io.Copy(c.Writer, reader); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}

// Delete 删除附件
// DELETE /attachments/:id
func (h *AttachmentHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, nil)
}
