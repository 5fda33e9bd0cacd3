package public

import (
	"path/filepath"
	"strconv"
	"strings"

	handlershared "github.com/betteragri-next/internal/http/handlers/shared"
	"github.com/betteragri-next/internal/http/response"
	"github.com/betteragri-next/internal/repository"
	"github.com/betteragri-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CreateDiagnosis 上传病害图片并发起诊断
func (h *Handler) CreateDiagnosis(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		respondError(c, response.CodeBadRequest, "缺少图片文件", err)
		return
	}
	if h.Config.Upload.MaxSize > 0 && file.Size > h.Config.Upload.MaxSize {
		respondError(c, response.CodeBadRequest, "图片超过大小限制", nil)
		return
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !extensionAllowed(ext, h.Config.Upload.AllowedExtensions) {
		respondError(c, response.CodeBadRequest, "图片格式不支持", nil)
		return
	}

	savePath := filepath.Join(h.Config.Upload.Dir, "diagnosis", uuid.NewString()+ext)
	if err := c.SaveUploadedFile(file, savePath); err != nil {
		respondError(c, response.CodeInternal, "保存图片失败", err)
		return
	}

	image, err := file.Open()
	if err != nil {
		respondError(c, response.CodeInternal, "读取图片失败", err)
		return
	}
	defer image.Close()

	record, err := h.DiagnosisService.Diagnose(c.Request.Context(), service.DiagnoseInput{
		UserID:    uid,
		ImagePath: savePath,
		Filename:  file.Filename,
		Image:     image,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "诊断失败", err)
		return
	}

	response.Success(c, gin.H{"record": record})
}

// GetDiagnosis 查询诊断记录详情
func (h *Handler) GetDiagnosis(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	recordID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "记录ID无效", nil)
		return
	}

	record, getErr := h.DiagnosisService.Get(uid, uint(recordID))
	if getErr != nil {
		respondError(c, response.CodeNotFound, "诊断记录不存在", nil)
		return
	}

	response.Success(c, gin.H{"record": record})
}

// ListDiagnoses 诊断记录列表
func (h *Handler) ListDiagnoses(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	records, total, err := h.DiagnosisService.List(repository.DiagnosisListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Status:   c.Query("status"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "查询诊断记录失败", err)
		return
	}

	response.SuccessWithPage(c, gin.H{"records": records}, buildPagination(page, pageSize, total))
}

func extensionAllowed(ext string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if ext == strings.ToLower(a) {
			return true
		}
	}
	return false
}
