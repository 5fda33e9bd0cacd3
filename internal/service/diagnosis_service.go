package service

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/betteragri-next/internal/constants"
	"github.com/betteragri-next/internal/diagnosis"
	"github.com/betteragri-next/internal/logger"
	"github.com/betteragri-next/internal/models"
	"github.com/betteragri-next/internal/repository"
)

// DiagnoseInput 病害诊断输入
type DiagnoseInput struct {
	UserID    uint
	ImagePath string
	Filename  string
	Image     io.Reader
}

// DiagnosisService 病害诊断服务。推理调用为旁路依赖，
// 失败时记录保留失败状态，不向上抛错。
type DiagnosisService struct {
	diagnosisRepo repository.DiagnosisRepository
	client        *diagnosis.Client
}

// NewDiagnosisService 创建诊断服务
func NewDiagnosisService(diagnosisRepo repository.DiagnosisRepository, client *diagnosis.Client) *DiagnosisService {
	return &DiagnosisService{
		diagnosisRepo: diagnosisRepo,
		client:        client,
	}
}

// Diagnose 提交图片诊断。记录先落库，再同步调用推理服务回填结果。
func (s *DiagnosisService) Diagnose(ctx context.Context, input DiagnoseInput) (*models.DiagnosisRecord, error) {
	if strings.TrimSpace(input.ImagePath) == "" || input.Image == nil {
		return nil, ErrDiagnosisImageMissing
	}

	now := time.Now()
	record := &models.DiagnosisRecord{
		UserID:    input.UserID,
		ImagePath: input.ImagePath,
		Status:    constants.DiagnosisStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.diagnosisRepo.Create(record); err != nil {
		return nil, err
	}

	result, err := s.client.Predict(ctx, input.Filename, input.Image)
	if err != nil {
		record.Status = constants.DiagnosisStatusFailed
		record.FailureReason = err.Error()
		record.UpdatedAt = time.Now()
		if updateErr := s.diagnosisRepo.Update(record); updateErr != nil {
			return nil, updateErr
		}
		logger.Warnw("diagnosis_predict_failed", "record_id", record.ID, "user_id", input.UserID, "error", err)
		return record, nil
	}

	record.CropName = result.CropName
	record.Disease = result.Disease
	record.Confidence = result.Confidence
	record.Recommendation = result.Recommendation
	record.Status = constants.DiagnosisStatusCompleted
	record.UpdatedAt = time.Now()
	if err := s.diagnosisRepo.Update(record); err != nil {
		return nil, err
	}
	logger.Infow("diagnosis_completed", "record_id", record.ID, "user_id", input.UserID, "disease", record.Disease)
	return record, nil
}

// Get 查询本人诊断记录
func (s *DiagnosisService) Get(userID, recordID uint) (*models.DiagnosisRecord, error) {
	record, err := s.diagnosisRepo.GetByIDAndUser(recordID, userID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrNotFound
	}
	return record, nil
}

// List 诊断记录列表
func (s *DiagnosisService) List(filter repository.DiagnosisListFilter) ([]models.DiagnosisRecord, int64, error) {
	return s.diagnosisRepo.List(filter)
}
