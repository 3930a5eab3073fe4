package repository

import (
	"excel_interviewer_backend/internal/model"

	"gorm.io/gorm"
)

type InterviewRepository struct {
	DB *gorm.DB
}

func NewInterviewRepository(db *gorm.DB) *InterviewRepository {
	return &InterviewRepository{DB: db}
}

func (r *InterviewRepository) Create(interview *model.Interview) error {
	return r.DB.Create(interview).Error
}

func (r *InterviewRepository) FindBySessionID(sessionID string) (*model.Interview, error) {
	var iv model.Interview
	err := r.DB.Where("session_id = ?", sessionID).First(&iv).Error
	if err != nil {
		return nil, err
	}
	return &iv, nil
}

func (r *InterviewRepository) Update(interview *model.Interview) error {
	return r.DB.Save(interview).Error
}

func (r *InterviewRepository) List(page, limit int) ([]model.Interview, int64, error) {
	var ivs []model.Interview
	var total int64
	query := r.DB.Model(&model.Interview{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&ivs).Error
	return ivs, total, err
}

func (r *InterviewRepository) CreateResponse(resp *model.InterviewResponse) error {
	return r.DB.Create(resp).Error
}

func (r *InterviewRepository) ListResponses(interviewID uint) ([]model.InterviewResponse, error) {
	var resps []model.InterviewResponse
	err := r.DB.Where("interview_id = ?", interviewID).Order("created_at asc, id asc").Find(&resps).Error
	return resps, err
}

func (r *InterviewRepository) CountResponses(interviewID uint) (int64, error) {
	var n int64
	err := r.DB.Model(&model.InterviewResponse{}).Where("interview_id = ?", interviewID).Count(&n).Error
	return n, err
}

func (r *InterviewRepository) CreateEvaluation(ev *model.Evaluation) error {
	return r.DB.Create(ev).Error
}

func (r *InterviewRepository) FindEvaluation(interviewID uint) (*model.Evaluation, error) {
	var ev model.Evaluation
	err := r.DB.Where("interview_id = ?", interviewID).First(&ev).Error
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// Delete purges the interview with its responses and evaluation in one
// transaction. The rows are hard-deleted: a purged session must not be
// recoverable through the soft-delete scope.
func (r *InterviewRepository) Delete(interviewID uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("interview_id = ?", interviewID).Delete(&model.InterviewResponse{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("interview_id = ?", interviewID).Delete(&model.Evaluation{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&model.Interview{}, interviewID).Error
	})
}
