package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/notarius-app/notarius/app/models"
)

// jobRepository implements JobRepository using GORM
type jobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new job repository instance
func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) EnqueueIfAbsent(job *models.Job) (bool, *models.Job, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "type"},
			{Name: "idempotency_key"},
		},
		DoNothing: true,
	}).Create(job)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.Job
	if err := r.db.Where("type = ? AND idempotency_key = ?", job.Type, job.IdempotencyKey).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

// ClaimPending is the compare-and-swap that gives one worker exclusive
// ownership of a job: a single conditional update filtered on the expected
// prior status. Zero rows affected means another worker won the claim.
func (r *jobRepository) ClaimPending(id uint) (bool, error) {
	tx := r.db.Model(&models.Job{}).
		Where("id = ? AND status = ?", id, models.JobStatusPending).
		Updates(map[string]interface{}{
			"status":     models.JobStatusProcessing,
			"updated_at": time.Now(),
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *jobRepository) DuePending(now time.Time, limit int) ([]models.Job, error) {
	var jobs []models.Job
	err := r.db.
		Where("status = ? AND next_run_at <= ?", models.JobStatusPending, now).
		Order("next_run_at ASC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

func (r *jobRepository) GetByID(id uint) (*models.Job, error) {
	var job models.Job
	if err := r.db.First(&job, id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepository) Update(job *models.Job) error {
	if job.ID == 0 {
		return errors.New("job id is required")
	}
	return r.db.Save(job).Error
}

func (r *jobRepository) CountByStatus() (map[models.JobStatus]int64, error) {
	type row struct {
		Status models.JobStatus
		Count  int64
	}
	var rows []row
	err := r.db.Model(&models.Job{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[models.JobStatus]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Status] = rw.Count
	}
	return counts, nil
}
