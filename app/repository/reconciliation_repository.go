package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/notarius-app/notarius/app/models"
)

// reconciliationRepository implements ReconciliationRepository using GORM
type reconciliationRepository struct {
	db *gorm.DB
}

// NewReconciliationRepository creates a new reconciliation repository instance
func NewReconciliationRepository(db *gorm.DB) ReconciliationRepository {
	return &reconciliationRepository{db: db}
}

func (r *reconciliationRepository) CreateRun(run *models.ReconciliationRun) error {
	return r.db.Create(run).Error
}

func (r *reconciliationRepository) UpdateRun(run *models.ReconciliationRun) error {
	return r.db.Save(run).Error
}

func (r *reconciliationRepository) GetRunByID(id uint) (*models.ReconciliationRun, error) {
	var run models.ReconciliationRun
	if err := r.db.First(&run, id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *reconciliationRepository) ListRuns(offset, limit int) ([]models.ReconciliationRun, error) {
	var runs []models.ReconciliationRun
	err := r.db.Order("id DESC").Offset(offset).Limit(limit).Find(&runs).Error
	return runs, err
}

func (r *reconciliationRepository) AddItem(item *models.ReconciliationItem) error {
	return r.db.Create(item).Error
}

func (r *reconciliationRepository) ListItems(runID uint) ([]models.ReconciliationItem, error) {
	var items []models.ReconciliationItem
	err := r.db.Where("run_id = ?", runID).Order("id ASC").Find(&items).Error
	return items, err
}

func (r *reconciliationRepository) GetCursor(provider string) (*models.ProviderCursor, error) {
	var cursor models.ProviderCursor
	err := r.db.Where("provider = ?", provider).First(&cursor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.ProviderCursor{Provider: provider}, nil
	}
	if err != nil {
		return nil, err
	}
	return &cursor, nil
}

func (r *reconciliationRepository) SaveCursor(cursor *models.ProviderCursor) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "provider"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"cursor",
			"last_reconciled_at",
			"updated_at",
		}),
	}).Create(cursor).Error
}
