package repository

import (
	"gorm.io/gorm"

	"github.com/notarius-app/notarius/app/models"
)

// recordRepository implements RecordRepository using GORM
type recordRepository struct {
	db *gorm.DB
}

// NewRecordRepository creates a new record repository instance
func NewRecordRepository(db *gorm.DB) RecordRepository {
	return &recordRepository{db: db}
}

func (r *recordRepository) GetByID(id uint) (*models.Record, error) {
	var record models.Record
	if err := r.db.First(&record, id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *recordRepository) Update(record *models.Record) error {
	return r.db.Save(record).Error
}
