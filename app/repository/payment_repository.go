package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/notarius-app/notarius/app/models"
)

// paymentRepository implements PaymentRepository using GORM
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(record *models.PaymentRecord) error {
	return r.db.Create(record).Error
}

func (r *paymentRepository) GetByID(id uint) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	if err := r.db.First(&record, id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *paymentRepository) GetByProviderPaymentID(provider, providerPaymentID string) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	err := r.db.Where("provider = ? AND provider_payment_id = ?", provider, providerPaymentID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *paymentRepository) Update(record *models.PaymentRecord) error {
	return r.db.Save(record).Error
}

func (r *paymentRepository) ListByProviderAndStatus(provider, status string, updatedBefore time.Time) ([]models.PaymentRecord, error) {
	var records []models.PaymentRecord
	err := r.db.
		Where("provider = ? AND status = ? AND updated_at < ?", provider, status, updatedBefore).
		Order("id ASC").
		Find(&records).Error
	return records, err
}
