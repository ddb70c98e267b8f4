package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/billing"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/infrastructure/persistence/models"
)

// GormPaymentApplicationRepository implements billing.PaymentApplicationRepository using GORM
type GormPaymentApplicationRepository struct {
	db *gorm.DB
}

// NewGormPaymentApplicationRepository creates a new GormPaymentApplicationRepository
func NewGormPaymentApplicationRepository(db *gorm.DB) *GormPaymentApplicationRepository {
	return &GormPaymentApplicationRepository{db: db}
}

// FindByID finds an application by ID for a tenant
func (r *GormPaymentApplicationRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*billing.PaymentApplication, error) {
	var model models.PaymentApplicationModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByPayment finds active applications funded by a payment
func (r *GormPaymentApplicationRepository) FindActiveByPayment(ctx context.Context, tenantID, paymentID uuid.UUID) ([]*billing.PaymentApplication, error) {
	var appModels []models.PaymentApplicationModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("tenant_id = ? AND payment_id = ? AND is_active = ?", tenantID, paymentID, true).
		Order("applied_at ASC").
		Find(&appModels).Error; err != nil {
		return nil, err
	}
	return toDomainApplications(appModels), nil
}

// FindActiveByInvoice finds active applications against an invoice
func (r *GormPaymentApplicationRepository) FindActiveByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]*billing.PaymentApplication, error) {
	var appModels []models.PaymentApplicationModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("tenant_id = ? AND invoice_id = ? AND is_active = ?", tenantID, invoiceID, true).
		Order("applied_at ASC").
		Find(&appModels).Error; err != nil {
		return nil, err
	}
	return toDomainApplications(appModels), nil
}

// CountActiveByInvoice counts active applications against an invoice
func (r *GormPaymentApplicationRepository) CountActiveByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (int64, error) {
	var count int64
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.PaymentApplicationModel{}).
		Where("tenant_id = ? AND invoice_id = ? AND is_active = ?", tenantID, invoiceID, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates a new application
func (r *GormPaymentApplicationRepository) Save(ctx context.Context, app *billing.PaymentApplication) error {
	model := models.PaymentApplicationModelFromDomain(app)
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(model).Error
}

// Update saves changes to an existing application
func (r *GormPaymentApplicationRepository) Update(ctx context.Context, app *billing.PaymentApplication) error {
	model := models.PaymentApplicationModelFromDomain(app)
	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(model).
		Where("id = ?", app.ID).
		Select("*").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toDomainApplications(appModels []models.PaymentApplicationModel) []*billing.PaymentApplication {
	apps := make([]*billing.PaymentApplication, len(appModels))
	for i := range appModels {
		apps[i] = appModels[i].ToDomain()
	}
	return apps
}

// Ensure GormPaymentApplicationRepository implements PaymentApplicationRepository
var _ billing.PaymentApplicationRepository = (*GormPaymentApplicationRepository)(nil)
