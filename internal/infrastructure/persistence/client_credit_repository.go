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

// GormClientCreditRepository implements billing.ClientCreditRepository using GORM
type GormClientCreditRepository struct {
	db *gorm.DB
}

// NewGormClientCreditRepository creates a new GormClientCreditRepository
func NewGormClientCreditRepository(db *gorm.DB) *GormClientCreditRepository {
	return &GormClientCreditRepository{db: db}
}

// FindByID finds a credit by ID for a tenant
func (r *GormClientCreditRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*billing.ClientCredit, error) {
	var model models.ClientCreditModel
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

// FindUsableByClient finds active credits with available balance, oldest first
func (r *GormClientCreditRepository) FindUsableByClient(ctx context.Context, tenantID, clientID uuid.UUID) ([]*billing.ClientCredit, error) {
	var creditModels []models.ClientCreditModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("tenant_id = ? AND client_id = ? AND status = ? AND available_amount > 0",
			tenantID, clientID, billing.CreditStatusActive).
		Order("created_at ASC").
		Find(&creditModels).Error; err != nil {
		return nil, err
	}
	credits := make([]*billing.ClientCredit, len(creditModels))
	for i := range creditModels {
		credits[i] = creditModels[i].ToDomain()
	}
	return credits, nil
}

// List returns credits matching the filter with pagination
func (r *GormClientCreditRepository) List(ctx context.Context, tenantID uuid.UUID, filter billing.CreditFilter) (shared.Paginated[*billing.ClientCredit], error) {
	db := dbFromContext(ctx, r.db)
	filtered := func() *gorm.DB {
		query := db.WithContext(ctx).Model(&models.ClientCreditModel{}).
			Where("tenant_id = ?", tenantID)
		if filter.ClientID != nil {
			query = query.Where("client_id = ?", *filter.ClientID)
		}
		if filter.Status != nil {
			query = query.Where("status = ?", *filter.Status)
		}
		return query
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return shared.Paginated[*billing.ClientCredit]{}, err
	}

	page, pageSize := normalizePage(filter.Filter)
	filter.Page, filter.PageSize = page, pageSize

	var creditModels []models.ClientCreditModel
	if err := applyPageAndOrder(filtered(), filter.Filter).Find(&creditModels).Error; err != nil {
		return shared.Paginated[*billing.ClientCredit]{}, err
	}

	credits := make([]*billing.ClientCredit, len(creditModels))
	for i := range creditModels {
		credits[i] = creditModels[i].ToDomain()
	}
	return shared.NewPaginated(credits, total, page, pageSize), nil
}

// Save creates a new credit
func (r *GormClientCreditRepository) Save(ctx context.Context, credit *billing.ClientCredit) error {
	model := models.ClientCreditModelFromDomain(credit)
	if err := dbFromContext(ctx, r.db).WithContext(ctx).Save(model).Error; err != nil {
		return err
	}
	credit.MarkPersisted()
	return nil
}

// SaveWithLock saves with optimistic locking against the hydrated version
func (r *GormClientCreditRepository) SaveWithLock(ctx context.Context, credit *billing.ClientCredit) error {
	model := models.ClientCreditModelFromDomain(credit)
	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", credit.ID, credit.PersistedVersion()).
		Select("*").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	credit.MarkPersisted()
	return nil
}

// Ensure GormClientCreditRepository implements ClientCreditRepository
var _ billing.ClientCreditRepository = (*GormClientCreditRepository)(nil)
