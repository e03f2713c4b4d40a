// Package classes is the payout subsystem's read access to class contracts.
// The batch job and trigger adapters use it to resolve pricing and routing;
// class mutation lives outside this service.
package classes

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veltaedu/velta-backend/pkg/db/models"
	"github.com/veltaedu/velta-backend/pkg/enums"
)

// Repository reads class contracts. FindByID returns (nil, nil) when the class
// does not exist.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Class, error)
	ListActiveByStrategy(ctx context.Context, strategy enums.ClassPaymentStrategy) ([]models.Class, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a class repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Class, error) {
	var class models.Class
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&class).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &class, nil
}

func (r *repository) ListActiveByStrategy(ctx context.Context, strategy enums.ClassPaymentStrategy) ([]models.Class, error) {
	var rows []models.Class
	if err := r.db.WithContext(ctx).
		Where("status = ? AND payment_strategy = ?", enums.ClassStatusActive, strategy).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
