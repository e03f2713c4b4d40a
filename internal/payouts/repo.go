package payouts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/veltaedu/velta-backend/pkg/db/models"
	"github.com/veltaedu/velta-backend/pkg/enums"
	"github.com/veltaedu/velta-backend/pkg/pagination"
)

// Repository manages persistence for payout records. Lookups return (nil, nil)
// when no row matches; the service layer decides whether that is an error.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.PayoutRecord, error)
	// FindByIDForUpdate takes a row lock so concurrent installments against the
	// same record serialize instead of both reading a stale total.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.PayoutRecord, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*models.PayoutRecord, error)
	FindClassPayout(ctx context.Context, classID uuid.UUID, teacherID *uuid.UUID) (*models.PayoutRecord, error)
	FindMonthPayout(ctx context.Context, teacherID, classID uuid.UUID, month, year int) (*models.PayoutRecord, error)
	Create(ctx context.Context, record *models.PayoutRecord) error
	Save(ctx context.Context, record *models.PayoutRecord) error
	List(ctx context.Context, query ListQuery) ([]models.PayoutRecord, *pagination.Cursor, error)
	ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]models.PayoutRecord, error)
}

// ListQuery filters the paginated payout listing.
type ListQuery struct {
	TeacherID *uuid.UUID
	ClassID   *uuid.UUID
	Status    *enums.PayoutStatus
	UnitType  *enums.PayoutUnitType
	Page      pagination.Params
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payout repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PayoutRecord, error) {
	var record models.PayoutRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	return oneOrNil(&record, err)
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.PayoutRecord, error) {
	var record models.PayoutRecord
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&record).Error
	return oneOrNil(&record, err)
}

func (r *repository) FindByIdempotencyKey(ctx context.Context, key string) (*models.PayoutRecord, error) {
	var record models.PayoutRecord
	err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&record).Error
	return oneOrNil(&record, err)
}

func (r *repository) FindClassPayout(ctx context.Context, classID uuid.UUID, teacherID *uuid.UUID) (*models.PayoutRecord, error) {
	query := r.db.WithContext(ctx).
		Where("class_id = ? AND unit_type = ?", classID, enums.PayoutUnitTypeClass)
	if teacherID != nil {
		query = query.Where("teacher_id = ?", *teacherID)
	}
	var record models.PayoutRecord
	err := query.Order("created_at ASC").First(&record).Error
	return oneOrNil(&record, err)
}

func (r *repository) FindMonthPayout(ctx context.Context, teacherID, classID uuid.UUID, month, year int) (*models.PayoutRecord, error) {
	var record models.PayoutRecord
	err := r.db.WithContext(ctx).
		Where("teacher_id = ? AND class_id = ? AND month = ? AND year = ? AND unit_type = ?",
			teacherID, classID, month, year, enums.PayoutUnitTypeMonth).
		First(&record).Error
	return oneOrNil(&record, err)
}

func (r *repository) Create(ctx context.Context, record *models.PayoutRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) Save(ctx context.Context, record *models.PayoutRecord) error {
	record.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *repository) List(ctx context.Context, query ListQuery) ([]models.PayoutRecord, *pagination.Cursor, error) {
	db := r.db.WithContext(ctx).Model(&models.PayoutRecord{})
	if query.TeacherID != nil {
		db = db.Where("teacher_id = ?", *query.TeacherID)
	}
	if query.ClassID != nil {
		db = db.Where("class_id = ?", *query.ClassID)
	}
	if query.Status != nil {
		db = db.Where("status = ?", *query.Status)
	}
	if query.UnitType != nil {
		db = db.Where("unit_type = ?", *query.UnitType)
	}

	cursor, err := pagination.ParseCursor(query.Page.Cursor)
	if err != nil {
		return nil, nil, err
	}
	if cursor != nil {
		db = db.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	limit := pagination.NormalizeLimit(query.Page.Limit)
	var rows []models.PayoutRecord
	if err := db.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(query.Page.Limit)).
		Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	var next *pagination.Cursor
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return rows, next, nil
}

func (r *repository) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]models.PayoutRecord, error) {
	var rows []models.PayoutRecord
	if err := r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func oneOrNil(record *models.PayoutRecord, err error) (*models.PayoutRecord, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}
