package gormstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propgraph/propgraph/pkg/errs"
)

// Repository is the per-collection access path. It is bound to whatever
// handle it is built with, so constructing one on a transaction keeps every
// call inside that transaction.
type Repository[T any] struct {
	db     *gorm.DB
	entity string
}

func NewRepository[T any](db *gorm.DB, entity string) *Repository[T] {
	return &Repository[T]{db: db, entity: entity}
}

func (r *Repository[T]) Create(ctx context.Context, item *T) error {
	return r.translate(r.db.WithContext(ctx).Create(item).Error, "")
}

func (r *Repository[T]) GetByID(ctx context.Context, id uuid.UUID) (*T, error) {
	var item T
	err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if err != nil {
		return nil, r.translate(err, id.String())
	}
	return &item, nil
}

func (r *Repository[T]) Save(ctx context.Context, item *T) error {
	return r.translate(r.db.WithContext(ctx).Save(item).Error, "")
}

func (r *Repository[T]) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.ExistsWhere(ctx, "id = ?", id)
}

func (r *Repository[T]) ExistsWhere(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(new(T)).Where(query, args...).Limit(1).Count(&count).Error
	return count > 0, err
}

// CreateBatch inserts items in statements of chunk rows. All chunks share one
// transaction, so a failure leaves none of items stored.
func (r *Repository[T]) CreateBatch(ctx context.Context, items []*T, chunk int) error {
	if len(items) == 0 {
		return nil
	}
	if chunk <= 0 {
		chunk = 500
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.translate(tx.CreateInBatches(items, chunk).Error, "")
	})
}

func (r *Repository[T]) translate(err error, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errs.NotFound(r.entity, id)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", r.entity, errs.ErrConflict)
	default:
		return err
	}
}
