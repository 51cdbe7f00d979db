// Package catalog validates and stores single records: create, fetch and
// partial update for every collection.
package catalog

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/propgraph/propgraph/pkg/errs"
	"github.com/propgraph/propgraph/pkg/model"
	"github.com/propgraph/propgraph/pkg/store/gormstore"
)

// Record is the pointer side of an entity type.
type Record[T any] interface {
	*T
	Meta() *model.Base
	Normalize()
	Validate() error
}

// Collection applies one entity's rules around the shared create, get and
// update flow.
type Collection[T any, P Record[T]] struct {
	db     *gorm.DB
	entity string
	// claim prepares a new record: stamps the owner and clears fields that
	// only the system may set.
	claim func(item P, userID string)
	// keep copies fields a patch must not change from the stored record.
	keep func(dst, stored P)
	// checks enforce references and uniqueness against tx.
	checks []func(ctx context.Context, tx *gorm.DB, item P) error
	// updated carries an accepted patch over to dependent records, inside
	// the update transaction.
	updated func(ctx context.Context, tx *gorm.DB, stored, item P) error
	logger  *zap.Logger
}

func (c *Collection[T, P]) Create(ctx context.Context, item P, userID string) (P, error) {
	*item.Meta() = model.Base{}
	c.claim(item, userID)
	item.Normalize()
	if err := item.Validate(); err != nil {
		return nil, err
	}

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := c.check(ctx, tx, item); err != nil {
			return err
		}
		return gormstore.NewRepository[T](tx, c.entity).Create(ctx, (*T)(item))
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("Record created", zap.String("entity", c.entity), zap.String("id", item.Meta().ID.String()))
	return item, nil
}

func (c *Collection[T, P]) Get(ctx context.Context, id uuid.UUID) (P, error) {
	item, err := gormstore.NewRepository[T](c.db, c.entity).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return P(item), nil
}

// Update merges a JSON patch onto the stored record. Keys absent from the
// patch keep their stored values; storage-owned fields never change.
func (c *Collection[T, P]) Update(ctx context.Context, id uuid.UUID, patch json.RawMessage) (P, error) {
	var updated P
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored := P(new(T))
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First((*T)(stored), "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound(c.entity, id.String())
		}
		if err != nil {
			return err
		}

		item, err := merge[T, P](stored, patch)
		if err != nil {
			return err
		}
		*item.Meta() = *stored.Meta()
		c.keep(item, stored)

		item.Normalize()
		if err := item.Validate(); err != nil {
			return err
		}
		if err := c.check(ctx, tx, item); err != nil {
			return err
		}
		if err := gormstore.NewRepository[T](tx, c.entity).Save(ctx, (*T)(item)); err != nil {
			return err
		}
		if c.updated != nil {
			if err := c.updated(ctx, tx, stored, item); err != nil {
				return err
			}
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("Record updated", zap.String("entity", c.entity), zap.String("id", id.String()))
	return updated, nil
}

// merge applies patch to a deep copy of stored so list fields of stored stay
// intact for keep.
func merge[T any, P Record[T]](stored P, patch json.RawMessage) (P, error) {
	base, err := json.Marshal(stored)
	if err != nil {
		return nil, err
	}
	item := P(new(T))
	if err := json.Unmarshal(base, (*T)(item)); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(patch, (*T)(item)); err != nil {
		return nil, errs.Invalid("", "malformed patch: %v", err)
	}
	return item, nil
}

func (c *Collection[T, P]) check(ctx context.Context, tx *gorm.DB, item P) error {
	for _, check := range c.checks {
		if err := check(ctx, tx, item); err != nil {
			return err
		}
	}
	return nil
}

// unique fails with a conflict when another record matches where.
func unique[T any](tx *gorm.DB, entity, field, value string, self uuid.UUID, where string, args ...interface{}) error {
	if self != uuid.Nil {
		where = "(" + where + ") AND id <> ?"
		args = append(args, self)
	}
	found, err := gormstore.NewRepository[T](tx, entity).ExistsWhere(tx.Statement.Context, where, args...)
	if err != nil {
		return err
	}
	if found {
		return errs.Conflict(entity, field, value)
	}
	return nil
}

// exists fails validation when the referenced record is missing.
func exists[T any](tx *gorm.DB, field, entity string, id uuid.UUID) error {
	found, err := gormstore.NewRepository[T](tx, entity).Exists(tx.Statement.Context, id)
	if err != nil {
		return err
	}
	if !found {
		return errs.Invalid(field, "no %s with id %s", entity, id)
	}
	return nil
}
