// Package assignment keeps a development's customers list and the
// customer's assigned list in step.
package assignment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/propgraph/propgraph/pkg/errs"
	"github.com/propgraph/propgraph/pkg/metrics"
	"github.com/propgraph/propgraph/pkg/model"
)

// Link reports which sides an operation changed. Both false means the
// relation was already in the requested state.
type Link struct {
	EntityID        uuid.UUID        `json:"entityId"`
	EntityKind      model.EntityKind `json:"entityKind"`
	CustomerID      uuid.UUID        `json:"customerId"`
	EntityChanged   bool             `json:"entityChanged"`
	CustomerChanged bool             `json:"customerChanged"`
}

type Linker struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewLinker(db *gorm.DB, logger *zap.Logger) *Linker {
	return &Linker{db: db, logger: logger}
}

// AddCustomer links customerID to the entity on both sides. Calling it again
// changes nothing.
func (l *Linker) AddCustomer(ctx context.Context, kind model.EntityKind, entityID, customerID uuid.UUID) (*Link, error) {
	return l.apply(ctx, "add", kind, entityID, customerID, func(entity model.Assignable, customer *model.Customer, link *Link) {
		if !model.ContainsID(entity.CustomerIDs(), customerID) {
			entity.SetCustomerIDs(append(entity.CustomerIDs(), customerID))
			link.EntityChanged = true
		}
		link.CustomerChanged = customer.AddAssignment(entity)
	})
}

// RemoveCustomer unlinks customerID from the entity on both sides. A side
// that is already unlinked is left alone.
func (l *Linker) RemoveCustomer(ctx context.Context, kind model.EntityKind, entityID, customerID uuid.UUID) (*Link, error) {
	return l.apply(ctx, "remove", kind, entityID, customerID, func(entity model.Assignable, customer *model.Customer, link *Link) {
		if ids, removed := model.RemoveID(entity.CustomerIDs(), customerID); removed {
			entity.SetCustomerIDs(ids)
			link.EntityChanged = true
		}
		link.CustomerChanged = customer.RemoveAssignment(entityID, kind)
	})
}

func (l *Linker) apply(
	ctx context.Context,
	operation string,
	kind model.EntityKind,
	entityID, customerID uuid.UUID,
	mutate func(entity model.Assignable, customer *model.Customer, link *Link),
) (*Link, error) {
	entity, err := newEntity(kind)
	if err != nil {
		return nil, err
	}
	link := &Link{EntityID: entityID, EntityKind: kind, CustomerID: customerID}

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Session(&gorm.Session{})
		if err := first(locked, entity, string(kind), entityID); err != nil {
			return err
		}
		var customer model.Customer
		if err := first(locked, &customer, "customer", customerID); err != nil {
			return err
		}

		mutate(entity, &customer, link)

		if link.EntityChanged {
			ids := datatypes.JSONSlice[uuid.UUID](entity.CustomerIDs())
			if err := tx.Model(entity).Update("customers", ids).Error; err != nil {
				return err
			}
		}
		if link.CustomerChanged {
			if err := tx.Model(&customer).Update("assigned", customer.Assigned).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.AssignmentChangesTotal.WithLabelValues(string(kind), operation).Inc()
	l.logger.Debug("Customer assignment applied",
		zap.String("operation", operation),
		zap.String("entity_kind", string(kind)),
		zap.String("entity_id", entityID.String()),
		zap.String("customer_id", customerID.String()),
		zap.Bool("entity_changed", link.EntityChanged),
		zap.Bool("customer_changed", link.CustomerChanged),
	)
	return link, nil
}

func newEntity(kind model.EntityKind) (model.Assignable, error) {
	switch kind {
	case model.KindMasterDevelopment:
		return &model.MasterDevelopment{}, nil
	case model.KindSubDevelopment:
		return &model.SubDevelopment{}, nil
	}
	return nil, errs.Invalid("entityKind", "%q is not one of: %s, %s", kind, model.KindMasterDevelopment, model.KindSubDevelopment)
}

func first(tx *gorm.DB, dest interface{}, entity string, id uuid.UUID) error {
	err := tx.First(dest, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NotFound(entity, id.String())
	}
	return err
}
