// Package cascade deletes an entity together with everything that exists
// only in relation to it. Each delete is a fixed sequence of steps run in
// one transaction; any failing step leaves storage untouched.
package cascade

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/propgraph/propgraph/pkg/errs"
	"github.com/propgraph/propgraph/pkg/metrics"
	"github.com/propgraph/propgraph/pkg/model"
)

const idChunk = 1000

// Result counts what a delete removed or detached.
type Result struct {
	Root              string    `json:"root"`
	ID                uuid.UUID `json:"id"`
	SubDevelopments   int64     `json:"subDevelopments"`
	Projects          int64     `json:"projects"`
	Inventory         int64     `json:"inventory"`
	CustomersDetached int       `json:"customersDetached"`
	EntitiesDetached  int       `json:"entitiesDetached"`
}

type Orchestrator struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewOrchestrator(db *gorm.DB, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{db: db, logger: logger}
}

// plan is the state threaded through the steps of one delete.
type plan struct {
	result     *Result
	subIDs     []uuid.UUID
	projectIDs []uuid.UUID
	// links holds the assignment entries to strip, by customer id.
	links map[uuid.UUID][]link
	root  interface{}
}

type link struct {
	id   uuid.UUID
	kind model.EntityKind
}

func (p *plan) detach(entity model.Assignable) {
	for _, customerID := range entity.CustomerIDs() {
		p.links[customerID] = append(p.links[customerID], link{id: entity.EntityID(), kind: entity.Kind()})
	}
}

type step struct {
	name string
	run  func(ctx context.Context, tx *gorm.DB, p *plan) error
}

// DeleteMasterDevelopment removes the master development, its sub
// developments, every project under either, their inventory, and the
// assignment entries customers hold for the removed developments.
func (o *Orchestrator) DeleteMasterDevelopment(ctx context.Context, id uuid.UUID) (*Result, error) {
	return o.execute(ctx, string(model.KindMasterDevelopment), id, []step{
		{"resolve", resolveMasterDevelopment},
		{"delete inventory", deleteInventory},
		{"delete projects", deleteProjects},
		{"delete sub developments", deleteSubDevelopments},
		{"detach customers", detachCustomers},
		{"delete root", deleteRoot},
	})
}

// DeleteSubDevelopment removes the sub development, its projects and their
// inventory, and the assignment entries customers hold for it.
func (o *Orchestrator) DeleteSubDevelopment(ctx context.Context, id uuid.UUID) (*Result, error) {
	return o.execute(ctx, string(model.KindSubDevelopment), id, []step{
		{"resolve", resolveSubDevelopment},
		{"delete inventory", deleteInventory},
		{"delete projects", deleteProjects},
		{"detach customers", detachCustomers},
		{"delete root", deleteRoot},
	})
}

func (o *Orchestrator) DeleteProject(ctx context.Context, id uuid.UUID) (*Result, error) {
	return o.execute(ctx, "project", id, []step{
		{"resolve", resolveProject},
		{"delete inventory", deleteInventory},
		{"delete root", deleteRoot},
	})
}

func (o *Orchestrator) DeleteInventory(ctx context.Context, id uuid.UUID) (*Result, error) {
	return o.execute(ctx, "inventory", id, []step{
		{"resolve", resolveInventory},
		{"delete root", deleteRoot},
	})
}

// DeleteCustomer strips the customer from the customers list of every
// development it is assigned to, then removes it.
func (o *Orchestrator) DeleteCustomer(ctx context.Context, id uuid.UUID) (*Result, error) {
	return o.execute(ctx, "customer", id, []step{
		{"resolve", resolveCustomer},
		{"detach entities", detachEntities},
		{"delete root", deleteRoot},
	})
}

func (o *Orchestrator) execute(ctx context.Context, root string, id uuid.UUID, steps []step) (*Result, error) {
	p := &plan{
		result: &Result{Root: root, ID: id},
		links:  make(map[uuid.UUID][]link),
	}

	err := o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, s := range steps {
			if err := s.run(ctx, tx, p); err != nil {
				if errors.Is(err, errs.ErrNotFound) {
					return err
				}
				return &errs.TransactionError{Step: s.name, Err: err}
			}
		}
		return nil
	})

	metrics.CascadeDeletesTotal.WithLabelValues(root, metrics.Result(err)).Inc()
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			o.logger.Error("Cascading delete aborted",
				zap.String("root", root),
				zap.String("id", id.String()),
				zap.Error(err),
			)
		}
		return nil, err
	}

	metrics.CascadeRemovedTotal.WithLabelValues("sub_developments").Add(float64(p.result.SubDevelopments))
	metrics.CascadeRemovedTotal.WithLabelValues("projects").Add(float64(p.result.Projects))
	metrics.CascadeRemovedTotal.WithLabelValues("inventories").Add(float64(p.result.Inventory))
	o.logger.Info("Cascading delete committed",
		zap.String("root", root),
		zap.String("id", id.String()),
		zap.Int64("sub_developments", p.result.SubDevelopments),
		zap.Int64("projects", p.result.Projects),
		zap.Int64("inventory", p.result.Inventory),
	)
	return p.result, nil
}

func load(tx *gorm.DB, dest interface{}, entity string, id uuid.UUID) error {
	err := tx.First(dest, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NotFound(entity, id.String())
	}
	return err
}

func resolveMasterDevelopment(ctx context.Context, tx *gorm.DB, p *plan) error {
	var master model.MasterDevelopment
	if err := load(tx, &master, "master development", p.result.ID); err != nil {
		return err
	}
	p.root = &master
	p.detach(&master)

	var subs []model.SubDevelopment
	if err := tx.Where("master_development_id = ?", master.ID).Find(&subs).Error; err != nil {
		return err
	}
	for i := range subs {
		p.subIDs = append(p.subIDs, subs[i].ID)
		p.detach(&subs[i])
	}

	q := tx.Model(&model.Project{}).Where("master_development_id = ?", master.ID)
	if len(p.subIDs) > 0 {
		q = q.Or("sub_development_id IN ?", p.subIDs)
	}
	return q.Pluck("id", &p.projectIDs).Error
}

func resolveSubDevelopment(ctx context.Context, tx *gorm.DB, p *plan) error {
	var sub model.SubDevelopment
	if err := load(tx, &sub, "sub development", p.result.ID); err != nil {
		return err
	}
	p.root = &sub
	p.detach(&sub)
	return tx.Model(&model.Project{}).Where("sub_development_id = ?", sub.ID).Pluck("id", &p.projectIDs).Error
}

func resolveProject(ctx context.Context, tx *gorm.DB, p *plan) error {
	var project model.Project
	if err := load(tx, &project, "project", p.result.ID); err != nil {
		return err
	}
	p.root = &project
	p.projectIDs = []uuid.UUID{project.ID}
	return nil
}

func resolveInventory(ctx context.Context, tx *gorm.DB, p *plan) error {
	var unit model.Inventory
	if err := load(tx, &unit, "inventory", p.result.ID); err != nil {
		return err
	}
	p.root = &unit
	return nil
}

func resolveCustomer(ctx context.Context, tx *gorm.DB, p *plan) error {
	var customer model.Customer
	if err := load(tx, &customer, "customer", p.result.ID); err != nil {
		return err
	}
	p.root = &customer
	return nil
}

// deleteIn removes rows of model whose column is in ids.
func deleteIn(tx *gorm.DB, value interface{}, column string, ids []uuid.UUID) (int64, error) {
	var total int64
	for lo := 0; lo < len(ids); lo += idChunk {
		hi := lo + idChunk
		if hi > len(ids) {
			hi = len(ids)
		}
		res := tx.Where(column+" IN ?", ids[lo:hi]).Delete(value)
		if res.Error != nil {
			return 0, res.Error
		}
		total += res.RowsAffected
	}
	return total, nil
}

func deleteInventory(ctx context.Context, tx *gorm.DB, p *plan) (err error) {
	p.result.Inventory, err = deleteIn(tx, &model.Inventory{}, "project_id", p.projectIDs)
	return err
}

func deleteProjects(ctx context.Context, tx *gorm.DB, p *plan) (err error) {
	p.result.Projects, err = deleteIn(tx, &model.Project{}, "id", p.projectIDs)
	return err
}

func deleteSubDevelopments(ctx context.Context, tx *gorm.DB, p *plan) (err error) {
	p.result.SubDevelopments, err = deleteIn(tx, &model.SubDevelopment{}, "id", p.subIDs)
	return err
}

// detachCustomers strips the assignment entries pointing at removed
// developments. Customers that no longer exist are skipped.
func detachCustomers(ctx context.Context, tx *gorm.DB, p *plan) error {
	for customerID, links := range p.links {
		var customer model.Customer
		err := tx.First(&customer, "id = ?", customerID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		changed := false
		for _, l := range links {
			if customer.RemoveAssignment(l.id, l.kind) {
				changed = true
			}
		}
		if !changed {
			continue
		}
		if err := tx.Model(&customer).Update("assigned", customer.Assigned).Error; err != nil {
			return err
		}
		p.result.CustomersDetached++
	}
	return nil
}

// detachEntities removes the deleted customer from the customers list of
// each development it was assigned to.
func detachEntities(ctx context.Context, tx *gorm.DB, p *plan) error {
	customer := p.root.(*model.Customer)
	for _, a := range customer.Assigned {
		var entity model.Assignable
		switch a.Name {
		case model.KindMasterDevelopment:
			entity = &model.MasterDevelopment{}
		case model.KindSubDevelopment:
			entity = &model.SubDevelopment{}
		default:
			continue
		}
		err := tx.First(entity, "id = ?", a.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		ids, removed := model.RemoveID(entity.CustomerIDs(), customer.ID)
		if !removed {
			continue
		}
		if err := tx.Model(entity).Update("customers", datatypes.JSONSlice[uuid.UUID](ids)).Error; err != nil {
			return err
		}
		p.result.EntitiesDetached++
	}
	return nil
}

func deleteRoot(ctx context.Context, tx *gorm.DB, p *plan) error {
	res := tx.Delete(p.root)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.New("root record vanished during delete")
	}
	return nil
}
