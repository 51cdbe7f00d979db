package catalog

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/propgraph/propgraph/pkg/errs"
	"github.com/propgraph/propgraph/pkg/model"
)

type Catalog struct {
	MasterDevelopments *Collection[model.MasterDevelopment, *model.MasterDevelopment]
	SubDevelopments    *Collection[model.SubDevelopment, *model.SubDevelopment]
	Projects           *Collection[model.Project, *model.Project]
	Inventory          *Collection[model.Inventory, *model.Inventory]
	Customers          *Collection[model.Customer, *model.Customer]
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func New(db *gorm.DB, logger *zap.Logger) *Catalog {
	return &Catalog{
		MasterDevelopments: &Collection[model.MasterDevelopment, *model.MasterDevelopment]{
			db:     db,
			entity: "master development",
			logger: logger,
			claim: func(m *model.MasterDevelopment, userID string) {
				m.UserID = userID
				m.Customers = nil
			},
			keep: func(dst, stored *model.MasterDevelopment) {
				dst.UserID = stored.UserID
				dst.Customers = stored.Customers
			},
			checks: []func(context.Context, *gorm.DB, *model.MasterDevelopment) error{
				func(ctx context.Context, tx *gorm.DB, m *model.MasterDevelopment) error {
					return unique[model.MasterDevelopment](tx, "master development", "developmentName", m.DevelopmentName, m.ID,
						"LOWER(development_name) = ?", lower(m.DevelopmentName))
				},
			},
			updated: func(ctx context.Context, tx *gorm.DB, stored, m *model.MasterDevelopment) error {
				return renameAssignments(tx, stored.DisplayName(), m)
			},
		},

		SubDevelopments: &Collection[model.SubDevelopment, *model.SubDevelopment]{
			db:     db,
			entity: "sub development",
			logger: logger,
			claim: func(s *model.SubDevelopment, userID string) {
				s.UserID = userID
				s.Customers = nil
			},
			keep: func(dst, stored *model.SubDevelopment) {
				dst.UserID = stored.UserID
				dst.Customers = stored.Customers
			},
			checks: []func(context.Context, *gorm.DB, *model.SubDevelopment) error{
				func(ctx context.Context, tx *gorm.DB, s *model.SubDevelopment) error {
					return exists[model.MasterDevelopment](tx, "masterDevelopment", "master development", s.MasterDevelopmentID)
				},
				func(ctx context.Context, tx *gorm.DB, s *model.SubDevelopment) error {
					return unique[model.SubDevelopment](tx, "sub development", "plotNumber", s.SubDevelopmentName+" / "+s.PlotNumber, s.ID,
						"LOWER(sub_development_name) = ? AND LOWER(plot_number) = ?", lower(s.SubDevelopmentName), lower(s.PlotNumber))
				},
			},
			updated: func(ctx context.Context, tx *gorm.DB, stored, s *model.SubDevelopment) error {
				if s.MasterDevelopmentID != stored.MasterDevelopmentID {
					err := tx.Model(&model.Project{}).
						Where("sub_development_id = ?", s.ID).
						Update("master_development_id", s.MasterDevelopmentID).Error
					if err != nil {
						return err
					}
				}
				return renameAssignments(tx, stored.DisplayName(), s)
			},
		},

		Projects: &Collection[model.Project, *model.Project]{
			db:     db,
			entity: "project",
			logger: logger,
			claim: func(p *model.Project, userID string) {
				p.UserID = userID
			},
			keep: func(dst, stored *model.Project) {
				dst.UserID = stored.UserID
			},
			checks: []func(context.Context, *gorm.DB, *model.Project) error{
				func(ctx context.Context, tx *gorm.DB, p *model.Project) error {
					return exists[model.MasterDevelopment](tx, "masterDevelopment", "master development", p.MasterDevelopmentID)
				},
				projectSubDevelopment,
				func(ctx context.Context, tx *gorm.DB, p *model.Project) error {
					return unique[model.Project](tx, "project", "projectName", p.ProjectName, p.ID,
						"LOWER(project_name) = ?", lower(p.ProjectName))
				},
			},
		},

		Inventory: &Collection[model.Inventory, *model.Inventory]{
			db:     db,
			entity: "inventory",
			logger: logger,
			claim: func(i *model.Inventory, userID string) {
				i.UserID = userID
			},
			keep: func(dst, stored *model.Inventory) {
				dst.UserID = stored.UserID
			},
			checks: []func(context.Context, *gorm.DB, *model.Inventory) error{
				func(ctx context.Context, tx *gorm.DB, i *model.Inventory) error {
					return exists[model.Project](tx, "project", "project", i.ProjectID)
				},
				func(ctx context.Context, tx *gorm.DB, i *model.Inventory) error {
					return unique[model.Inventory](tx, "inventory", "unitNumber", i.UnitNumber, i.ID,
						"project_id = ? AND LOWER(unit_number) = ?", i.ProjectID, lower(i.UnitNumber))
				},
			},
		},

		Customers: &Collection[model.Customer, *model.Customer]{
			db:     db,
			entity: "customer",
			logger: logger,
			claim: func(c *model.Customer, userID string) {
				c.UserID = userID
				c.Assigned = nil
			},
			keep: func(dst, stored *model.Customer) {
				dst.UserID = stored.UserID
				dst.Assigned = stored.Assigned
			},
		},
	}
}

// projectSubDevelopment requires an optional sub development to exist under
// the project's master development.
func projectSubDevelopment(ctx context.Context, tx *gorm.DB, p *model.Project) error {
	if p.SubDevelopmentID == nil {
		return nil
	}
	var sub model.SubDevelopment
	err := tx.Select("id", "master_development_id").First(&sub, "id = ?", *p.SubDevelopmentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.Invalid("subDevelopment", "no sub development with id %s", *p.SubDevelopmentID)
	}
	if err != nil {
		return err
	}
	if sub.MasterDevelopmentID != p.MasterDevelopmentID {
		return errs.Invalid("subDevelopment", "belongs to a different master development")
	}
	return nil
}

// renameAssignments rewrites the propertyName customers hold for entity after
// its display name changed.
func renameAssignments(tx *gorm.DB, previous string, entity model.Assignable) error {
	ids := entity.CustomerIDs()
	if entity.DisplayName() == previous || len(ids) == 0 {
		return nil
	}
	var customers []model.Customer
	if err := tx.Where("id IN ?", ids).Find(&customers).Error; err != nil {
		return err
	}
	for i := range customers {
		c := &customers[i]
		if !c.RenameAssignment(entity.EntityID(), entity.Kind(), entity.DisplayName()) {
			continue
		}
		if err := tx.Model(c).Update("assigned", c.Assigned).Error; err != nil {
			return err
		}
	}
	return nil
}
