// Package report computes read-only statistics for one master development.
package report

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/propgraph/propgraph/pkg/errs"
	"github.com/propgraph/propgraph/pkg/model"
)

var (
	PlotStatuses         = []string{model.PlotStatusReady, model.PlotStatusUnderConstruction, model.PlotStatusVacant}
	InventoryTypes       = []string{model.PropertyTypeApartment, model.PropertyTypeVillas, model.PropertyTypeHotel, model.PropertyTypeTownhouses, model.PropertyTypeLabourCamp}
	AvailabilityTypes    = []string{model.PropertyTypeApartment, model.PropertyTypeVillas, model.PropertyTypeTownhouses}
	AvailabilityPurposes = []string{model.PurposeSell, model.PurposeRent}
)

// Range is a min/max envelope. Both ends are nil when no row contributed.
type Range struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

func (r *Range) include(min, max sql.NullFloat64) {
	if min.Valid && (r.Min == nil || min.Float64 < *r.Min) {
		v := min.Float64
		r.Min = &v
	}
	if max.Valid && (r.Max == nil || max.Float64 > *r.Max) {
		v := max.Float64
		r.Max = &v
	}
}

type Report struct {
	MasterDevelopmentID uuid.UUID                   `json:"masterDevelopmentId"`
	DevelopmentName     string                      `json:"developmentName"`
	PlotStatus          map[string]int64            `json:"plotStatus"`
	PlotHeight          Range                       `json:"plotHeight"`
	PlotBUASqFt         Range                       `json:"plotBUASqFt"`
	PropertyTypes       map[string]int64            `json:"propertyTypes"`
	InventoryByType     map[string]int64            `json:"inventoryByType"`
	Availability        map[string]map[string]int64 `json:"availability"`
}

type Aggregator struct {
	db *gorm.DB
}

func NewAggregator(db *gorm.DB) *Aggregator {
	return &Aggregator{db: db}
}

type groupCount struct {
	Label string
	Total int64
}

type envelope struct {
	MinHeight sql.NullFloat64
	MaxHeight sql.NullFloat64
	MinBUA    sql.NullFloat64
	MaxBUA    sql.NullFloat64
}

type cell struct {
	PropertyType string
	Purpose      string
	Total        int64
}

// Report fans the aggregations out concurrently. The first failing stage
// cancels the rest and no partial report is returned.
func (a *Aggregator) Report(ctx context.Context, masterID uuid.UUID) (*Report, error) {
	var master model.MasterDevelopment
	err := a.db.WithContext(ctx).Select("id", "development_name").First(&master, "id = ?", masterID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("master development", masterID.String())
	}
	if err != nil {
		return nil, err
	}

	var (
		subStatus, projectStatus []groupCount
		subEnv, projectEnv       envelope
		propertyTypes            []groupCount
		inventory                = make([]int64, len(InventoryTypes))
		cells                    []cell
	)

	g, gctx := errgroup.WithContext(ctx)
	db := a.db.WithContext(gctx)

	g.Go(func() error {
		return db.Model(&model.SubDevelopment{}).
			Select("plot_status AS label, COUNT(*) AS total").
			Where("master_development_id = ?", masterID).
			Group("plot_status").
			Scan(&subStatus).Error
	})
	g.Go(func() error {
		return db.Model(&model.Project{}).
			Select("plot_status AS label, COUNT(*) AS total").
			Where("master_development_id = ?", masterID).
			Group("plot_status").
			Scan(&projectStatus).Error
	})
	g.Go(func() error {
		return db.Model(&model.SubDevelopment{}).
			Select("MIN(plot_height) AS min_height, MAX(plot_height) AS max_height, MIN(plot_bua_sq_ft) AS min_bua, MAX(plot_bua_sq_ft) AS max_bua").
			Where("master_development_id = ?", masterID).
			Scan(&subEnv).Error
	})
	g.Go(func() error {
		return db.Model(&model.Project{}).
			Select("MIN(plot_height) AS min_height, MAX(plot_height) AS max_height, MIN(plot_bua_sq_ft) AS min_bua, MAX(plot_bua_sq_ft) AS max_bua").
			Where("master_development_id = ?", masterID).
			Scan(&projectEnv).Error
	})
	g.Go(func() error {
		return db.Model(&model.Project{}).
			Select("property_type AS label, COUNT(*) AS total").
			Where("master_development_id = ?", masterID).
			Group("property_type").
			Scan(&propertyTypes).Error
	})
	for i, propertyType := range InventoryTypes {
		i, propertyType := i, propertyType
		g.Go(func() error {
			var projectIDs []uuid.UUID
			err := db.Model(&model.Project{}).
				Where("master_development_id = ? AND property_type = ?", masterID, propertyType).
				Pluck("id", &projectIDs).Error
			if err != nil || len(projectIDs) == 0 {
				return err
			}
			return db.Model(&model.Inventory{}).
				Where("project_id IN ?", projectIDs).
				Count(&inventory[i]).Error
		})
	}
	g.Go(func() error {
		return db.Table("inventories AS i").
			Select("p.property_type AS property_type, i.purpose AS purpose, COUNT(*) AS total").
			Joins("JOIN projects AS p ON p.id = i.project_id").
			Where("p.master_development_id = ?", masterID).
			Where("p.property_type IN ? AND i.purpose IN ?", AvailabilityTypes, AvailabilityPurposes).
			Group("p.property_type, i.purpose").
			Scan(&cells).Error
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	r := &Report{
		MasterDevelopmentID: master.ID,
		DevelopmentName:     master.DevelopmentName,
		PlotStatus:          make(map[string]int64, len(PlotStatuses)),
		PropertyTypes:       make(map[string]int64),
		InventoryByType:     make(map[string]int64, len(InventoryTypes)),
		Availability:        make(map[string]map[string]int64, len(AvailabilityTypes)),
	}

	for _, status := range PlotStatuses {
		r.PlotStatus[status] = 0
	}
	for _, groups := range [][]groupCount{subStatus, projectStatus} {
		for _, gc := range groups {
			if _, ok := r.PlotStatus[gc.Label]; ok {
				r.PlotStatus[gc.Label] += gc.Total
			}
		}
	}

	for _, env := range []envelope{subEnv, projectEnv} {
		r.PlotHeight.include(env.MinHeight, env.MaxHeight)
		r.PlotBUASqFt.include(env.MinBUA, env.MaxBUA)
	}

	for _, gc := range propertyTypes {
		r.PropertyTypes[gc.Label] = gc.Total
	}

	for i, propertyType := range InventoryTypes {
		r.InventoryByType[propertyType] = inventory[i]
	}

	for _, propertyType := range AvailabilityTypes {
		r.Availability[propertyType] = make(map[string]int64, len(AvailabilityPurposes))
		for _, purpose := range AvailabilityPurposes {
			r.Availability[propertyType][purpose] = 0
		}
	}
	for _, c := range cells {
		if row, ok := r.Availability[c.PropertyType]; ok {
			row[c.Purpose] = c.Total
		}
	}

	return r, nil
}
