// Package storetest opens migrated in-memory stores and seeds fixtures for
// tests in other packages.
package storetest

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/propgraph/propgraph/pkg/config"
	"github.com/propgraph/propgraph/pkg/model"
	"github.com/propgraph/propgraph/pkg/store/gormstore"
)

// New returns a migrated store backed by a private in-memory sqlite database.
// The pool holds a single connection so every handle sees the same database.
func New(t *testing.T) *gormstore.Store {
	t.Helper()

	store, err := gormstore.NewStore(&config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	require.NoError(t, store.AutoMigrate())

	t.Cleanup(func() { _ = store.Close() })
	return store
}

func create(t *testing.T, db *gorm.DB, v interface{}) {
	t.Helper()
	require.NoError(t, db.WithContext(context.Background()).Create(v).Error)
}

func MasterDevelopment(t *testing.T, db *gorm.DB, name string, opts ...func(*model.MasterDevelopment)) *model.MasterDevelopment {
	m := &model.MasterDevelopment{
		UserID:          "user-1",
		Country:         "UAE",
		City:            "Dubai",
		DevelopmentName: name,
		LocationQuality: "High",
		Areas:           model.Areas{BUAAreaSqFt: 100, FacilitiesAreaSqFt: 50, AmentiesAreaSqFt: 25},
	}
	for _, opt := range opts {
		opt(m)
	}
	create(t, db, m)
	return m
}

func SubDevelopment(t *testing.T, db *gorm.DB, masterID uuid.UUID, name, plot string, opts ...func(*model.SubDevelopment)) *model.SubDevelopment {
	s := &model.SubDevelopment{
		MasterDevelopmentID: masterID,
		UserID:              "user-1",
		SubDevelopmentName:  name,
		PlotNumber:          plot,
		PlotHeight:          10,
		PlotPermission:      []string{"Residential"},
		PlotBUASqFt:         1000,
		PlotStatus:          model.PlotStatusReady,
	}
	for _, opt := range opts {
		opt(s)
	}
	create(t, db, s)
	return s
}

func Project(t *testing.T, db *gorm.DB, masterID uuid.UUID, subID *uuid.UUID, name string, opts ...func(*model.Project)) *model.Project {
	p := &model.Project{
		UserID:              "user-1",
		MasterDevelopmentID: masterID,
		SubDevelopmentID:    subID,
		PropertyType:        model.PropertyTypeApartment,
		ProjectName:         name,
		ProjectQuality:      "High",
		SalesStatus:         "Launched",
		PriceFrom:           decimal.NewFromInt(500000),
		PriceTo:             decimal.NewFromInt(900000),
	}
	for _, opt := range opts {
		opt(p)
	}
	create(t, db, p)
	return p
}

func Inventory(t *testing.T, db *gorm.DB, projectID uuid.UUID, unit string, opts ...func(*model.Inventory)) *model.Inventory {
	i := &model.Inventory{
		UserID:           "user-1",
		ProjectID:        projectID,
		UnitNumber:       unit,
		UnitType:         "1 BR",
		InternalAreaSqFt: 800,
		BalconyAreaSqFt:  200,
		Bedrooms:         1,
		Bathrooms:        1,
		Purpose:          model.PurposeSell,
		Price:            decimal.NewFromInt(1000000),
	}
	for _, opt := range opts {
		opt(i)
	}
	create(t, db, i)
	return i
}

var contactSeq int64

func Customer(t *testing.T, db *gorm.DB, name string, opts ...func(*model.Customer)) *model.Customer {
	c := &model.Customer{
		UserID:        "user-1",
		Name:          name,
		ContactNumber: fmt.Sprintf("+9715%08d", atomic.AddInt64(&contactSeq, 1)),
	}
	for _, opt := range opts {
		opt(c)
	}
	create(t, db, c)
	return c
}

// FailDeletesOn makes every delete against table fail with err for the
// lifetime of the test.
func FailDeletesOn(t *testing.T, db *gorm.DB, table string, err error) {
	t.Helper()
	name := "storetest:fail_delete_" + table
	require.NoError(t, db.Callback().Delete().Before("gorm:delete").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			_ = tx.AddError(err)
		}
	}))
	t.Cleanup(func() { _ = db.Callback().Delete().Remove(name) })
}
