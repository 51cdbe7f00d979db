package catalog_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/propgraph/propgraph/pkg/assignment"
	"github.com/propgraph/propgraph/pkg/catalog"
	"github.com/propgraph/propgraph/pkg/errs"
	"github.com/propgraph/propgraph/pkg/model"
	"github.com/propgraph/propgraph/pkg/store/gormstore/storetest"
)

func TestCreateMasterDevelopment(t *testing.T) {
	ctx := context.Background()
	store := storetest.New(t)
	c := catalog.New(store.DB(), zap.NewNop())

	created, err := c.MasterDevelopments.Create(ctx, &model.MasterDevelopment{
		Country:         "UAE",
		City:            "Dubai",
		DevelopmentName: " Alpha ",
		LocationQuality: "high",
		Areas:           model.Areas{BUAAreaSqFt: 100, FacilitiesAreaSqFt: 50, AmentiesAreaSqFt: 25, TotalAreaSqFt: 1},
		Customers:       []uuid.UUID{uuid.New()},
	}, "user-1")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "Alpha", created.DevelopmentName)
	assert.Equal(t, "High", created.LocationQuality)
	assert.Equal(t, "user-1", created.UserID)
	assert.Empty(t, created.Customers)

	got, err := c.MasterDevelopments.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 175.0, got.TotalAreaSqFt)

	_, err = c.MasterDevelopments.Create(ctx, &model.MasterDevelopment{
		Country: "UAE", City: "Dubai", DevelopmentName: "ALPHA", LocationQuality: "Low",
	}, "user-2")
	assert.True(t, errors.Is(err, errs.ErrConflict))

	_, err = c.MasterDevelopments.Create(ctx, &model.MasterDevelopment{Country: "UAE", DevelopmentName: "Beta", LocationQuality: "Superb"}, "user-1")
	require.True(t, errs.IsValidation(err))
	var verrs errs.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.ElementsMatch(t, []string{"city", "locationQuality"}, verrs.Fields())

	_, err = c.MasterDevelopments.Get(ctx, uuid.New())
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestUpdateMasterDevelopment(t *testing.T) {
	ctx := context.Background()
	store := storetest.New(t)
	db := store.DB()
	c := catalog.New(db, zap.NewNop())

	customerID := uuid.New()
	alpha := storetest.MasterDevelopment(t, db, "Alpha", func(m *model.MasterDevelopment) {
		m.Customers = []uuid.UUID{customerID}
		m.FacilitiesCategories = []string{"Schools"}
	})
	storetest.MasterDevelopment(t, db, "Beta")

	patch := json.RawMessage(`{
		"city": "Sharjah",
		"buaAreaSqFt": 200,
		"totalAreaSqFt": 5,
		"id": "` + uuid.New().String() + `",
		"userId": "intruder",
		"customers": []
	}`)
	updated, err := c.MasterDevelopments.Update(ctx, alpha.ID, patch)
	require.NoError(t, err)
	assert.Equal(t, alpha.ID, updated.ID)
	assert.Equal(t, "Sharjah", updated.City)
	assert.Equal(t, "UAE", updated.Country)
	assert.Equal(t, "user-1", updated.UserID)
	assert.Equal(t, 275.0, updated.TotalAreaSqFt)

	got, err := c.MasterDevelopments.Get(ctx, alpha.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{customerID}, []uuid.UUID(got.Customers))
	assert.Equal(t, []string{"Schools"}, []string(got.FacilitiesCategories))
	assert.Equal(t, 275.0, got.TotalAreaSqFt)

	t.Run("rename onto another record conflicts", func(t *testing.T) {
		_, err := c.MasterDevelopments.Update(ctx, alpha.ID, json.RawMessage(`{"developmentName": "beta"}`))
		assert.True(t, errors.Is(err, errs.ErrConflict))
	})

	t.Run("keeping its own name is fine", func(t *testing.T) {
		_, err := c.MasterDevelopments.Update(ctx, alpha.ID, json.RawMessage(`{"developmentName": "Alpha"}`))
		assert.NoError(t, err)
	})

	t.Run("invalid enum", func(t *testing.T) {
		_, err := c.MasterDevelopments.Update(ctx, alpha.ID, json.RawMessage(`{"locationQuality": "Superb"}`))
		assert.True(t, errs.IsValidation(err))
	})

	t.Run("malformed patch", func(t *testing.T) {
		_, err := c.MasterDevelopments.Update(ctx, alpha.ID, json.RawMessage(`{"city": 7}`))
		assert.True(t, errs.IsValidation(err))
	})

	t.Run("missing record", func(t *testing.T) {
		_, err := c.MasterDevelopments.Update(ctx, uuid.New(), json.RawMessage(`{}`))
		assert.True(t, errors.Is(err, errs.ErrNotFound))
	})
}

func TestCreateChecksReferences(t *testing.T) {
	ctx := context.Background()
	store := storetest.New(t)
	db := store.DB()
	c := catalog.New(db, zap.NewNop())

	palm := storetest.MasterDevelopment(t, db, "Palm")
	marina := storetest.MasterDevelopment(t, db, "Marina")
	frond := storetest.SubDevelopment(t, db, palm.ID, "Frond A", "1")

	_, err := c.SubDevelopments.Create(ctx, &model.SubDevelopment{
		MasterDevelopmentID: uuid.New(),
		SubDevelopmentName:  "Frond B",
		PlotNumber:          "1",
		PlotPermission:      []string{"Residential"},
		PlotStatus:          "Ready",
	}, "user-1")
	assert.True(t, errs.IsValidation(err))

	_, err = c.SubDevelopments.Create(ctx, &model.SubDevelopment{
		MasterDevelopmentID: palm.ID,
		SubDevelopmentName:  "frond a",
		PlotNumber:          "1",
		PlotPermission:      []string{"Residential"},
		PlotStatus:          "Ready",
	}, "user-1")
	assert.True(t, errors.Is(err, errs.ErrConflict))

	newProject := func(master uuid.UUID, sub *uuid.UUID, name string) *model.Project {
		return &model.Project{
			MasterDevelopmentID: master,
			SubDevelopmentID:    sub,
			PropertyType:        "Villas",
			ProjectName:         name,
			ProjectQuality:      "Medium",
			SalesStatus:         "Launched",
		}
	}

	_, err = c.Projects.Create(ctx, newProject(marina.ID, &frond.ID, "Wrong Parent"), "user-1")
	assert.True(t, errs.IsValidation(err))

	project, err := c.Projects.Create(ctx, newProject(palm.ID, &frond.ID, "Frond Villas"), "user-1")
	require.NoError(t, err)
	assert.Equal(t, model.NotAvailable, project.LaunchDate)

	_, err = c.Inventory.Create(ctx, &model.Inventory{
		ProjectID: uuid.New(), UnitNumber: "1", UnitType: "Studio", Purpose: "Rent",
	}, "user-1")
	assert.True(t, errs.IsValidation(err))

	unit, err := c.Inventory.Create(ctx, &model.Inventory{
		ProjectID: project.ID, UnitNumber: "1", UnitType: "studio", Purpose: "rent",
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Studio", unit.UnitType)

	_, err = c.Inventory.Create(ctx, &model.Inventory{
		ProjectID: project.ID, UnitNumber: "1", UnitType: "Studio", Purpose: "Rent",
	}, "user-1")
	assert.True(t, errors.Is(err, errs.ErrConflict))
}

func TestCustomerAssignedIsSystemOwned(t *testing.T) {
	ctx := context.Background()
	store := storetest.New(t)
	c := catalog.New(store.DB(), zap.NewNop())

	created, err := c.Customers.Create(ctx, &model.Customer{
		Name:          "Jane",
		ContactNumber: "+971501234567",
		Assigned:      []model.Assignment{{ID: uuid.New(), Name: model.KindMasterDevelopment}},
	}, "user-1")
	require.NoError(t, err)
	assert.Empty(t, created.Assigned)

	updated, err := c.Customers.Update(ctx, created.ID, json.RawMessage(`{"nationality": "British", "assigned": [{"id": "`+uuid.New().String()+`", "name": "subDevelopment"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "British", updated.Nationality)
	assert.Empty(t, updated.Assigned)
}

func TestUpdateSubDevelopmentCarriesDependents(t *testing.T) {
	ctx := context.Background()
	store := storetest.New(t)
	db := store.DB()
	c := catalog.New(db, zap.NewNop())
	linker := assignment.NewLinker(db, zap.NewNop())

	palm := storetest.MasterDevelopment(t, db, "Palm")
	marina := storetest.MasterDevelopment(t, db, "Marina")
	frond := storetest.SubDevelopment(t, db, palm.ID, "Frond A", "1")
	tower := storetest.Project(t, db, palm.ID, &frond.ID, "Tower")
	jane := storetest.Customer(t, db, "Jane")

	_, err := linker.AddCustomer(ctx, model.KindSubDevelopment, frond.ID, jane.ID)
	require.NoError(t, err)
	_, err = linker.AddCustomer(ctx, model.KindMasterDevelopment, palm.ID, jane.ID)
	require.NoError(t, err)

	patch := json.RawMessage(`{"masterDevelopment": "` + marina.ID.String() + `", "subDevelopment": "Frond Z"}`)
	updated, err := c.SubDevelopments.Update(ctx, frond.ID, patch)
	require.NoError(t, err)
	assert.Equal(t, marina.ID, updated.MasterDevelopmentID)

	var project model.Project
	require.NoError(t, db.First(&project, "id = ?", tower.ID).Error)
	assert.Equal(t, marina.ID, project.MasterDevelopmentID)

	var customer model.Customer
	require.NoError(t, db.First(&customer, "id = ?", jane.ID).Error)
	require.Len(t, customer.Assigned, 2)
	names := map[model.EntityKind]string{}
	for _, a := range customer.Assigned {
		names[a.Name] = a.PropertyName
	}
	assert.Equal(t, "Frond Z", names[model.KindSubDevelopment])
	assert.Equal(t, "Palm", names[model.KindMasterDevelopment])

	_, err = c.MasterDevelopments.Update(ctx, palm.ID, json.RawMessage(`{"developmentName": "Palm Jumeirah"}`))
	require.NoError(t, err)
	require.NoError(t, db.First(&customer, "id = ?", jane.ID).Error)
	for _, a := range customer.Assigned {
		if a.Name == model.KindMasterDevelopment {
			assert.Equal(t, "Palm Jumeirah", a.PropertyName)
		}
	}
}
