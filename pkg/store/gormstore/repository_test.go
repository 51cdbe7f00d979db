package gormstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propgraph/propgraph/pkg/errs"
	"github.com/propgraph/propgraph/pkg/model"
	"github.com/propgraph/propgraph/pkg/store/gormstore"
	"github.com/propgraph/propgraph/pkg/store/gormstore/storetest"
)

func TestRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	store := storetest.New(t)
	repo := gormstore.NewRepository[model.MasterDevelopment](store.DB(), "master development")

	m := &model.MasterDevelopment{
		Country:         "UAE",
		City:            "Dubai",
		DevelopmentName: "Palm",
		LocationQuality: "High",
		Areas:           model.Areas{BUAAreaSqFt: 100, FacilitiesAreaSqFt: 50, AmentiesAreaSqFt: 25},
	}
	require.NoError(t, repo.Create(ctx, m))
	require.NotEqual(t, uuid.Nil, m.ID)

	got, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Palm", got.DevelopmentName)
	assert.Equal(t, 175.0, got.TotalAreaSqFt)

	got.BUAAreaSqFt = 200
	require.NoError(t, repo.Save(ctx, got))
	got, err = repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 275.0, got.TotalAreaSqFt)

	exists, err := repo.Exists(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsWhere(ctx, "LOWER(development_name) = ?", "palm")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestRepositoryCreateConflict(t *testing.T) {
	ctx := context.Background()
	store := storetest.New(t)
	storetest.MasterDevelopment(t, store.DB(), "Palm")

	dup := &model.MasterDevelopment{Country: "UAE", City: "Dubai", DevelopmentName: "Palm", LocationQuality: "High"}
	err := gormstore.NewRepository[model.MasterDevelopment](store.DB(), "master development").Create(ctx, dup)
	assert.True(t, errors.Is(err, errs.ErrConflict))
}

func TestRepositoryCreateBatchIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := storetest.New(t)
	master := storetest.MasterDevelopment(t, store.DB(), "Palm")
	repo := gormstore.NewRepository[model.SubDevelopment](store.DB(), "sub development")

	batch := []*model.SubDevelopment{
		{MasterDevelopmentID: master.ID, SubDevelopmentName: "A", PlotNumber: "1", PlotStatus: "Ready"},
		{MasterDevelopmentID: master.ID, SubDevelopmentName: "A", PlotNumber: "1", PlotStatus: "Ready"},
	}
	err := repo.CreateBatch(ctx, batch, 1)
	require.Error(t, err)

	var count int64
	require.NoError(t, store.DB().Model(&model.SubDevelopment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEstimateCountFallsBackToExactCount(t *testing.T) {
	ctx := context.Background()
	store := storetest.New(t)
	master := storetest.MasterDevelopment(t, store.DB(), "Palm")
	storetest.SubDevelopment(t, store.DB(), master.ID, "A", "1")
	storetest.SubDevelopment(t, store.DB(), master.ID, "A", "2")

	n, err := gormstore.EstimateCount(ctx, store.DB(), "sub_developments")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestJSONListColumnsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storetest.New(t)
	customerID := uuid.New()
	master := storetest.MasterDevelopment(t, store.DB(), "Palm", func(m *model.MasterDevelopment) {
		m.FacilitiesCategories = []string{"Schools", "Malls"}
		m.Customers = []uuid.UUID{customerID}
	})

	got, err := gormstore.NewRepository[model.MasterDevelopment](store.DB(), "master development").GetByID(ctx, master.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Schools", "Malls"}, []string(got.FacilitiesCategories))
	assert.Equal(t, []uuid.UUID{customerID}, []uuid.UUID(got.Customers))
}
