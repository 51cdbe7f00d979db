package importer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/propgraph/propgraph/pkg/config"
	"github.com/propgraph/propgraph/pkg/errs"
	"github.com/propgraph/propgraph/pkg/importer"
	"github.com/propgraph/propgraph/pkg/model"
	"github.com/propgraph/propgraph/pkg/store/gormstore/storetest"
)

func writeXLSX(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	path := filepath.Join(t.TempDir(), "upload.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func newImporter(db *gorm.DB, batchSize int) *importer.Importer {
	return importer.New(db, config.ImportConfig{BatchSize: batchSize}, zap.NewNop())
}

func assertBalanced(t *testing.T, r *importer.Report) {
	t.Helper()
	assert.Equal(t, r.TotalEntries,
		r.InsertedEntries+r.SkippedInvalidEntries+r.SkippedDuplicateEntries+r.FailedEntries)
}

var masterHeader = []interface{}{"Country", "City", "Development Name", "Location Quality", "BUA Area (Sq. Ft.)", "Facilities\nArea Sq Ft", "Amenities Area Sq Ft"}

func TestImportMasterDevelopments(t *testing.T) {
	ctx := context.Background()
	store := storetest.New(t)
	path := writeXLSX(t, [][]interface{}{
		masterHeader,
		{"UAE", "Dubai", "Alpha", "High", 100, 50, 25},
		{"UAE", "Dubai", "Beta", "", 10, 10, 10},
		{"UAE", "Abu Dhabi", "Alpha", "Low", 1, 1, 1},
	})

	report, err := newImporter(store.DB(), 0).ImportFile(ctx, importer.MasterDevelopments, path, "user-7")
	require.NoError(t, err)

	assert.True(t, report.Success)
	assert.Equal(t, 3, report.TotalEntries)
	assert.Equal(t, 1, report.InsertedEntries)
	require.Len(t, report.InvalidEntries, 1)
	assert.Equal(t, 2, report.InvalidEntries[0].Row)
	assert.Contains(t, report.InvalidEntries[0].Reason, "missing required field(s): locationQuality")
	require.Len(t, report.DuplicateEntries, 1)
	assert.Equal(t, 3, report.DuplicateEntries[0].Row)
	assert.Contains(t, report.DuplicateEntries[0].Reason, "in file")
	assertBalanced(t, report)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "upload must be removed")

	var stored model.MasterDevelopment
	require.NoError(t, store.DB().First(&stored, "development_name = ?", "Alpha").Error)
	assert.Equal(t, "Dubai", stored.City)
	assert.Equal(t, "user-7", stored.UserID)
	assert.Equal(t, 175.0, stored.TotalAreaSqFt)
}

func TestImportSkipsRecordsAlreadyStored(t *testing.T) {
	ctx := context.Background()
	store := storetest.New(t)
	storetest.MasterDevelopment(t, store.DB(), "Alpha")

	path := writeXLSX(t, [][]interface{}{
		masterHeader,
		{"UAE", "Dubai", "alpha", "High", 1, 1, 1},
		{"UAE", "Dubai", "Gamma", "premium", 1, 1, 1},
		{"UAE", "Dubai", "Delta", "Excellent", 1, 1, 1},
		{"UAE", "Dubai", "Epsilon", "Low", "lots", 1, 1},
	})

	report, err := newImporter(store.DB(), 0).ImportFile(ctx, importer.MasterDevelopments, path, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, report.InsertedEntries)
	require.Len(t, report.DuplicateEntries, 1)
	assert.Equal(t, "already exists", report.DuplicateEntries[0].Reason)
	require.Len(t, report.InvalidEntries, 2)
	assert.Contains(t, report.InvalidEntries[0].Reason, "locationQuality")
	assert.Contains(t, report.InvalidEntries[1].Reason, "buaAreaSqFt")
	assertBalanced(t, report)

	var gamma model.MasterDevelopment
	require.NoError(t, store.DB().First(&gamma, "development_name = ?", "Gamma").Error)
	assert.Equal(t, "Premium", gamma.LocationQuality)
}

func TestImportFailedBatchDoesNotStopLaterBatches(t *testing.T) {
	ctx := context.Background()
	store := storetest.New(t)
	db := store.DB()

	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_beta", func(tx *gorm.DB) {
		if items, ok := tx.Statement.Dest.([]*model.MasterDevelopment); ok {
			for _, m := range items {
				if m.DevelopmentName == "Beta" {
					_ = tx.AddError(errors.New("disk full"))
				}
			}
		}
	}))
	t.Cleanup(func() { _ = db.Callback().Create().Remove("test:fail_beta") })

	path := writeXLSX(t, [][]interface{}{
		masterHeader,
		{"UAE", "Dubai", "Alpha", "High", 1, 1, 1},
		{"UAE", "Dubai", "Beta", "High", 1, 1, 1},
		{"UAE", "Dubai", "Gamma", "High", 1, 1, 1},
	})

	report, err := newImporter(db, 1).ImportFile(ctx, importer.MasterDevelopments, path, "user-1")
	require.NoError(t, err)
	assert.False(t, report.Success)
	assert.Equal(t, 2, report.InsertedEntries)
	assert.Equal(t, 1, report.FailedEntries)
	require.Len(t, report.FailedBatches, 1)
	assert.Equal(t, 1, report.FailedBatches[0].StartIndex)
	assert.Equal(t, 1, report.FailedBatches[0].EndIndex)
	assert.Contains(t, report.FailedBatches[0].Error, "disk full")
	assertBalanced(t, report)

	var count int64
	require.NoError(t, db.Model(&model.MasterDevelopment{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestImportSubDevelopments(t *testing.T) {
	ctx := context.Background()
	store := storetest.New(t)
	master := storetest.MasterDevelopment(t, store.DB(), "Palm")

	path := writeXLSX(t, [][]interface{}{
		{"Master Development", "Sub Development", "Plot No.", "Plot Status", "Plot Permission", "Plot Permission 1", "BUA Area"},
		{"palm", "Frond A", "1", "ready", "Residential", "Commercial, retail", 500},
		{"Palm", "Frond A", "2", "Vacant", "", "", 0},
		{"Nowhere", "Frond B", "1", "Ready", "Residential", "", 0},
		{"Palm", "frond a", "1", "Ready", "Hotel", "", 0},
	})

	report, err := newImporter(store.DB(), 0).ImportFile(ctx, importer.SubDevelopments, path, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 4, report.TotalEntries)
	assert.Equal(t, 1, report.InsertedEntries)
	require.Len(t, report.InvalidEntries, 2)
	assert.Contains(t, report.InvalidEntries[0].Reason, "plotPermission")
	assert.Contains(t, report.InvalidEntries[1].Reason, "Nowhere")
	require.Len(t, report.DuplicateEntries, 1)
	assert.Equal(t, 4, report.DuplicateEntries[0].Row)
	assertBalanced(t, report)

	var sub model.SubDevelopment
	require.NoError(t, store.DB().First(&sub, "plot_number = ?", "1").Error)
	assert.Equal(t, master.ID, sub.MasterDevelopmentID)
	assert.Equal(t, model.PlotStatusReady, sub.PlotStatus)
	assert.Equal(t, []string{"Residential", "Commercial", "Retail"}, []string(sub.PlotPermission))
	assert.Equal(t, 500.0, sub.TotalAreaSqFt)
}

func TestImportProjectsAndInventory(t *testing.T) {
	ctx := context.Background()
	store := storetest.New(t)
	db := store.DB()
	master := storetest.MasterDevelopment(t, db, "Palm")
	sub := storetest.SubDevelopment(t, db, master.ID, "Frond A", "1")

	projects := writeXLSX(t, [][]interface{}{
		{"Master Development", "Sub Development", "Project Name", "Property Type", "Project Quality", "Sales Status", "Price From", "Price To", "Total Units"},
		{"Palm", "Frond A", "Tower 1", "apartment", "high", "launched", "500,000", "900000", "120"},
		{"Palm", "Frond Z", "Tower 2", "Apartment", "High", "Launched", "", "", ""},
	})
	report, err := newImporter(db, 0).ImportFile(ctx, importer.Projects, projects, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, report.InsertedEntries)
	require.Len(t, report.InvalidEntries, 1)
	assert.Contains(t, report.InvalidEntries[0].Reason, "Frond Z")

	var project model.Project
	require.NoError(t, db.First(&project, "project_name = ?", "Tower 1").Error)
	require.NotNil(t, project.SubDevelopmentID)
	assert.Equal(t, sub.ID, *project.SubDevelopmentID)
	assert.Equal(t, model.PropertyTypeApartment, project.PropertyType)
	assert.Equal(t, "500000", project.PriceFrom.String())
	assert.Equal(t, 120, project.TotalUnits)
	assert.Equal(t, model.NotAvailable, project.LaunchDate)

	inventory := writeXLSX(t, [][]interface{}{
		{"Project", "Unit Number", "Unit Type", "Purpose", "Price", "Internal Area", "Balcony Area", "Bedrooms"},
		{"tower 1", "101", "1 br", "sell", "1000000", "800", "200", "1"},
		{"Tower 1", "101", "1 BR", "Sell", "1", "1", "1", "1"},
		{"Tower 1", "102", "1 BR", "Sell", "1", "1", "1", "1.5"},
	})
	report, err = newImporter(db, 0).ImportFile(ctx, importer.Inventories, inventory, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, report.InsertedEntries)
	assert.Equal(t, 1, report.SkippedDuplicateEntries)
	assert.Equal(t, 1, report.SkippedInvalidEntries)
	assertBalanced(t, report)

	var unit model.Inventory
	require.NoError(t, db.First(&unit, "unit_number = ?", "101").Error)
	assert.Equal(t, project.ID, unit.ProjectID)
	assert.Equal(t, 1000.0, unit.TotalAreaSqFt)
	assert.Equal(t, "1000", unit.PricePerSqFt.String())
}

func TestImportCustomers(t *testing.T) {
	ctx := context.Background()
	store := storetest.New(t)

	t.Run("unexpected header is rejected", func(t *testing.T) {
		path := writeXLSX(t, [][]interface{}{
			{"Name", "Contact Number", "Favourite Colour"},
			{"Jane", "+971 50 123 4567", "Blue"},
		})
		_, err := newImporter(store.DB(), 0).ImportFile(ctx, importer.Customers, path, "user-1")
		assert.True(t, errors.Is(err, errs.ErrInvalidFormat))
		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("missing required column is rejected", func(t *testing.T) {
		path := writeXLSX(t, [][]interface{}{
			{"Name", "Nationality"},
			{"Jane", "British"},
		})
		_, err := newImporter(store.DB(), 0).ImportFile(ctx, importer.Customers, path, "user-1")
		assert.True(t, errors.Is(err, errs.ErrInvalidFormat))
	})

	t.Run("csv upload", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "customers.csv")
		data := "Name,Contact Number,Email Address,Customer Type\n" +
			"Jane,+971 50 123 4567,jane@example.com,buyer\n" +
			"Janet,+971501234567,,Tenant\n" +
			"Bob,0501112222,not-an-email,Buyer\n"
		require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

		report, err := newImporter(store.DB(), 0).ImportFile(ctx, importer.Customers, path, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 3, report.TotalEntries)
		assert.Equal(t, 1, report.InsertedEntries)
		assert.Equal(t, 1, report.SkippedDuplicateEntries)
		assert.Equal(t, 1, report.SkippedInvalidEntries)

		var jane model.Customer
		require.NoError(t, store.DB().First(&jane, "name = ?", "Jane").Error)
		assert.Equal(t, "Buyer", jane.CustomerType)
	})
}

func TestImportEmptySheet(t *testing.T) {
	store := storetest.New(t)
	path := writeXLSX(t, [][]interface{}{masterHeader})

	_, err := newImporter(store.DB(), 0).ImportFile(context.Background(), importer.MasterDevelopments, path, "user-1")
	assert.True(t, errors.Is(err, errs.ErrInvalidFormat))
}

func TestImportRepeatedPermissionHeaders(t *testing.T) {
	ctx := context.Background()
	store := storetest.New(t)
	storetest.MasterDevelopment(t, store.DB(), "Palm")

	path := writeXLSX(t, [][]interface{}{
		{"Master Development", "Sub Development", "Plot Number", "Plot Status", "Plot Permission", "Plot Permission", "Plot Permission"},
		{"Palm", "Frond A", "1", "Ready", "Residential", "Commercial", "Hotel"},
		{"Palm", "Frond A", "2", "Ready", "Residential", "Retail", ""},
	})

	report, err := newImporter(store.DB(), 0).ImportFile(ctx, importer.SubDevelopments, path, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, report.InsertedEntries)
	assert.Empty(t, report.InvalidEntries)

	var first, second model.SubDevelopment
	require.NoError(t, store.DB().First(&first, "plot_number = ?", "1").Error)
	assert.Equal(t, []string{"Residential", "Commercial", "Hotel"}, []string(first.PlotPermission))
	require.NoError(t, store.DB().First(&second, "plot_number = ?", "2").Error)
	assert.Equal(t, []string{"Residential", "Retail"}, []string(second.PlotPermission))
}

func TestImportRejectsNonFiniteNumbers(t *testing.T) {
	ctx := context.Background()
	store := storetest.New(t)
	path := writeXLSX(t, [][]interface{}{
		masterHeader,
		{"UAE", "Dubai", "Alpha", "High", "Inf", 1, 1},
		{"UAE", "Dubai", "Beta", "High", 1, "NaN", 1},
		{"UAE", "Dubai", "Gamma", "High", 1, 1, "-Infinity"},
		{"UAE", "Dubai", "Delta", "High", 1, 1, 1},
	})

	report, err := newImporter(store.DB(), 0).ImportFile(ctx, importer.MasterDevelopments, path, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, report.InsertedEntries)
	require.Len(t, report.InvalidEntries, 3)
	assert.Contains(t, report.InvalidEntries[0].Reason, "buaAreaSqFt")
	assert.Contains(t, report.InvalidEntries[1].Reason, "facilitiesAreaSqFt")
	assert.Contains(t, report.InvalidEntries[2].Reason, "amentiesAreaSqFt")
	assertBalanced(t, report)
}
