package importer

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propgraph/propgraph/pkg/errs"
	"github.com/propgraph/propgraph/pkg/model"
)

// finish normalizes and validates a built record after the row's conversion
// errors have been checked.
func finish[T interface {
	Normalize()
	Validate() error
}](r *reader, item T) (T, error) {
	if err := r.err(); err != nil {
		var zero T
		return zero, err
	}
	item.Normalize()
	if err := item.Validate(); err != nil {
		var zero T
		return zero, err
	}
	return item, nil
}

var masterDevelopmentImport = &variant[model.MasterDevelopment]{
	collection: MasterDevelopments,
	entity:     "master development",
	headers:    MasterDevelopmentHeaders,
	required:   []string{"developmentName", "country", "city", "locationQuality"},
	build: func(row Row, userID string, _ *refs) (*model.MasterDevelopment, error) {
		r := &reader{row: row}
		m := &model.MasterDevelopment{
			UserID:          userID,
			Country:         r.text("country"),
			City:            r.text("city"),
			RoadLocation:    r.text("roadLocation"),
			DevelopmentName: r.text("developmentName"),
			LocationQuality: r.text("locationQuality"),
			Areas: model.Areas{
				BUAAreaSqFt:        r.float("buaAreaSqFt"),
				FacilitiesAreaSqFt: r.float("facilitiesAreaSqFt"),
				AmentiesAreaSqFt:   r.float("amentiesAreaSqFt"),
			},
			Pictures:             r.list("pictures"),
			FacilitiesCategories: r.list("facilitiesCategories"),
			AmentiesCategories:   r.list("amentiesCategories"),
		}
		return finish(r, m)
	},
	key: func(m *model.MasterDevelopment) string { return nameKey(m.DevelopmentName) },
	existing: func(ctx context.Context, db *gorm.DB, items []*model.MasterDevelopment) (map[string]bool, error) {
		names := make([]string, len(items))
		for i, m := range items {
			names[i] = nameKey(m.DevelopmentName)
		}
		found := make(map[string]bool)
		err := chunked(names, lookupChunk, func(chunk []string) error {
			var stored []string
			if err := db.WithContext(ctx).Model(&model.MasterDevelopment{}).
				Where("LOWER(development_name) IN ?", chunk).
				Pluck("development_name", &stored).Error; err != nil {
				return err
			}
			for _, name := range stored {
				found[nameKey(name)] = true
			}
			return nil
		})
		return found, err
	},
}

var subDevelopmentImport = &variant[model.SubDevelopment]{
	collection: SubDevelopments,
	entity:     "sub development",
	headers:    SubDevelopmentHeaders,
	required:   []string{"masterDevelopment", "subDevelopment", "plotNumber", "plotStatus", "plotPermission"},
	parents:    []parentKind{parentMasters},
	build: func(row Row, userID string, refs *refs) (*model.SubDevelopment, error) {
		masterID, ok := refs.master(row.Text("masterDevelopment"))
		if !ok {
			return nil, errs.Invalid("masterDevelopment", "no master development named %q", row.Text("masterDevelopment"))
		}
		r := &reader{row: row}
		s := &model.SubDevelopment{
			MasterDevelopmentID: masterID,
			UserID:              userID,
			SubDevelopmentName:  r.text("subDevelopment"),
			PlotNumber:          r.text("plotNumber"),
			PlotHeight:          r.float("plotHeight"),
			PlotPermission:      r.list("plotPermission"),
			PlotSizeSqFt:        r.float("plotSizeSqFt"),
			PlotBUASqFt:         r.float("plotBUASqFt"),
			PlotStatus:          r.text("plotStatus"),
			Areas: model.Areas{
				BUAAreaSqFt:        r.float("buaAreaSqFt"),
				FacilitiesAreaSqFt: r.float("facilitiesAreaSqFt"),
				AmentiesAreaSqFt:   r.float("amentiesAreaSqFt"),
			},
			Pictures:             r.list("pictures"),
			FacilitiesCategories: r.list("facilitiesCategories"),
			AmentiesCategories:   r.list("amentiesCategories"),
		}
		return finish(r, s)
	},
	key: func(s *model.SubDevelopment) string { return s.NaturalKey() },
	existing: func(ctx context.Context, db *gorm.DB, items []*model.SubDevelopment) (map[string]bool, error) {
		names := uniqueStrings(len(items), func(i int) string { return nameKey(items[i].SubDevelopmentName) })
		found := make(map[string]bool)
		err := chunked(names, lookupChunk, func(chunk []string) error {
			var stored []struct {
				SubDevelopmentName string
				PlotNumber         string
			}
			if err := db.WithContext(ctx).Model(&model.SubDevelopment{}).
				Select("sub_development_name", "plot_number").
				Where("LOWER(sub_development_name) IN ?", chunk).
				Scan(&stored).Error; err != nil {
				return err
			}
			for _, s := range stored {
				found[model.SubDevelopmentKey(s.SubDevelopmentName, s.PlotNumber)] = true
			}
			return nil
		})
		return found, err
	},
}

var projectImport = &variant[model.Project]{
	collection: Projects,
	entity:     "project",
	headers:    ProjectHeaders,
	required:   []string{"masterDevelopment", "projectName", "propertyType", "projectQuality", "salesStatus"},
	parents:    []parentKind{parentMasters, parentSubs},
	build: func(row Row, userID string, refs *refs) (*model.Project, error) {
		masterName := row.Text("masterDevelopment")
		masterID, ok := refs.master(masterName)
		if !ok {
			return nil, errs.Invalid("masterDevelopment", "no master development named %q", masterName)
		}
		var subID *uuid.UUID
		if subName := row.Text("subDevelopment"); subName != "" {
			id, ok := refs.sub(masterID, subName)
			if !ok {
				return nil, errs.Invalid("subDevelopment", "no sub development named %q in %q", subName, masterName)
			}
			subID = &id
		}
		r := &reader{row: row}
		p := &model.Project{
			UserID:              userID,
			MasterDevelopmentID: masterID,
			SubDevelopmentID:    subID,
			PropertyType:        r.text("propertyType"),
			ProjectName:         r.text("projectName"),
			Plot: model.ProjectPlot{
				Number:     r.text("plotNumber"),
				Height:     r.float("plotHeight"),
				SizeSqFt:   r.float("plotSizeSqFt"),
				BUASqFt:    r.float("plotBUASqFt"),
				Status:     r.text("plotStatus"),
				Permission: r.list("plotPermission"),
			},
			FacilityCategories:  r.list("facilityCategories"),
			AmenitiesCategories: r.list("amenitiesCategories"),
			ProjectQuality:      r.text("projectQuality"),
			ConstructionStatus:  r.float("constructionStatus"),
			LaunchDate:          r.text("launchDate"),
			CompletionDate:      r.text("completionDate"),
			SalesStatus:         r.text("salesStatus"),
			DownPaymentPercent:  r.float("downPaymentPercent"),
			PriceFrom:           r.decimal("priceFrom"),
			PriceTo:             r.decimal("priceTo"),
			TotalUnits:          r.int("totalUnits"),
			AvailableUnits:      r.int("availableUnits"),
			Pictures:            r.list("pictures"),
		}
		return finish(r, p)
	},
	key: func(p *model.Project) string { return nameKey(p.ProjectName) },
	existing: func(ctx context.Context, db *gorm.DB, items []*model.Project) (map[string]bool, error) {
		names := uniqueStrings(len(items), func(i int) string { return nameKey(items[i].ProjectName) })
		found := make(map[string]bool)
		err := chunked(names, lookupChunk, func(chunk []string) error {
			var stored []string
			if err := db.WithContext(ctx).Model(&model.Project{}).
				Where("LOWER(project_name) IN ?", chunk).
				Pluck("project_name", &stored).Error; err != nil {
				return err
			}
			for _, name := range stored {
				found[nameKey(name)] = true
			}
			return nil
		})
		return found, err
	},
}

var inventoryImport = &variant[model.Inventory]{
	collection: Inventories,
	entity:     "inventory",
	headers:    InventoryHeaders,
	required:   []string{"project", "unitNumber", "unitType", "purpose"},
	parents:    []parentKind{parentProjects},
	build: func(row Row, userID string, refs *refs) (*model.Inventory, error) {
		projectID, ok := refs.project(row.Text("project"))
		if !ok {
			return nil, errs.Invalid("project", "no project named %q", row.Text("project"))
		}
		r := &reader{row: row}
		i := &model.Inventory{
			UserID:           userID,
			ProjectID:        projectID,
			UnitNumber:       r.text("unitNumber"),
			UnitType:         r.text("unitType"),
			UnitHeight:       r.float("unitHeight"),
			InternalAreaSqFt: r.float("internalAreaSqFt"),
			BalconyAreaSqFt:  r.float("balconyAreaSqFt"),
			Bedrooms:         r.int("bedrooms"),
			Bathrooms:        r.int("bathrooms"),
			Views:            r.list("views"),
			Purpose:          r.text("purpose"),
			Price:            r.decimal("price"),
			RentPerAnnum:     r.decimal("rentPerAnnum"),
			TenancyStatus:    r.text("tenancyStatus"),
			TenancyStart:     r.text("tenancyStart"),
			TenancyEnd:       r.text("tenancyEnd"),
			Pictures:         r.list("pictures"),
		}
		return finish(r, i)
	},
	key: func(i *model.Inventory) string { return i.NaturalKey() },
	existing: func(ctx context.Context, db *gorm.DB, items []*model.Inventory) (map[string]bool, error) {
		seen := make(map[uuid.UUID]bool)
		var projectIDs []uuid.UUID
		for _, i := range items {
			if !seen[i.ProjectID] {
				seen[i.ProjectID] = true
				projectIDs = append(projectIDs, i.ProjectID)
			}
		}
		found := make(map[string]bool)
		err := chunked(projectIDs, lookupChunk, func(chunk []uuid.UUID) error {
			var stored []struct {
				ProjectID  uuid.UUID
				UnitNumber string
			}
			if err := db.WithContext(ctx).Model(&model.Inventory{}).
				Select("project_id", "unit_number").
				Where("project_id IN ?", chunk).
				Scan(&stored).Error; err != nil {
				return err
			}
			for _, s := range stored {
				found[model.InventoryKey(s.ProjectID, s.UnitNumber)] = true
			}
			return nil
		})
		return found, err
	},
}

var customerImport = &variant[model.Customer]{
	collection: Customers,
	entity:     "customer",
	headers:    CustomerHeaders,
	required:   []string{"name", "contactNumber"},
	strict:     true,
	build: func(row Row, userID string, _ *refs) (*model.Customer, error) {
		r := &reader{row: row}
		c := &model.Customer{
			UserID:              userID,
			CustomerSegment:     r.text("customerSegment"),
			CustomerCategory:    r.text("customerCategory"),
			CustomerSubCategory: r.text("customerSubCategory"),
			CustomerType:        r.text("customerType"),
			CustomerSubType:     r.text("customerSubType"),
			BusinessSector:      r.text("businessSector"),
			Nationality:         r.text("nationality"),
			Name:                r.text("name"),
			ContactNumber:       r.text("contactNumber"),
			EmailAddress:        r.text("emailAddress"),
			WebAddress:          r.text("webAddress"),
			OfficeLocation:      r.text("officeLocation"),
		}
		c, err := finish(r, c)
		if err != nil {
			return nil, err
		}
		if c.NaturalKey() == "" {
			return nil, errs.Invalid("contactNumber", "%q holds no digits", c.ContactNumber)
		}
		return c, nil
	},
	key: func(c *model.Customer) string { return c.NaturalKey() },
	existing: func(ctx context.Context, db *gorm.DB, items []*model.Customer) (map[string]bool, error) {
		values := make([]string, 0, 2*len(items))
		for _, c := range items {
			values = append(values, c.ContactNumber)
			if key := c.NaturalKey(); key != c.ContactNumber {
				values = append(values, key)
			}
		}
		found := make(map[string]bool)
		err := chunked(values, lookupChunk, func(chunk []string) error {
			var stored []string
			if err := db.WithContext(ctx).Model(&model.Customer{}).
				Where("contact_number IN ?", chunk).
				Pluck("contact_number", &stored).Error; err != nil {
				return err
			}
			for _, contact := range stored {
				found[model.CustomerKey(contact)] = true
			}
			return nil
		})
		return found, err
	},
}

func uniqueStrings(n int, at func(i int) string) []string {
	seen := make(map[string]bool, n)
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		s := at(i)
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
