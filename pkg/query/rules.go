package query

import "github.com/propgraph/propgraph/pkg/model"

// Kind selects how a filter value is turned into a predicate.
type Kind int

const (
	Exact Kind = iota
	Range
	Search
	ID
)

type Field struct {
	Column string
	Kind   Kind
	// Enum canonicalizes exact values against a model enum set.
	Enum string
}

// Rules is the declarative filter table for one collection, keyed by the
// json field name clients send.
type Rules struct {
	Table  string
	Fields map[string]Field
}

const createdColumn = "created_at"

var baseSortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"id":        "id",
}

// SortColumn resolves a json field name to its column. Unknown names resolve
// to "".
func (r *Rules) SortColumn(sortBy string) string {
	if f, ok := r.Fields[sortBy]; ok {
		return f.Column
	}
	return baseSortColumns[sortBy]
}

func exact(column string) Field { return Field{Column: column, Kind: Exact} }
func enum(column, set string) Field { return Field{Column: column, Kind: Exact, Enum: set} }
func numeric(column string) Field { return Field{Column: column, Kind: Range} }
func search(column string) Field { return Field{Column: column, Kind: Search} }
func reference(column string) Field { return Field{Column: column, Kind: ID} }

var areaFields = map[string]Field{
	"buaAreaSqFt":        numeric("bua_area_sq_ft"),
	"facilitiesAreaSqFt": numeric("facilities_area_sq_ft"),
	"amentiesAreaSqFt":   numeric("amenties_area_sq_ft"),
	"totalAreaSqFt":      numeric("total_area_sq_ft"),
}

func withAreas(fields map[string]Field) map[string]Field {
	for k, v := range areaFields {
		fields[k] = v
	}
	return fields
}

var MasterDevelopments = &Rules{
	Table: "master_developments",
	Fields: withAreas(map[string]Field{
		"country":         exact("country"),
		"city":            exact("city"),
		"roadLocation":    exact("road_location"),
		"developmentName": exact("development_name"),
		"locationQuality": enum("location_quality", model.EnumLocationQuality),
		"userId":          exact("user_id"),
	}),
}

var SubDevelopments = &Rules{
	Table: "sub_developments",
	Fields: withAreas(map[string]Field{
		"masterDevelopment": reference("master_development_id"),
		"subDevelopment":    exact("sub_development_name"),
		"plotNumber":        exact("plot_number"),
		"plotStatus":        enum("plot_status", model.EnumPlotStatus),
		"plotHeight":        numeric("plot_height"),
		"plotSizeSqFt":      numeric("plot_size_sq_ft"),
		"plotBUASqFt":       numeric("plot_bua_sq_ft"),
		"userId":            exact("user_id"),
	}),
}

var Projects = &Rules{
	Table: "projects",
	Fields: map[string]Field{
		"masterDevelopment":  reference("master_development_id"),
		"subDevelopment":     reference("sub_development_id"),
		"propertyType":       enum("property_type", model.EnumPropertyType),
		"projectName":        exact("project_name"),
		"projectQuality":     enum("project_quality", model.EnumLocationQuality),
		"salesStatus":        enum("sales_status", model.EnumSalesStatus),
		"plotStatus":         enum("plot_status", model.EnumPlotStatus),
		"constructionStatus": numeric("construction_status"),
		"priceFrom":          numeric("price_from"),
		"priceTo":            numeric("price_to"),
		"totalUnits":         numeric("total_units"),
		"availableUnits":     numeric("available_units"),
		"downPaymentPercent": numeric("down_payment_percent"),
		"userId":             exact("user_id"),
	},
}

var Inventories = &Rules{
	Table: "inventories",
	Fields: map[string]Field{
		"project":       reference("project_id"),
		"unitNumber":    exact("unit_number"),
		"unitType":      enum("unit_type", model.EnumUnitType),
		"purpose":       enum("purpose", model.EnumUnitPurpose),
		"tenancyStatus": enum("tenancy_status", model.EnumTenancyStatus),
		"bedrooms":      numeric("bedrooms"),
		"bathrooms":     numeric("bathrooms"),
		"price":         numeric("price"),
		"rentPerAnnum":  numeric("rent_per_annum"),
		"totalAreaSqFt": numeric("total_area_sq_ft"),
		"unitHeight":    numeric("unit_height"),
		"pricePerSqFt":  numeric("price_per_sq_ft"),
		"userId":        exact("user_id"),
	},
}

var Customers = &Rules{
	Table: "customers",
	Fields: map[string]Field{
		"name":                search("name"),
		"contactNumber":       search("contact_number"),
		"nationality":         search("nationality"),
		"emailAddress":        search("email_address"),
		"webAddress":          search("web_address"),
		"officeLocation":      search("office_location"),
		"businessSector":      search("business_sector"),
		"customerSegment":     enum("customer_segment", model.EnumCustomerSegment),
		"customerCategory":    enum("customer_category", model.EnumCustomerCategory),
		"customerSubCategory": enum("customer_sub_category", model.EnumCustomerSubCategory),
		"customerType":        enum("customer_type", model.EnumCustomerType),
		"customerSubType":     enum("customer_sub_type", model.EnumCustomerSubType),
		"userId":              exact("user_id"),
	},
}
