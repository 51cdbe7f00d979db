package importer

import (
	"strings"
)

var headerCleaner = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", ".", "")

// NormalizeHeader strips line breaks and periods, collapses whitespace and
// trims the result.
func NormalizeHeader(header string) string {
	return strings.Join(strings.Fields(headerCleaner.Replace(header)), " ")
}

// Fallback maps any header containing Contains to Field.
type Fallback struct {
	Contains string
	Field    string
}

// HeaderMap resolves spreadsheet headers to field names. It is built once and
// never mutated, so one map can serve concurrent imports.
type HeaderMap struct {
	exact     map[string]string
	fallbacks []Fallback
}

func NewHeaderMap(table map[string]string, fallbacks ...Fallback) *HeaderMap {
	m := &HeaderMap{exact: make(map[string]string, len(table))}
	for header, field := range table {
		m.exact[strings.ToLower(NormalizeHeader(header))] = field
	}
	for _, fb := range fallbacks {
		m.fallbacks = append(m.fallbacks, Fallback{
			Contains: strings.ToLower(NormalizeHeader(fb.Contains)),
			Field:    fb.Field,
		})
	}
	return m
}

// Lookup reports the field for header. Exact matches win over fallbacks;
// fallbacks are tried in declaration order.
func (m *HeaderMap) Lookup(header string) (string, bool) {
	key := strings.ToLower(NormalizeHeader(header))
	if key == "" {
		return "", false
	}
	if field, ok := m.exact[key]; ok {
		return field, true
	}
	for _, fb := range m.fallbacks {
		if strings.Contains(key, fb.Contains) {
			return fb.Field, true
		}
	}
	return "", false
}

var areaFallbacks = []Fallback{
	{Contains: "BUA Area", Field: "buaAreaSqFt"},
	{Contains: "Facilities Area", Field: "facilitiesAreaSqFt"},
	{Contains: "Amenities Area", Field: "amentiesAreaSqFt"},
	{Contains: "Amenties Area", Field: "amentiesAreaSqFt"},
}

var areaHeaders = map[string]string{
	"BUA Area Sq Ft":        "buaAreaSqFt",
	"Facilities Area Sq Ft": "facilitiesAreaSqFt",
	"Amenities Area Sq Ft":  "amentiesAreaSqFt",
	"Amenties Area Sq Ft":   "amentiesAreaSqFt",
	"Facilities Categories": "facilitiesCategories",
	"Facilities Category":   "facilitiesCategories",
	"Amenities Categories":  "amentiesCategories",
	"Amenties Categories":   "amentiesCategories",
	"Amenities Category":    "amentiesCategories",
	"Pictures":              "pictures",
}

func merge(tables ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, t := range tables {
		for k, v := range t {
			out[k] = v
		}
	}
	return out
}

var MasterDevelopmentHeaders = NewHeaderMap(merge(areaHeaders, map[string]string{
	"Country":                 "country",
	"City":                    "city",
	"Road Location":           "roadLocation",
	"Road":                    "roadLocation",
	"Development Name":        "developmentName",
	"Master Development":      "developmentName",
	"Master Development Name": "developmentName",
	"Location Quality":        "locationQuality",
}), areaFallbacks...)

var SubDevelopmentHeaders = NewHeaderMap(merge(areaHeaders, map[string]string{
	"Master Development":      "masterDevelopment",
	"Master Development Name": "masterDevelopment",
	"Sub Development":         "subDevelopment",
	"Sub Development Name":    "subDevelopment",
	"Plot Number":             "plotNumber",
	"Plot No":                 "plotNumber",
	"Plot Height":             "plotHeight",
	"Plot Size Sq Ft":         "plotSizeSqFt",
	"Plot Size":               "plotSizeSqFt",
	"Plot BUA Sq Ft":          "plotBUASqFt",
	"Plot BUA":                "plotBUASqFt",
	"Plot Status":             "plotStatus",
}), append([]Fallback{{Contains: "Plot Permission", Field: "plotPermission"}}, areaFallbacks...)...)

var ProjectHeaders = NewHeaderMap(map[string]string{
	"Master Development":    "masterDevelopment",
	"Sub Development":       "subDevelopment",
	"Property Type":         "propertyType",
	"Project Name":          "projectName",
	"Project":               "projectName",
	"Plot Number":           "plotNumber",
	"Plot No":               "plotNumber",
	"Plot Height":           "plotHeight",
	"Plot Size Sq Ft":       "plotSizeSqFt",
	"Plot Size":             "plotSizeSqFt",
	"Plot BUA Sq Ft":        "plotBUASqFt",
	"Plot BUA":              "plotBUASqFt",
	"Plot Status":           "plotStatus",
	"Facility Categories":   "facilityCategories",
	"Facilities Categories": "facilityCategories",
	"Amenities Categories":  "amenitiesCategories",
	"Project Quality":       "projectQuality",
	"Construction Status":   "constructionStatus",
	"Launch Date":           "launchDate",
	"Completion Date":       "completionDate",
	"Sales Status":          "salesStatus",
	"Down Payment":          "downPaymentPercent",
	"Down Payment Percent":  "downPaymentPercent",
	"Down Payment %":        "downPaymentPercent",
	"Price From":            "priceFrom",
	"Price To":              "priceTo",
	"Total Units":           "totalUnits",
	"Available Units":       "availableUnits",
	"Pictures":              "pictures",
}, Fallback{Contains: "Plot Permission", Field: "plotPermission"})

var InventoryHeaders = NewHeaderMap(map[string]string{
	"Project":             "project",
	"Project Name":        "project",
	"Unit Number":         "unitNumber",
	"Unit No":             "unitNumber",
	"Unit Type":           "unitType",
	"Unit Height":         "unitHeight",
	"Internal Area Sq Ft": "internalAreaSqFt",
	"Internal Area":       "internalAreaSqFt",
	"Balcony Area Sq Ft":  "balconyAreaSqFt",
	"Balcony Area":        "balconyAreaSqFt",
	"Bedrooms":            "bedrooms",
	"Bathrooms":           "bathrooms",
	"Views":               "views",
	"View":                "views",
	"Purpose":             "purpose",
	"Unit Purpose":        "purpose",
	"Price":               "price",
	"Rent Per Annum":      "rentPerAnnum",
	"Rent":                "rentPerAnnum",
	"Tenancy Status":      "tenancyStatus",
	"Tenancy Start":       "tenancyStart",
	"Tenancy End":         "tenancyEnd",
	"Pictures":            "pictures",
})

// CustomerHeaders doubles as the allow-list for customer uploads.
var CustomerHeaders = NewHeaderMap(map[string]string{
	"Customer Segment":      "customerSegment",
	"Customer Category":     "customerCategory",
	"Customer Sub Category": "customerSubCategory",
	"Customer Type":         "customerType",
	"Customer Sub Type":     "customerSubType",
	"Business Sector":       "businessSector",
	"Nationality":           "nationality",
	"Name":                  "name",
	"Customer Name":         "name",
	"Contact Number":        "contactNumber",
	"Contact":               "contactNumber",
	"Email Address":         "emailAddress",
	"Email":                 "emailAddress",
	"Web Address":           "webAddress",
	"Website":               "webAddress",
	"Office Location":       "officeLocation",
})
