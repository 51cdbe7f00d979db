package model

import (
	"sort"
	"strings"
)

type EntityKind string

const (
	KindMasterDevelopment EntityKind = "masterDevelopment"
	KindSubDevelopment    EntityKind = "subDevelopment"
)

func (k EntityKind) Valid() bool {
	return k == KindMasterDevelopment || k == KindSubDevelopment
}

const (
	PlotStatusReady             = "Ready"
	PlotStatusUnderConstruction = "Under Construction"
	PlotStatusVacant            = "Vacant"
)

const (
	PropertyTypeApartment  = "Apartment"
	PropertyTypeVillas     = "Villas"
	PropertyTypeHotel      = "Hotel"
	PropertyTypeTownhouses = "Townhouses"
	PropertyTypeLabourCamp = "Labour Camp"
)

const (
	PurposeSell = "Sell"
	PurposeRent = "Rent"
)

// Enum set names, used as the parameter of the `enum` validation tag.
const (
	EnumLocationQuality     = "locationQuality"
	EnumFacilitiesCategory  = "facilitiesCategory"
	EnumAmenitiesCategory   = "amenitiesCategory"
	EnumPlotPermission      = "plotPermission"
	EnumPlotStatus          = "plotStatus"
	EnumPropertyType        = "propertyType"
	EnumSalesStatus         = "salesStatus"
	EnumUnitType            = "unitType"
	EnumView                = "view"
	EnumUnitPurpose         = "unitPurpose"
	EnumTenancyStatus       = "tenancyStatus"
	EnumCustomerSegment     = "customerSegment"
	EnumCustomerCategory    = "customerCategory"
	EnumCustomerSubCategory = "customerSubCategory"
	EnumCustomerType        = "customerType"
	EnumCustomerSubType     = "customerSubType"
)

var enumSets = map[string][]string{
	EnumLocationQuality: {"Low", "Medium", "High", "Premium"},
	EnumFacilitiesCategory: {
		"Hospitals", "Clinics", "Schools", "Universities", "Mosques", "Malls",
		"Supermarkets", "Restaurants", "Banks", "Police Station", "Fire Station", "Public Transport",
	},
	EnumAmenitiesCategory: {
		"Swimming Pool", "Gym", "Parks", "Playground", "Jogging Track", "Tennis Court",
		"Spa", "Beach Access", "BBQ Area", "Clubhouse",
	},
	EnumPlotPermission: {"Residential", "Commercial", "Industrial", "Hotel", "Mixed Use", "Retail", "Labour Camp"},
	EnumPlotStatus:     {PlotStatusReady, PlotStatusUnderConstruction, PlotStatusVacant},
	EnumPropertyType: {
		PropertyTypeApartment, PropertyTypeVillas, PropertyTypeHotel, PropertyTypeTownhouses,
		PropertyTypeLabourCamp, "Office", "Retail", "Warehouse",
	},
	EnumSalesStatus:         {"Not Launched", "Launched", "Sold Out"},
	EnumUnitType:            {"Studio", "1 BR", "2 BR", "3 BR", "4 BR", "5 BR", "Penthouse", "Duplex", "Shop", "Office"},
	EnumView:                {"Sea View", "Park View", "City View", "Golf View", "Community View", "Pool View"},
	EnumUnitPurpose:         {PurposeSell, PurposeRent},
	EnumTenancyStatus:       {"Vacant", "Tenanted"},
	EnumCustomerSegment:     {"Individual", "Corporate", "Government"},
	EnumCustomerCategory:    {"Investor", "End User", "Broker"},
	EnumCustomerSubCategory: {"Local", "Resident Expat", "Overseas"},
	EnumCustomerType:        {"Buyer", "Tenant", "Seller", "Landlord"},
	EnumCustomerSubType:     {"First Time", "Repeat", "Referral"},
}

var enumIndex = buildEnumIndex()

func buildEnumIndex() map[string]map[string]string {
	index := make(map[string]map[string]string, len(enumSets))
	for name, values := range enumSets {
		byKey := make(map[string]string, len(values))
		for _, value := range values {
			byKey[enumKey(value)] = value
		}
		index[name] = byKey
	}
	return index
}

func enumKey(value string) string {
	return strings.Join(strings.Fields(strings.ToLower(value)), " ")
}

// Canonical maps raw onto the declared spelling in the named set, ignoring
// case and whitespace differences.
func Canonical(set, raw string) (string, bool) {
	values, ok := enumIndex[set]
	if !ok {
		return "", false
	}
	value, ok := values[enumKey(raw)]
	return value, ok
}

func EnumValues(set string) []string {
	values := append([]string(nil), enumSets[set]...)
	sort.Strings(values)
	return values
}

func canonicalOrKeep(set, raw string) string {
	if raw == "" {
		return raw
	}
	if value, ok := Canonical(set, raw); ok {
		return value
	}
	return raw
}

// canonicalSet canonicalizes and de-duplicates, keeping first-seen order.
// Unknown values are kept so validation can report them.
func canonicalSet(set string, raw []string) []string {
	if len(raw) == 0 {
		return raw
	}
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, value := range raw {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		value = canonicalOrKeep(set, value)
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
