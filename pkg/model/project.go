package model

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/propgraph/propgraph/pkg/errs"
)

const NotAvailable = "N/A"

// ProjectPlot is the plot a project is built on, stored inline with a
// plot_ column prefix.
type ProjectPlot struct {
	Number     string                      `json:"plotNumber" gorm:"column:number"`
	Height     float64                     `json:"plotHeight" gorm:"column:height" validate:"gte=0"`
	SizeSqFt   float64                     `json:"plotSizeSqFt" gorm:"column:size_sq_ft" validate:"gte=0"`
	BUASqFt    float64                     `json:"plotBUASqFt" gorm:"column:bua_sq_ft" validate:"gte=0"`
	Status     string                      `json:"plotStatus" gorm:"column:status;index" validate:"omitempty,enum=plotStatus"`
	Permission datatypes.JSONSlice[string] `json:"plotPermission" gorm:"column:permission" validate:"dive,enum=plotPermission"`
}

type Project struct {
	Base
	UserID              string                      `json:"userId" gorm:"index"`
	MasterDevelopmentID uuid.UUID                   `json:"masterDevelopment" gorm:"type:uuid;not null;index" validate:"required"`
	SubDevelopmentID    *uuid.UUID                  `json:"subDevelopment,omitempty" gorm:"type:uuid;index"`
	PropertyType        string                      `json:"propertyType" gorm:"index" validate:"required,enum=propertyType"`
	ProjectName         string                      `json:"projectName" gorm:"not null;uniqueIndex" validate:"required"`
	Plot                ProjectPlot                 `json:"plot" gorm:"embedded;embeddedPrefix:plot_"`
	FacilityCategories  datatypes.JSONSlice[string] `json:"facilityCategories" validate:"dive,enum=facilitiesCategory"`
	AmenitiesCategories datatypes.JSONSlice[string] `json:"amenitiesCategories" validate:"dive,enum=amenitiesCategory"`
	ProjectQuality      string                      `json:"projectQuality" validate:"required,enum=locationQuality"`
	ConstructionStatus  float64                     `json:"constructionStatus" validate:"gte=0,lte=100"`
	LaunchDate          string                      `json:"launchDate"`
	CompletionDate      string                      `json:"completionDate"`
	SalesStatus         string                      `json:"salesStatus" validate:"required,enum=salesStatus"`
	DownPaymentPercent  float64                     `json:"downPaymentPercent" validate:"gte=0,lte=100"`
	PriceFrom           decimal.Decimal             `json:"priceFrom" gorm:"type:numeric(16,2)"`
	PriceTo             decimal.Decimal             `json:"priceTo" gorm:"type:numeric(16,2)"`
	TotalUnits          int                         `json:"totalUnits" validate:"gte=0"`
	AvailableUnits      int                         `json:"availableUnits" validate:"gte=0"`
	Pictures            datatypes.JSONSlice[string] `json:"pictures"`
}

func (Project) TableName() string {
	return "projects"
}

func (p *Project) BeforeSave(tx *gorm.DB) error {
	p.defaultDates()
	return nil
}

func (p *Project) defaultDates() {
	if strings.TrimSpace(p.LaunchDate) == "" {
		p.LaunchDate = NotAvailable
	}
	if strings.TrimSpace(p.CompletionDate) == "" {
		p.CompletionDate = NotAvailable
	}
}

func (p *Project) Normalize() {
	p.ProjectName = strings.TrimSpace(p.ProjectName)
	p.PropertyType = canonicalOrKeep(EnumPropertyType, p.PropertyType)
	p.ProjectQuality = canonicalOrKeep(EnumLocationQuality, p.ProjectQuality)
	p.SalesStatus = canonicalOrKeep(EnumSalesStatus, p.SalesStatus)
	p.Plot.Status = canonicalOrKeep(EnumPlotStatus, p.Plot.Status)
	p.Plot.Permission = canonicalSet(EnumPlotPermission, p.Plot.Permission)
	p.FacilityCategories = canonicalSet(EnumFacilitiesCategory, p.FacilityCategories)
	p.AmenitiesCategories = canonicalSet(EnumAmenitiesCategory, p.AmenitiesCategories)
	if p.SubDevelopmentID != nil && *p.SubDevelopmentID == uuid.Nil {
		p.SubDevelopmentID = nil
	}
	p.defaultDates()
}

func (p *Project) Validate() error {
	if err := Validate(p); err != nil {
		return err
	}
	if !p.PriceTo.IsZero() && p.PriceTo.LessThan(p.PriceFrom) {
		return errs.Invalid("priceTo", "must be >= priceFrom")
	}
	return nil
}
