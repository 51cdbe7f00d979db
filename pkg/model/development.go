package model

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Assignable is the entity side of the customer assignment relation.
type Assignable interface {
	EntityID() uuid.UUID
	Kind() EntityKind
	DisplayName() string
	CustomerIDs() []uuid.UUID
	SetCustomerIDs(ids []uuid.UUID)
}

type MasterDevelopment struct {
	Base
	UserID          string `json:"userId" gorm:"index"`
	Country         string `json:"country" validate:"required"`
	City            string `json:"city" validate:"required"`
	RoadLocation    string `json:"roadLocation"`
	DevelopmentName string `json:"developmentName" gorm:"not null;uniqueIndex" validate:"required"`
	LocationQuality string `json:"locationQuality" validate:"required,enum=locationQuality"`
	Areas
	Pictures             datatypes.JSONSlice[string]    `json:"pictures"`
	FacilitiesCategories datatypes.JSONSlice[string]    `json:"facilitiesCategories" validate:"dive,enum=facilitiesCategory"`
	AmentiesCategories   datatypes.JSONSlice[string]    `json:"amentiesCategories" validate:"dive,enum=amenitiesCategory"`
	Customers            datatypes.JSONSlice[uuid.UUID] `json:"customers"`
}

func (MasterDevelopment) TableName() string {
	return "master_developments"
}

func (m *MasterDevelopment) BeforeSave(tx *gorm.DB) error {
	m.DeriveTotal()
	return nil
}

// Normalize trims names, canonicalizes enum spellings, de-duplicates the
// category sets and derives the total area.
func (m *MasterDevelopment) Normalize() {
	m.DevelopmentName = strings.TrimSpace(m.DevelopmentName)
	m.LocationQuality = canonicalOrKeep(EnumLocationQuality, m.LocationQuality)
	m.FacilitiesCategories = canonicalSet(EnumFacilitiesCategory, m.FacilitiesCategories)
	m.AmentiesCategories = canonicalSet(EnumAmenitiesCategory, m.AmentiesCategories)
	m.DeriveTotal()
}

func (m *MasterDevelopment) Validate() error {
	return Validate(m)
}

func (m *MasterDevelopment) EntityID() uuid.UUID             { return m.ID }
func (m *MasterDevelopment) Kind() EntityKind                { return KindMasterDevelopment }
func (m *MasterDevelopment) DisplayName() string             { return m.DevelopmentName }
func (m *MasterDevelopment) CustomerIDs() []uuid.UUID        { return m.Customers }
func (m *MasterDevelopment) SetCustomerIDs(ids []uuid.UUID) { m.Customers = ids }

type SubDevelopment struct {
	Base
	MasterDevelopmentID uuid.UUID                   `json:"masterDevelopment" gorm:"type:uuid;not null;index" validate:"required"`
	UserID              string                      `json:"userId" gorm:"index"`
	SubDevelopmentName  string                      `json:"subDevelopment" gorm:"column:sub_development_name;not null;uniqueIndex:idx_sub_development_plot" validate:"required"`
	PlotNumber          string                      `json:"plotNumber" gorm:"not null;uniqueIndex:idx_sub_development_plot" validate:"required"`
	PlotHeight          float64                     `json:"plotHeight" validate:"gte=0"`
	PlotPermission      datatypes.JSONSlice[string] `json:"plotPermission" validate:"min=1,dive,enum=plotPermission"`
	PlotSizeSqFt        float64                     `json:"plotSizeSqFt" gorm:"column:plot_size_sq_ft" validate:"gte=0"`
	PlotBUASqFt         float64                     `json:"plotBUASqFt" gorm:"column:plot_bua_sq_ft" validate:"gte=0"`
	PlotStatus          string                      `json:"plotStatus" gorm:"index" validate:"required,enum=plotStatus"`
	Areas
	Pictures             datatypes.JSONSlice[string]    `json:"pictures"`
	FacilitiesCategories datatypes.JSONSlice[string]    `json:"facilitiesCategories" validate:"dive,enum=facilitiesCategory"`
	AmentiesCategories   datatypes.JSONSlice[string]    `json:"amentiesCategories" validate:"dive,enum=amenitiesCategory"`
	Customers            datatypes.JSONSlice[uuid.UUID] `json:"customers"`
}

func (SubDevelopment) TableName() string {
	return "sub_developments"
}

func (s *SubDevelopment) BeforeSave(tx *gorm.DB) error {
	s.DeriveTotal()
	return nil
}

func (s *SubDevelopment) Normalize() {
	s.SubDevelopmentName = strings.TrimSpace(s.SubDevelopmentName)
	s.PlotNumber = strings.TrimSpace(s.PlotNumber)
	s.PlotStatus = canonicalOrKeep(EnumPlotStatus, s.PlotStatus)
	s.PlotPermission = canonicalSet(EnumPlotPermission, s.PlotPermission)
	s.FacilitiesCategories = canonicalSet(EnumFacilitiesCategory, s.FacilitiesCategories)
	s.AmentiesCategories = canonicalSet(EnumAmenitiesCategory, s.AmentiesCategories)
	s.DeriveTotal()
}

func (s *SubDevelopment) Validate() error {
	return Validate(s)
}

// NaturalKey identifies a plot independent of its storage id.
func (s *SubDevelopment) NaturalKey() string {
	return SubDevelopmentKey(s.SubDevelopmentName, s.PlotNumber)
}

func SubDevelopmentKey(name, plotNumber string) string {
	return strings.ToLower(strings.TrimSpace(name)) + "\x00" + strings.ToLower(strings.TrimSpace(plotNumber))
}

func (s *SubDevelopment) EntityID() uuid.UUID             { return s.ID }
func (s *SubDevelopment) Kind() EntityKind                { return KindSubDevelopment }
func (s *SubDevelopment) DisplayName() string             { return s.SubDevelopmentName }
func (s *SubDevelopment) CustomerIDs() []uuid.UUID        { return s.Customers }
func (s *SubDevelopment) SetCustomerIDs(ids []uuid.UUID) { s.Customers = ids }
