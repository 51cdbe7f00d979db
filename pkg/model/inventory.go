package model

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Inventory struct {
	Base
	UserID           string                      `json:"userId" gorm:"index"`
	ProjectID        uuid.UUID                   `json:"project" gorm:"type:uuid;not null;index;uniqueIndex:idx_inventory_unit" validate:"required"`
	UnitNumber       string                      `json:"unitNumber" gorm:"not null;uniqueIndex:idx_inventory_unit" validate:"required"`
	UnitType         string                      `json:"unitType" gorm:"index" validate:"required,enum=unitType"`
	UnitHeight       float64                     `json:"unitHeight" validate:"gte=0"`
	InternalAreaSqFt float64                     `json:"internalAreaSqFt" gorm:"column:internal_area_sq_ft" validate:"gte=0"`
	BalconyAreaSqFt  float64                     `json:"balconyAreaSqFt" gorm:"column:balcony_area_sq_ft" validate:"gte=0"`
	TotalAreaSqFt    float64                     `json:"totalAreaSqFt" gorm:"column:total_area_sq_ft"`
	Bedrooms         int                         `json:"bedrooms" validate:"gte=0"`
	Bathrooms        int                         `json:"bathrooms" validate:"gte=0"`
	Views            datatypes.JSONSlice[string] `json:"views" validate:"dive,enum=view"`
	Purpose          string                      `json:"purpose" gorm:"index" validate:"required,enum=unitPurpose"`
	Price            decimal.Decimal             `json:"price" gorm:"type:numeric(16,2)"`
	PricePerSqFt     decimal.Decimal             `json:"pricePerSqFt" gorm:"type:numeric(16,2)"`
	RentPerAnnum     decimal.Decimal             `json:"rentPerAnnum" gorm:"type:numeric(16,2)"`
	TenancyStatus    string                      `json:"tenancyStatus" validate:"omitempty,enum=tenancyStatus"`
	TenancyStart     string                      `json:"tenancyStart"`
	TenancyEnd       string                      `json:"tenancyEnd"`
	Pictures         datatypes.JSONSlice[string] `json:"pictures"`
}

func (Inventory) TableName() string {
	return "inventories"
}

func (i *Inventory) BeforeSave(tx *gorm.DB) error {
	i.derive()
	return nil
}

// derive recomputes the unit total area and the price per square foot.
func (i *Inventory) derive() {
	i.TotalAreaSqFt = i.InternalAreaSqFt + i.BalconyAreaSqFt
	if i.TotalAreaSqFt > 0 && !i.Price.IsZero() {
		i.PricePerSqFt = i.Price.Div(decimal.NewFromFloat(i.TotalAreaSqFt)).Round(2)
	} else {
		i.PricePerSqFt = decimal.Zero
	}
}

func (i *Inventory) Normalize() {
	i.UnitNumber = strings.TrimSpace(i.UnitNumber)
	i.UnitType = canonicalOrKeep(EnumUnitType, i.UnitType)
	i.Purpose = canonicalOrKeep(EnumUnitPurpose, i.Purpose)
	i.TenancyStatus = canonicalOrKeep(EnumTenancyStatus, i.TenancyStatus)
	i.Views = canonicalSet(EnumView, i.Views)
	i.derive()
}

func (i *Inventory) Validate() error {
	return Validate(i)
}

func (i *Inventory) NaturalKey() string {
	return InventoryKey(i.ProjectID, i.UnitNumber)
}

func InventoryKey(projectID uuid.UUID, unitNumber string) string {
	return projectID.String() + "\x00" + strings.ToLower(strings.TrimSpace(unitNumber))
}
