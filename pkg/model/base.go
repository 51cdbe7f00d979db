package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Base struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Meta exposes the storage-owned fields of any entity embedding Base.
func (b *Base) Meta() *Base {
	return b
}

// Areas is shared by MasterDevelopment and SubDevelopment. TotalAreaSqFt is
// always the sum of the other three.
type Areas struct {
	BUAAreaSqFt        float64 `json:"buaAreaSqFt" gorm:"column:bua_area_sq_ft" validate:"gte=0"`
	FacilitiesAreaSqFt float64 `json:"facilitiesAreaSqFt" gorm:"column:facilities_area_sq_ft" validate:"gte=0"`
	AmentiesAreaSqFt   float64 `json:"amentiesAreaSqFt" gorm:"column:amenties_area_sq_ft" validate:"gte=0"`
	TotalAreaSqFt      float64 `json:"totalAreaSqFt" gorm:"column:total_area_sq_ft"`
}

func (a *Areas) DeriveTotal() {
	a.TotalAreaSqFt = a.BUAAreaSqFt + a.FacilitiesAreaSqFt + a.AmentiesAreaSqFt
}

func ContainsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

func RemoveID(ids []uuid.UUID, id uuid.UUID) ([]uuid.UUID, bool) {
	out := make([]uuid.UUID, 0, len(ids))
	removed := false
	for _, existing := range ids {
		if existing == id {
			removed = true
			continue
		}
		out = append(out, existing)
	}
	return out, removed
}
