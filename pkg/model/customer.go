package model

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Assignment is the customer side of the assignment relation. Name holds the
// entity kind, PropertyName the entity display name at link time.
type Assignment struct {
	ID           uuid.UUID  `json:"id"`
	Name         EntityKind `json:"name"`
	PropertyName string     `json:"propertyName"`
}

type Customer struct {
	Base
	UserID              string                          `json:"userId,omitempty" gorm:"index"`
	CustomerSegment     string                          `json:"customerSegment" validate:"omitempty,enum=customerSegment"`
	CustomerCategory    string                          `json:"customerCategory" validate:"omitempty,enum=customerCategory"`
	CustomerSubCategory string                          `json:"customerSubCategory" validate:"omitempty,enum=customerSubCategory"`
	CustomerType        string                          `json:"customerType" validate:"omitempty,enum=customerType"`
	CustomerSubType     string                          `json:"customerSubType" validate:"omitempty,enum=customerSubType"`
	BusinessSector      string                          `json:"businessSector"`
	Nationality         string                          `json:"nationality"`
	Name                string                          `json:"name" gorm:"index" validate:"required"`
	ContactNumber       string                          `json:"contactNumber" gorm:"index" validate:"required"`
	EmailAddress        string                          `json:"emailAddress" validate:"omitempty,email"`
	WebAddress          string                          `json:"webAddress"`
	OfficeLocation      string                          `json:"officeLocation"`
	Assigned            datatypes.JSONSlice[Assignment] `json:"assigned"`
}

func (Customer) TableName() string {
	return "customers"
}

func (c *Customer) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.ContactNumber = strings.TrimSpace(c.ContactNumber)
	c.EmailAddress = strings.TrimSpace(c.EmailAddress)
	c.CustomerSegment = canonicalOrKeep(EnumCustomerSegment, c.CustomerSegment)
	c.CustomerCategory = canonicalOrKeep(EnumCustomerCategory, c.CustomerCategory)
	c.CustomerSubCategory = canonicalOrKeep(EnumCustomerSubCategory, c.CustomerSubCategory)
	c.CustomerType = canonicalOrKeep(EnumCustomerType, c.CustomerType)
	c.CustomerSubType = canonicalOrKeep(EnumCustomerSubType, c.CustomerSubType)
}

func (c *Customer) Validate() error {
	return Validate(c)
}

func (c *Customer) NaturalKey() string {
	return CustomerKey(c.ContactNumber)
}

// CustomerKey normalizes a contact number to digits and a leading plus.
func CustomerKey(contact string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(contact) {
		if (r >= '0' && r <= '9') || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (c *Customer) HasAssignment(id uuid.UUID, kind EntityKind) bool {
	for _, a := range c.Assigned {
		if a.ID == id && a.Name == kind {
			return true
		}
	}
	return false
}

// AddAssignment appends the entry unless an entry for the same id and kind
// exists. It reports whether the list changed.
func (c *Customer) AddAssignment(entity Assignable) bool {
	if c.HasAssignment(entity.EntityID(), entity.Kind()) {
		return false
	}
	c.Assigned = append(c.Assigned, Assignment{
		ID:           entity.EntityID(),
		Name:         entity.Kind(),
		PropertyName: entity.DisplayName(),
	})
	return true
}

func (c *Customer) RemoveAssignment(id uuid.UUID, kind EntityKind) bool {
	kept := make([]Assignment, 0, len(c.Assigned))
	removed := false
	for _, a := range c.Assigned {
		if a.ID == id && a.Name == kind {
			removed = true
			continue
		}
		kept = append(kept, a)
	}
	c.Assigned = kept
	return removed
}

// RenameAssignment sets the propertyName of the entry for id and kind. It
// reports whether the entry existed and changed.
func (c *Customer) RenameAssignment(id uuid.UUID, kind EntityKind, name string) bool {
	for i := range c.Assigned {
		if c.Assigned[i].ID == id && c.Assigned[i].Name == kind {
			if c.Assigned[i].PropertyName == name {
				return false
			}
			c.Assigned[i].PropertyName = name
			return true
		}
	}
	return false
}
