// internal/model/contact.go
package model

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
)

type Contact struct {
	ID             int        `db:"id" json:"id"`
	OrganizationID int        `db:"organization_id" json:"organization_id"`
	FirstName      string     `db:"first_name" json:"first_name"`
	LastName       string     `db:"last_name" json:"last_name"`
	Email          string     `db:"email" json:"email"`
	Phone          string     `db:"phone" json:"phone"`
	ExternalID     string     `db:"external_id" json:"external_id"`
	CompanyName    string     `db:"company_name" json:"company_name"`
	Attributes     Attributes `db:"attributes" json:"attributes,omitempty"`
}

// Field resolves a field name as used by templates and step conditions.
// "contact." is optional; "company.name" reads the company.
func (c *Contact) Field(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.TrimPrefix(key, "contact.")
	switch key {
	case "first_name":
		return c.FirstName
	case "last_name":
		return c.LastName
	case "email":
		return c.Email
	case "phone":
		return c.Phone
	case "external_id":
		return c.ExternalID
	case "company.name", "company_name", "company":
		return c.CompanyName
	}
	return c.Attributes[key]
}

// Attributes holds custom contact fields, stored as JSONB.
type Attributes map[string]string

func (a Attributes) Value() (driver.Value, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]string(a))
}

func (a *Attributes) Scan(src any) error { return scanJSON(src, a) }
