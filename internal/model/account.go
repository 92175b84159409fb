// internal/model/account.go
package model

const (
	AccountSMS   = "sms"
	AccountEmail = "email"
)

// SendingAccount is the identity messages go out from. Quotas are per account.
type SendingAccount struct {
	ID             int    `db:"id" json:"id"`
	OrganizationID int    `db:"organization_id" json:"organization_id"`
	Name           string `db:"name" json:"name"`
	Kind           string `db:"kind" json:"kind"`
	Active         bool   `db:"active" json:"active"`
}

// Destination picks the contact address this account delivers to.
func (a SendingAccount) Destination(c *Contact) string {
	switch a.Kind {
	case AccountEmail:
		return c.Email
	case AccountSMS:
		return c.Phone
	}
	if c.Phone != "" {
		return c.Phone
	}
	return c.Email
}
