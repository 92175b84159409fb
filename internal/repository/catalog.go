package repository

import (
	"context"

	"github.com/unclebandit/dripline/internal/model"
)

// Catalog gives the sequence machine read access to steps, templates and
// contacts.
type Catalog struct {
	steps     *StepRepository
	templates *TemplateRepository
	contacts  *ContactRepository
}

func NewCatalog(steps *StepRepository, templates *TemplateRepository, contacts *ContactRepository) *Catalog {
	return &Catalog{steps: steps, templates: templates, contacts: contacts}
}

func (c *Catalog) Steps(ctx context.Context, campaignID int) ([]model.Step, error) {
	return c.steps.ListByCampaign(ctx, campaignID)
}

func (c *Catalog) Template(ctx context.Context, id int) (*model.Template, error) {
	return c.templates.GetByID(ctx, id)
}

func (c *Catalog) Contact(ctx context.Context, id int) (*model.Contact, error) {
	return c.contacts.GetByID(ctx, id)
}
