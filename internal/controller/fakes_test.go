package controller_test

import (
	"context"

	appErrors "github.com/unclebandit/dripline/internal/errors"
	"github.com/unclebandit/dripline/internal/events"
	"github.com/unclebandit/dripline/internal/model"
	"github.com/unclebandit/dripline/internal/service"
)

type fakeCampaigns struct {
	campaigns map[int]*model.Campaign
	err       error

	lastPage, lastPageSize int
	lastStatus             string
	lastUpdate             service.CampaignUpdate
	previewArgs            []int
	previewOverride        *string
}

func newFakeCampaigns() *fakeCampaigns {
	return &fakeCampaigns{campaigns: map[int]*model.Campaign{
		1: {ID: 1, Name: "Q3 outreach", Status: model.CampaignDraft},
	}}
}

func (f *fakeCampaigns) get(id int) (*model.Campaign, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return c, nil
}

func (f *fakeCampaigns) CreateCampaign(_ context.Context, c *model.Campaign) (*model.Campaign, error) {
	if c.Name == "" {
		return nil, appErrors.NewValidation("name", "is required")
	}
	c.ID = len(f.campaigns) + 1
	c.Status = model.CampaignDraft
	f.campaigns[c.ID] = c
	return c, nil
}

func (f *fakeCampaigns) ListCampaigns(_ context.Context, page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
	f.lastPage, f.lastPageSize, f.lastStatus = page, pageSize, status
	var out []model.Campaign
	for _, c := range f.campaigns {
		out = append(out, *c)
	}
	return out, map[string]int{"page": page, "page_size": pageSize, "total_count": len(out), "total_pages": 1}, nil
}

func (f *fakeCampaigns) GetCampaignDetailsWithStats(_ context.Context, id int) (*service.CampaignDetails, error) {
	c, err := f.get(id)
	if err != nil {
		return nil, err
	}
	return &service.CampaignDetails{Campaign: c, Stats: map[string]int{"pending": 2}}, nil
}

func (f *fakeCampaigns) StartCampaign(_ context.Context, id int) (*service.StartCampaignResult, error) {
	c, err := f.get(id)
	if err != nil {
		return nil, err
	}
	c.Status = model.CampaignActive
	return &service.StartCampaignResult{CampaignID: id, Status: c.Status, Audience: &service.MaterializeResult{Resolved: 3, Enrolled: 3}}, nil
}

func (f *fakeCampaigns) PauseCampaign(_ context.Context, id int) error {
	c, err := f.get(id)
	if err != nil {
		return err
	}
	if c.Status != model.CampaignActive {
		return appErrors.NewInvalidTransition(c.Status, model.CampaignPaused)
	}
	c.Status = model.CampaignPaused
	return nil
}

func (f *fakeCampaigns) CompleteCampaign(_ context.Context, id int) error {
	c, err := f.get(id)
	if err != nil {
		return err
	}
	c.Status = model.CampaignCompleted
	return nil
}

func (f *fakeCampaigns) UpdateCampaign(_ context.Context, id int, u service.CampaignUpdate) (*model.Campaign, error) {
	c, err := f.get(id)
	if err != nil {
		return nil, err
	}
	f.lastUpdate = u
	if u.Name != nil {
		c.Name = *u.Name
	}
	return c, nil
}

func (f *fakeCampaigns) RenderPreview(_ context.Context, campaignID, stepIndex, contactID int, override *string) (string, error) {
	if _, err := f.get(campaignID); err != nil {
		return "", err
	}
	f.previewArgs = []int{campaignID, stepIndex, contactID}
	f.previewOverride = override
	if override != nil {
		return "override for Alice", nil
	}
	return "Hi Alice", nil
}

type fakeSequences struct {
	templates map[int]*model.Template
	steps     map[int]*model.Step
	listedFor *int
	created   *model.Step
}

func newFakeSequences() *fakeSequences {
	return &fakeSequences{
		templates: map[int]*model.Template{7: {ID: 7, Name: "intro", Content: "Hi {{contact.first_name}}"}},
		steps:     map[int]*model.Step{},
	}
}

func (f *fakeSequences) CreateTemplate(_ context.Context, t *model.Template) (*model.Template, error) {
	if t.Content == "" {
		return nil, appErrors.NewValidation("content", "is required")
	}
	t.ID = 100 + len(f.templates)
	f.templates[t.ID] = t
	return t, nil
}

func (f *fakeSequences) UpdateTemplate(_ context.Context, t *model.Template) (*model.Template, error) {
	if _, ok := f.templates[t.ID]; !ok {
		return nil, appErrors.NewTemplateNotFound(t.ID)
	}
	f.templates[t.ID] = t
	return t, nil
}

func (f *fakeSequences) DeleteTemplate(_ context.Context, id int) error {
	if _, ok := f.templates[id]; !ok {
		return appErrors.NewTemplateNotFound(id)
	}
	delete(f.templates, id)
	return nil
}

func (f *fakeSequences) GetTemplate(_ context.Context, id int) (*model.Template, error) {
	t, ok := f.templates[id]
	if !ok {
		return nil, appErrors.NewTemplateNotFound(id)
	}
	return t, nil
}

func (f *fakeSequences) ListTemplates(_ context.Context, campaignID *int) ([]model.Template, error) {
	f.listedFor = campaignID
	var out []model.Template
	for _, t := range f.templates {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeSequences) ListSteps(_ context.Context, campaignID int) ([]model.Step, error) {
	var out []model.Step
	for _, s := range f.steps {
		if s.CampaignID == campaignID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSequences) CreateStep(_ context.Context, st *model.Step) (*model.Step, error) {
	st.ID = 50 + len(f.steps)
	f.steps[st.ID] = st
	f.created = st
	return st, nil
}

func (f *fakeSequences) UpdateStep(_ context.Context, st *model.Step) (*model.Step, error) {
	if _, ok := f.steps[st.ID]; !ok {
		return nil, appErrors.NewStepNotFound(st.ID)
	}
	f.steps[st.ID] = st
	return st, nil
}

func (f *fakeSequences) DeleteStep(_ context.Context, id int) error {
	if _, ok := f.steps[id]; !ok {
		return appErrors.NewStepNotFound(id)
	}
	delete(f.steps, id)
	return nil
}

type fakeEvents struct {
	replies []events.Reply
	stages  []events.StageChange
	err     error
}

func (f *fakeEvents) HandleReply(_ context.Context, ev events.Reply) (*service.ReplyResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	f.replies = append(f.replies, ev)
	return &service.ReplyResult{Replied: []int{ev.ContactID}}, nil
}

func (f *fakeEvents) HandleStageChange(_ context.Context, ev events.StageChange) (*service.EnrollmentResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	f.stages = append(f.stages, ev)
	return &service.EnrollmentResult{Campaigns: []int{1}, Enrolled: 1}, nil
}
