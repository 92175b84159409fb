package service_test

import (
	"context"
	"strings"
	"sync"
	"time"

	appErrors "github.com/unclebandit/dripline/internal/errors"
	"github.com/unclebandit/dripline/internal/leads"
	"github.com/unclebandit/dripline/internal/model"
)

// MockCampaignRepo keeps campaigns in memory.
type MockCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[int]*model.Campaign
	stats     map[string]int
	statsFrom time.Time
	nextID    int
}

func NewMockCampaignRepo(cs ...*model.Campaign) *MockCampaignRepo {
	m := &MockCampaignRepo{campaigns: map[int]*model.Campaign{}, nextID: 100}
	for _, c := range cs {
		m.campaigns[c.ID] = c
	}
	return m
}

func (m *MockCampaignRepo) ListCampaigns(_ context.Context, offset, limit int, status string) ([]*model.Campaign, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*model.Campaign
	for id := m.nextID; id >= 0; id-- {
		if c, ok := m.campaigns[id]; ok && (status == "" || c.Status == status) {
			all = append(all, c)
		}
	}
	if offset >= len(all) {
		return []*model.Campaign{}, len(all), nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (m *MockCampaignRepo) GetByID(_ context.Context, id int) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	cp := *c
	return &cp, nil
}

func (m *MockCampaignRepo) UpdateStatus(_ context.Context, id int, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	c.Status = status
	return nil
}

func (m *MockCampaignRepo) Update(_ context.Context, c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.campaigns[c.ID]; !ok {
		return appErrors.NewCampaignNotFound(c.ID)
	}
	cp := *c
	m.campaigns[c.ID] = &cp
	return nil
}

func (m *MockCampaignRepo) Create(_ context.Context, c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = m.nextID
	c.CreatedAt = time.Now()
	cp := *c
	m.campaigns[c.ID] = &cp
	return nil
}

func (m *MockCampaignRepo) GetCampaignStats(_ context.Context, _ int, since time.Time) (map[string]int, error) {
	m.statsFrom = since
	return m.stats, nil
}

func (m *MockCampaignRepo) ListByAudienceStage(_ context.Context, pipelineID, stageID int) ([]*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Campaign
	for _, c := range m.campaigns {
		a := c.Audience
		if c.Status == model.CampaignActive && a.Kind == model.AudienceKindPipelineStage && a.PipelineID == pipelineID && a.StageID == stageID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockCampaignRepo) status(id int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.campaigns[id].Status
}

type MockContactRepo struct {
	contacts map[int]model.Contact
}

func NewMockContactRepo(cs ...model.Contact) *MockContactRepo {
	m := &MockContactRepo{contacts: map[int]model.Contact{}}
	for _, c := range cs {
		m.contacts[c.ID] = c
	}
	return m
}

func (m *MockContactRepo) GetByID(_ context.Context, id int) (*model.Contact, error) {
	c, ok := m.contacts[id]
	if !ok {
		return nil, appErrors.NewContactNotFound(id)
	}
	return &c, nil
}

func (m *MockContactRepo) ListByIDs(_ context.Context, orgID int, ids []int) ([]model.Contact, error) {
	out := []model.Contact{}
	for _, id := range ids {
		if c, ok := m.contacts[id]; ok && c.OrganizationID == orgID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MockContactRepo) Search(_ context.Context, orgID int, f model.AudienceFilter, _ bool) ([]model.Contact, error) {
	out := []model.Contact{}
	for id := 0; id <= 1000; id++ {
		c, ok := m.contacts[id]
		if !ok || c.OrganizationID != orgID {
			continue
		}
		if f.Company != "" && !strings.Contains(strings.ToLower(c.CompanyName), strings.ToLower(f.Company)) {
			continue
		}
		if f.HasEmail && c.Email == "" {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

type MockAccountRepo struct {
	accounts []model.SendingAccount
}

func (m *MockAccountRepo) GetByID(_ context.Context, id int) (*model.SendingAccount, error) {
	for _, a := range m.accounts {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, &appErrors.ErrResourceNotFound{Resource: "sending account", ID: id}
}

func (m *MockAccountRepo) ListActive(_ context.Context, orgID int) ([]model.SendingAccount, error) {
	var out []model.SendingAccount
	for _, a := range m.accounts {
		if a.OrganizationID == orgID && a.Active {
			out = append(out, a)
		}
	}
	return out, nil
}

// MockParticipantRepo enforces one participant per (campaign, contact).
type MockParticipantRepo struct {
	mu     sync.Mutex
	rows   map[int]*model.Participant
	nextID int
}

func NewMockParticipantRepo(ps ...model.Participant) *MockParticipantRepo {
	m := &MockParticipantRepo{rows: map[int]*model.Participant{}}
	for i := range ps {
		p := ps[i]
		m.rows[p.ID] = &p
		if p.ID > m.nextID {
			m.nextID = p.ID
		}
	}
	return m
}

func (m *MockParticipantRepo) InsertIgnore(_ context.Context, p *model.Participant) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.CampaignID == p.CampaignID && r.ContactID == p.ContactID {
			return false, nil
		}
	}
	m.nextID++
	p.ID = m.nextID
	cp := *p
	m.rows[p.ID] = &cp
	return true, nil
}

func (m *MockParticipantRepo) DeleteByCampaign(_ context.Context, campaignID int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, r := range m.rows {
		if r.CampaignID == campaignID {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

func (m *MockParticipantRepo) GetByID(_ context.Context, id int) (*model.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, appErrors.NewParticipantNotFound(id)
	}
	cp := *r
	return &cp, nil
}

func (m *MockParticipantRepo) ListByCampaign(_ context.Context, campaignID, offset, limit int) ([]model.Participant, error) {
	var out []model.Participant
	for _, p := range m.all() {
		if p.CampaignID == campaignID {
			out = append(out, p)
		}
	}
	if offset >= len(out) {
		return []model.Participant{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockParticipantRepo) ListOpenByContact(_ context.Context, contactID int) ([]model.Participant, error) {
	var out []model.Participant
	for _, p := range m.all() {
		if p.ContactID == contactID && p.Active() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockParticipantRepo) UpdateLocked(_ context.Context, id int, fn func(p *model.Participant) (bool, error)) (*model.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, appErrors.NewParticipantNotFound(id)
	}
	cp := *r
	changed, err := fn(&cp)
	if err != nil {
		return nil, err
	}
	if changed {
		*r = cp
	}
	out := *r
	return &out, nil
}

func (m *MockParticipantRepo) all() []model.Participant {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Participant
	for id := 0; id <= m.nextID; id++ {
		if r, ok := m.rows[id]; ok {
			out = append(out, *r)
		}
	}
	return out
}

type MockStepRepo struct {
	steps map[int][]model.Step
}

func (m *MockStepRepo) ListByCampaign(_ context.Context, campaignID int) ([]model.Step, error) {
	return m.steps[campaignID], nil
}

func (m *MockStepRepo) GetByID(_ context.Context, id int) (*model.Step, error) {
	for _, steps := range m.steps {
		for _, s := range steps {
			if s.ID == id {
				return &s, nil
			}
		}
	}
	return nil, appErrors.NewStepNotFound(id)
}

func (m *MockStepRepo) Insert(_ context.Context, s *model.Step) error {
	steps := m.steps[s.CampaignID]
	if s.OrderIndex < 0 || s.OrderIndex > len(steps) {
		s.OrderIndex = len(steps)
	}
	s.ID = 500 + len(steps)
	m.steps[s.CampaignID] = append(steps, *s)
	return nil
}

func (m *MockStepRepo) Update(_ context.Context, s *model.Step) error {
	steps := m.steps[s.CampaignID]
	for i := range steps {
		if steps[i].ID == s.ID {
			steps[i] = *s
			return nil
		}
	}
	return appErrors.NewStepNotFound(s.ID)
}

func (m *MockStepRepo) Delete(_ context.Context, id int) error {
	for cid, steps := range m.steps {
		for i, s := range steps {
			if s.ID == id {
				m.steps[cid] = append(steps[:i], steps[i+1:]...)
				return nil
			}
		}
	}
	return appErrors.NewStepNotFound(id)
}

type MockTemplateRepo struct {
	templates map[int]model.Template
}

func (m *MockTemplateRepo) Create(_ context.Context, t *model.Template) error {
	t.ID = 900 + len(m.templates)
	m.templates[t.ID] = *t
	return nil
}

func (m *MockTemplateRepo) Update(_ context.Context, t *model.Template) error {
	if _, ok := m.templates[t.ID]; !ok {
		return appErrors.NewTemplateNotFound(t.ID)
	}
	m.templates[t.ID] = *t
	return nil
}

func (m *MockTemplateRepo) Delete(_ context.Context, id int) error {
	if _, ok := m.templates[id]; !ok {
		return appErrors.NewTemplateNotFound(id)
	}
	delete(m.templates, id)
	return nil
}

func (m *MockTemplateRepo) GetByID(_ context.Context, id int) (*model.Template, error) {
	t, ok := m.templates[id]
	if !ok {
		return nil, appErrors.NewTemplateNotFound(id)
	}
	return &t, nil
}

func (m *MockTemplateRepo) List(_ context.Context, campaignID *int) ([]model.Template, error) {
	var out []model.Template
	for _, t := range m.templates {
		if (campaignID == nil && t.CampaignID == nil) || (campaignID != nil && t.CampaignID != nil && *t.CampaignID == *campaignID) {
			out = append(out, t)
		}
	}
	return out, nil
}

type MockPipelineRepo struct {
	positions map[[2]int]int
}

func NewMockPipelineRepo() *MockPipelineRepo {
	return &MockPipelineRepo{positions: map[[2]int]int{}}
}

func (m *MockPipelineRepo) StageOf(_ context.Context, contactID, pipelineID int) (int, bool, error) {
	s, ok := m.positions[[2]int{contactID, pipelineID}]
	return s, ok, nil
}

func (m *MockPipelineRepo) SetStage(_ context.Context, contactID, pipelineID, stageID int) error {
	m.positions[[2]int{contactID, pipelineID}] = stageID
	return nil
}

func (m *MockPipelineRepo) ContactsInStage(_ context.Context, pipelineID, stageID int) ([]int, error) {
	var ids []int
	for k, s := range m.positions {
		if k[1] == pipelineID && s == stageID {
			ids = append(ids, k[0])
		}
	}
	return ids, nil
}

func (m *MockPipelineRepo) CreateOrGetLead(context.Context, int, int, int, int) (*model.Lead, bool, error) {
	return &model.Lead{ID: 1}, true, nil
}

type recordingLeads struct {
	mu   sync.Mutex
	reqs []leads.Request
}

func (r *recordingLeads) Publish(_ context.Context, req leads.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
	return nil
}

type completerFunc func(ctx context.Context, campaignID int) (bool, error)

func (f completerFunc) CompleteIfDrained(ctx context.Context, campaignID int) (bool, error) {
	return f(ctx, campaignID)
}

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }

type MockSendRecordRepo struct {
	records []model.SendRecord
	since   time.Time
}

func (m *MockSendRecordRepo) CountsSince(_ context.Context, since time.Time) (map[int]int, error) {
	m.since = since
	counts := map[int]int{}
	for _, r := range m.records {
		if !r.SentAt.Before(since) {
			counts[r.SendingAccountID]++
		}
	}
	return counts, nil
}

func (m *MockSendRecordRepo) ListByParticipant(_ context.Context, participantID int) ([]model.SendRecord, error) {
	out := []model.SendRecord{}
	for _, r := range m.records {
		if r.ParticipantID == participantID {
			out = append(out, r)
		}
	}
	return out, nil
}
