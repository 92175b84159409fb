package controller

import (
	"context"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/dripline/internal/errors"
	"github.com/unclebandit/dripline/internal/model"
)

// SequenceAPI is the part of service.SequenceService the controller uses.
type SequenceAPI interface {
	CreateTemplate(ctx context.Context, t *model.Template) (*model.Template, error)
	UpdateTemplate(ctx context.Context, t *model.Template) (*model.Template, error)
	DeleteTemplate(ctx context.Context, id int) error
	GetTemplate(ctx context.Context, id int) (*model.Template, error)
	ListTemplates(ctx context.Context, campaignID *int) ([]model.Template, error)
	ListSteps(ctx context.Context, campaignID int) ([]model.Step, error)
	CreateStep(ctx context.Context, st *model.Step) (*model.Step, error)
	UpdateStep(ctx context.Context, st *model.Step) (*model.Step, error)
	DeleteStep(ctx context.Context, id int) error
}

type SequenceController struct {
	SequenceService SequenceAPI
	Log             *zap.Logger
}

func (c *SequenceController) ListTemplates(w http.ResponseWriter, r *http.Request) {
	var campaignID *int
	if v := r.URL.Query().Get("campaign_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, c.Log, appErrors.NewValidation("campaign_id", "must be an integer"))
			return
		}
		campaignID = &id
	}
	templates, err := c.SequenceService.ListTemplates(r.Context(), campaignID)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": templates})
}

func (c *SequenceController) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "templateID")
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	t, err := c.SequenceService.GetTemplate(r.Context(), id)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (c *SequenceController) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var body model.Template
	if err := decode(r, &body); err != nil {
		writeError(w, c.Log, err)
		return
	}
	t, err := c.SequenceService.CreateTemplate(r.Context(), &body)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (c *SequenceController) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "templateID")
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	var body model.Template
	if err := decode(r, &body); err != nil {
		writeError(w, c.Log, err)
		return
	}
	body.ID = id
	t, err := c.SequenceService.UpdateTemplate(r.Context(), &body)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (c *SequenceController) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "templateID")
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	if err := c.SequenceService.DeleteTemplate(r.Context(), id); err != nil {
		writeError(w, c.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *SequenceController) ListSteps(w http.ResponseWriter, r *http.Request) {
	campaignID, err := pathID(r, "id")
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	steps, err := c.SequenceService.ListSteps(r.Context(), campaignID)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": steps})
}

// CreateStep inserts at order_index when given, otherwise appends.
func (c *SequenceController) CreateStep(w http.ResponseWriter, r *http.Request) {
	campaignID, err := pathID(r, "id")
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	body := model.Step{OrderIndex: -1}
	if err := decode(r, &body); err != nil {
		writeError(w, c.Log, err)
		return
	}
	body.CampaignID = campaignID
	st, err := c.SequenceService.CreateStep(r.Context(), &body)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (c *SequenceController) UpdateStep(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "stepID")
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	var body model.Step
	if err := decode(r, &body); err != nil {
		writeError(w, c.Log, err)
		return
	}
	body.ID = id
	st, err := c.SequenceService.UpdateStep(r.Context(), &body)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (c *SequenceController) DeleteStep(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "stepID")
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	if err := c.SequenceService.DeleteStep(r.Context(), id); err != nil {
		writeError(w, c.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
