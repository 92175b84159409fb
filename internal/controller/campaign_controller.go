// internal/controller/campaign_controller.go
package controller

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/unclebandit/dripline/internal/model"
	"github.com/unclebandit/dripline/internal/service"
)

// CampaignAPI is the part of service.CampaignService the controller uses.
type CampaignAPI interface {
	CreateCampaign(ctx context.Context, c *model.Campaign) (*model.Campaign, error)
	ListCampaigns(ctx context.Context, page, pageSize int, status string) ([]model.Campaign, map[string]int, error)
	GetCampaignDetailsWithStats(ctx context.Context, campaignID int) (*service.CampaignDetails, error)
	StartCampaign(ctx context.Context, campaignID int) (*service.StartCampaignResult, error)
	PauseCampaign(ctx context.Context, campaignID int) error
	CompleteCampaign(ctx context.Context, campaignID int) error
	UpdateCampaign(ctx context.Context, campaignID int, u service.CampaignUpdate) (*model.Campaign, error)
	RenderPreview(ctx context.Context, campaignID, stepIndex, contactID int, overrideTemplate *string) (string, error)
}

type CampaignController struct {
	CampaignService CampaignAPI
	Log             *zap.Logger
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body model.Campaign
	if err := decode(r, &body); err != nil {
		writeError(w, c.Log, err)
		return
	}

	campaign, err := c.CampaignService.CreateCampaign(r.Context(), &body)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 20)
	status := r.URL.Query().Get("status")

	campaigns, pagination, err := c.CampaignService.ListCampaigns(r.Context(), page, pageSize, status)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":       campaigns,
		"pagination": pagination,
	})
}

func (c *CampaignController) GetCampaignDetails(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, c.Log, err)
		return
	}

	details, err := c.CampaignService.GetCampaignDetailsWithStats(r.Context(), id)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (c *CampaignController) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	var body service.CampaignUpdate
	if err := decode(r, &body); err != nil {
		writeError(w, c.Log, err)
		return
	}

	campaign, err := c.CampaignService.UpdateCampaign(r.Context(), id, body)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) StartCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, c.Log, err)
		return
	}

	result, err := c.CampaignService.StartCampaign(r.Context(), id)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (c *CampaignController) PauseCampaign(w http.ResponseWriter, r *http.Request) {
	c.changeStatus(w, r, model.CampaignPaused, c.CampaignService.PauseCampaign)
}

func (c *CampaignController) CompleteCampaign(w http.ResponseWriter, r *http.Request) {
	c.changeStatus(w, r, model.CampaignCompleted, c.CampaignService.CompleteCampaign)
}

func (c *CampaignController) changeStatus(w http.ResponseWriter, r *http.Request, status string, fn func(context.Context, int) error) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	if err := fn(r.Context(), id); err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"campaign_id": id, "status": status})
}

func (c *CampaignController) PersonalizedPreview(w http.ResponseWriter, r *http.Request) {
	campaignID, err := pathID(r, "id")
	if err != nil {
		writeError(w, c.Log, err)
		return
	}

	var body struct {
		ContactID        int     `json:"contact_id"`
		StepIndex        int     `json:"step_index"`
		OverrideTemplate *string `json:"override_template"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, c.Log, err)
		return
	}

	rendered, err := c.CampaignService.RenderPreview(r.Context(), campaignID, body.StepIndex, body.ContactID, body.OverrideTemplate)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"rendered_message": rendered,
		"used_template":    body.OverrideTemplate,
		"contact_id":       body.ContactID,
		"step_index":       body.StepIndex,
	})
}
