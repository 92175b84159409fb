package controller

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/unclebandit/dripline/internal/model"
	"github.com/unclebandit/dripline/internal/service"
)

type ParticipantAPI interface {
	ListParticipants(ctx context.Context, campaignID, page, pageSize int) ([]model.Participant, error)
	History(ctx context.Context, participantID int) (*service.ParticipantHistory, error)
	SendsToday(ctx context.Context) (map[int]int, error)
}

type ParticipantController struct {
	ParticipantService ParticipantAPI
	Log                *zap.Logger
}

func (c *ParticipantController) ListParticipants(w http.ResponseWriter, r *http.Request) {
	campaignID, err := pathID(r, "id")
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 50)

	participants, err := c.ParticipantService.ListParticipants(r.Context(), campaignID, page, pageSize)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":       participants,
		"pagination": map[string]int{"page": page, "page_size": pageSize},
	})
}

func (c *ParticipantController) History(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "participantID")
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	history, err := c.ParticipantService.History(r.Context(), id)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (c *ParticipantController) AccountUsage(w http.ResponseWriter, r *http.Request) {
	counts, err := c.ParticipantService.SendsToday(r.Context())
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sends_today": counts})
}
