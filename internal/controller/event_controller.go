package controller

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/unclebandit/dripline/internal/events"
	"github.com/unclebandit/dripline/internal/service"
)

type ReplyHandler interface {
	HandleReply(ctx context.Context, ev events.Reply) (*service.ReplyResult, error)
}

type StageChangeHandler interface {
	HandleStageChange(ctx context.Context, ev events.StageChange) (*service.EnrollmentResult, error)
}

// EventController exposes the inbound webhooks. Both endpoints are safe to
// call again with the same event.
type EventController struct {
	Replies      ReplyHandler
	StageChanges StageChangeHandler
	Log          *zap.Logger
}

func (c *EventController) Reply(w http.ResponseWriter, r *http.Request) {
	var ev events.Reply
	if err := decode(r, &ev); err != nil {
		writeError(w, c.Log, err)
		return
	}
	res, err := c.Replies.HandleReply(r.Context(), ev)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}

func (c *EventController) StageChange(w http.ResponseWriter, r *http.Request) {
	var ev events.StageChange
	if err := decode(r, &ev); err != nil {
		writeError(w, c.Log, err)
		return
	}
	res, err := c.StageChanges.HandleStageChange(r.Context(), ev)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}
