// Package handler assembles the HTTP surface: routes, middleware and the
// operational endpoints.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/unclebandit/dripline/internal/controller"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Routes struct {
	Campaigns    *controller.CampaignController
	Sequences    *controller.SequenceController
	Participants *controller.ParticipantController
	Events       *controller.EventController
	DB           Pinger
	Log          *zap.Logger
}

func NewRouter(rt Routes) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(rt.Log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", health(rt.DB))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/campaigns", func(r chi.Router) {
		r.Post("/", rt.Campaigns.CreateCampaign)
		r.Get("/", rt.Campaigns.ListCampaigns)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", rt.Campaigns.GetCampaignDetails)
			r.Patch("/", rt.Campaigns.UpdateCampaign)
			r.Post("/start", rt.Campaigns.StartCampaign)
			r.Post("/pause", rt.Campaigns.PauseCampaign)
			r.Post("/complete", rt.Campaigns.CompleteCampaign)
			r.Post("/personalized-preview", rt.Campaigns.PersonalizedPreview)

			r.Get("/steps", rt.Sequences.ListSteps)
			r.Post("/steps", rt.Sequences.CreateStep)
			r.Put("/steps/{stepID}", rt.Sequences.UpdateStep)
			r.Delete("/steps/{stepID}", rt.Sequences.DeleteStep)

			r.Get("/participants", rt.Participants.ListParticipants)
		})
	})

	r.Get("/participants/{participantID}", rt.Participants.History)
	r.Get("/accounts/usage", rt.Participants.AccountUsage)

	r.Route("/templates", func(r chi.Router) {
		r.Get("/", rt.Sequences.ListTemplates)
		r.Post("/", rt.Sequences.CreateTemplate)
		r.Get("/{templateID}", rt.Sequences.GetTemplate)
		r.Put("/{templateID}", rt.Sequences.UpdateTemplate)
		r.Delete("/{templateID}", rt.Sequences.DeleteTemplate)
	})

	r.Route("/events", func(r chi.Router) {
		r.Post("/replies", rt.Events.Reply)
		r.Post("/stage-changes", rt.Events.StageChange)
	})

	return r
}

func health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
