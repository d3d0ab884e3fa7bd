package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ripixel/fitplan-server/functions/coach"
	"github.com/ripixel/fitplan-server/functions/planner"
	"github.com/ripixel/fitplan-server/functions/propagator"
	"github.com/ripixel/fitplan-server/pkg/bootstrap"
	"github.com/ripixel/fitplan-server/pkg/pipeline"
)

// NewRouter mounts every function handler against one shared service and
// pipeline, so singleflight and rate limiting span all routes.
func NewRouter(svc *bootstrap.Service, p *pipeline.Pipeline) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	r.Route("/programs", func(r chi.Router) {
		r.Post("/", planner.NewGenerateHandler(svc, p))
		r.Post("/advance", planner.NewAdvanceHandler(svc, p))
		r.Post("/propagate", propagator.NewPushHandler(svc, p))
	})

	r.Route("/coach", func(r chi.Router) {
		r.Post("/readiness", coach.NewReadinessHandler(svc, p))
		r.Post("/lifts", coach.NewSubmitLiftsHandler(svc, p))
		r.Get("/records", coach.NewRecordHistoryHandler(svc, p))
		r.Post("/session", coach.NewTodaySessionHandler(svc, p))
		r.Get("/week", coach.NewCurrentWeekHandler(svc, p))
	})
	return r
}
