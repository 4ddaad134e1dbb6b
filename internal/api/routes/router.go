package routes

import (
	"net/http"

	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/api/handlers"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/api/middleware"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/infrastructure/observability"
)

// Router holds all route handlers

type Router struct {
	mux *http.ServeMux

	patientHandler *handlers.PatientHandler

	trialHandler *handlers.TrialHandler

	screeningHandler *handlers.ScreeningHandler

	explanationHandler *handlers.ExplanationHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router

func NewRouter(

	patientHandler *handlers.PatientHandler,

	trialHandler *handlers.TrialHandler,

	screeningHandler *handlers.ScreeningHandler,

	explanationHandler *handlers.ExplanationHandler,

	cacheMiddleware *middleware.CacheMiddleware,

	metrics *observability.Metrics,

) *Router {

	return &Router{

		mux: http.NewServeMux(),

		patientHandler: patientHandler,

		trialHandler: trialHandler,

		screeningHandler: screeningHandler,

		explanationHandler: explanationHandler,

		cacheMiddleware: cacheMiddleware,
		metrics:         metrics,
	}

}

// SetupRoutes configures all application routes

func (r *Router) SetupRoutes() http.Handler {

	// Health check endpoint

	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {

		w.WriteHeader(http.StatusOK)

		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}

	})

	// Patient endpoints

	r.mux.HandleFunc("GET /api/patients", r.patientHandler.ListPatients)

	r.mux.HandleFunc("GET /api/patients/{id}", r.patientHandler.GetPatient)

	// Trial endpoints

	r.mux.HandleFunc("GET /api/trials", r.trialHandler.ListTrials)

	r.mux.HandleFunc("GET /api/trials/search", r.trialHandler.SearchTrials)

	r.mux.HandleFunc("GET /api/trials/{id}", r.trialHandler.GetTrial)

	// Screening endpoints

	r.mux.HandleFunc("GET /api/patients/{id}/trials", r.screeningHandler.RankTrialsForPatient)

	r.mux.HandleFunc("GET /api/patients/{id}/trials/{trialId}/screening", r.screeningHandler.GetScreening)

	r.mux.HandleFunc("GET /api/trials/{id}/patients", r.screeningHandler.RankPatientsForTrial)

	// Explanation endpoint
	if r.explanationHandler != nil {
		r.mux.HandleFunc("POST /api/patients/{id}/trials/{trialId}/explanation", r.explanationHandler.CreateExplanation)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so cached responses also get CORS headers.

	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	// Apply cache middleware if available
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// Apply HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(handler)

	return handler
}
