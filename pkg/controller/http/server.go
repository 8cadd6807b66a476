package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/smartresolve/pkg/domain/model"
	"github.com/secmon-lab/smartresolve/pkg/utils/errutil"
	"github.com/secmon-lab/smartresolve/pkg/utils/logging"
)

// RecommendUseCase is the use case surface served over HTTP
type RecommendUseCase interface {
	Create(ctx context.Context, req model.RecommendationRequest) (*model.Recommendation, error)
	Get(ctx context.Context, id model.RecommendationID) (*model.Recommendation, error)
	ListByComplaint(ctx context.Context, complaintID string, limit, offset int) ([]*model.Recommendation, int, error)
}

type Server struct {
	router      *chi.Mux
	recommendUC RecommendUseCase
}

type Options func(*Server)

func New(recommendUC RecommendUseCase, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:      r,
		recommendUC: recommendUC,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	r.Route("/api/recommendations", func(r chi.Router) {
		r.Post("/", createRecommendationHandler(s.recommendUC))
		r.Get("/", listRecommendationsHandler(s.recommendUC))
		r.Get("/{id}", getRecommendationHandler(s.recommendUC))
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requestLogger attaches a logger carrying the request ID to the request
// context and echoes the ID in the X-Request-ID response header
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := middleware.GetReqID(r.Context())
		if reqID != "" {
			w.Header().Set(middleware.RequestIDHeader, reqID)
		}

		logger := logging.Default().With("request_id", reqID)
		ctx := logging.With(r.Context(), logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.From(r.Context()).Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	errutil.WriteJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}
