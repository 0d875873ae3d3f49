package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ziadkadry99/backdrop/internal/page"
	"github.com/ziadkadry99/backdrop/internal/slides"
)

// Config holds server configuration.
type Config struct {
	Port     int
	SiteDir  string // directory served as static files (pictures/, poem.md, css)
	AllowAll bool   // allow all CORS origins (dev mode)
}

// RotatorSource returns the live rotator, or nil before the slideshow has
// started.
type RotatorSource func() *slides.Rotator

// Server serves the enhanced page, its static assets and the live slide
// feed.
type Server struct {
	cfg        Config
	doc        *page.Document
	rotator    RotatorSource
	hub        *Hub
	logger     *zap.Logger
	router     chi.Router
	httpServer *http.Server
}

// New creates a server for doc. rotator may be nil.
func New(cfg Config, doc *page.Document, rotator RotatorSource, hub *Hub, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rotator == nil {
		rotator = func() *slides.Rotator { return nil }
	}
	if hub == nil {
		hub = NewHub(logger)
	}
	s := &Server{
		cfg:     cfg,
		doc:     doc,
		rotator: rotator,
		hub:     hub,
		logger:  logger,
	}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// The websocket must not run under the request timeout.
	r.Get("/ws/slides", s.hub.ServeWS(s.currentState))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/", s.handleIndex)
		r.Get("/index.html", s.handleIndex)
		r.Get("/api/slides", s.handleSlides)
		r.Get("/"+clientScriptPath, handleClientScript)

		if s.cfg.SiteDir != "" {
			r.Handle("/*", http.FileServer(http.Dir(s.cfg.SiteDir)))
		}
	})

	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Hub returns the live slide feed.
func (s *Server) Hub() *Hub { return s.hub }

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.doc.Render(w); err != nil {
		s.logger.Error("rendering page", zap.Error(err))
	}
}

// slidesResponse is the JSON body of /api/slides.
type slidesResponse struct {
	Running bool          `json:"running"`
	State   *slides.State `json:"state,omitempty"`
}

func (s *Server) handleSlides(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var resp slidesResponse
	if rot := s.rotator(); rot != nil {
		st := rot.Snapshot()
		resp.Running = rot.Running()
		resp.State = &st
	}
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) currentState() (slides.State, bool) {
	rot := s.rotator()
	if rot == nil {
		return slides.State{}, false
	}
	return rot.Snapshot(), true
}

// Listen binds the configured port. Binding before Serve lets the caller
// learn the page address before the first request is made.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("listening on port %d: %w", s.cfg.Port, err)
	}
	return ln, nil
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("backdrop server listening", zap.String("addr", ln.Addr().String()))
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server and disconnects feed clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// requestLogger logs one line per request through zap.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Debug("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
