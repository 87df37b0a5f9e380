package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/studynotion/apiserver/config"
	"github.com/studynotion/apiserver/internal/handlers"
	"github.com/studynotion/apiserver/internal/logger"
	"github.com/studynotion/apiserver/internal/mail"
	"github.com/studynotion/apiserver/internal/mq"
	"github.com/studynotion/apiserver/internal/services"
	"github.com/studynotion/apiserver/internal/storage"
)

// Deps are the backends the HTTP API runs on.
type Deps struct {
	Store    services.Store
	Media    services.MediaHost
	Notifier services.Notifier
	// LocalMedia, when set, is served under storage.LocalMediaRoute.
	LocalMedia handlers.MediaSource
}

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *logger.Logger
	closers    []func() error
}

// New connects every backend selected by cfg and constructs a Server.
func New(ctx context.Context, cfg config.Config, log *logger.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var closers []func() error
	fail := func(err error) (*Server, error) {
		closeAll(closers, log)
		return nil, err
	}

	st, closeStore, err := OpenStore(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeStore)

	media, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return fail(fmt.Errorf("open media storage: %w", err))
	}

	var queue mq.Backend
	if strings.EqualFold(cfg.Mail.Backend, "queue") {
		queue, err = mq.Open(ctx, cfg.MQ)
		if err != nil {
			return fail(fmt.Errorf("open message queue: %w", err))
		}
		closers = append(closers, queue.Close)
	}

	notifier, err := mail.New(cfg.Mail, queue, log)
	if err != nil {
		return fail(err)
	}

	deps := Deps{Store: st, Media: media, Notifier: notifier}
	if strings.EqualFold(cfg.Storage.Backend, "local") {
		deps.LocalMedia = media
	}

	router := NewRouter(cfg, deps, log)

	port := cfg.ServerPort
	if port == 0 {
		port = 4000
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		log:        log,
		closers:    closers,
	}, nil
}

// NewRouter builds the API routes over deps.
func NewRouter(cfg config.Config, deps Deps, log *logger.Logger) *chi.Mux {
	tokens := services.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	authService := services.NewAuthService(deps.Store, deps.Notifier, tokens, cfg.OTP, log)
	courseService := services.NewCourseService(deps.Store, deps.Media, log)
	courseServices := handlers.CourseServices{
		Courses:    courseService,
		Content:    services.NewContentService(deps.Store, courseService, deps.Media, log),
		Categories: services.NewCategoryService(deps.Store),
		Ratings:    services.NewRatingService(deps.Store),
		Progress:   services.NewProgressService(deps.Store),
	}

	authMiddleware := handlers.RequireAuth(tokens)
	authHandler := handlers.NewAuthHandler(authService, cfg.Auth.CookieTTL, cfg.IsProduction(), log)
	courseHandler := handlers.NewCourseHandler(courseServices, log)

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	router := chi.NewRouter()
	router.Use(
		cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		middleware.RequestID,
		middleware.RealIP,
		handlers.RequestLogger(log),
		middleware.Recoverer,
		middleware.Timeout(timeout),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api/v1/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authHandler, authMiddleware)
	})
	router.Route("/api/v1/course", func(r chi.Router) {
		handlers.CourseRouter(r, courseHandler, authMiddleware)
	})
	if deps.LocalMedia != nil {
		router.Route(storage.LocalMediaRoute, func(r chi.Router) {
			handlers.MediaRouter(r, deps.LocalMedia, log)
		})
	}
	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then releases the backends.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	closeAll(s.closers, s.log)
	return err
}

func closeAll(closers []func() error, log *logger.Logger) {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			log.Warn("close backend", "error", err)
		}
	}
}
