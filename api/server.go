package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rpupo63/blogicum/config"
	"github.com/rpupo63/blogicum/database"
	"github.com/rpupo63/blogicum/services"
	"github.com/rpupo63/blogicum/ui"
	"github.com/rs/zerolog/log"
)

type Server struct {
	*http.Server
	startupTime time.Time
}

func NewServer(db database.Database, media services.MediaStore, c map[string]string) (Server, error) {
	port := config.GetString(c, "PORT", "8080")
	address := fmt.Sprintf("0.0.0.0:%s", port)

	startupTime := time.Now()

	router, err := newRouter(db, withConfig(c), withStartupTime(startupTime), withMediaStore(media))
	if err != nil {
		return Server{}, err
	}

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  config.GetSeconds(c, "READ_TIMEOUT_SECONDS", 180*time.Second),
		WriteTimeout: config.GetSeconds(c, "WRITE_TIMEOUT_SECONDS", 180*time.Second),
		IdleTimeout:  config.GetSeconds(c, "IDLE_TIMEOUT_SECONDS", 180*time.Second),
	}

	return Server{server, startupTime}, nil
}

type router struct {
	config      map[string]string
	startupTime time.Time
	media       services.MediaStore
}

func withConfig(c map[string]string) func(*router) {
	return func(r *router) {
		r.config = c
	}
}

func withStartupTime(startupTime time.Time) func(*router) {
	return func(r *router) {
		r.startupTime = startupTime
	}
}

func withMediaStore(media services.MediaStore) func(*router) {
	return func(r *router) {
		r.media = media
	}
}

func newRouter(db database.Database, opts ...func(*router)) (*chi.Mux, error) {
	var router router
	for _, opt := range opts {
		opt(&router)
	}
	if router.startupTime.IsZero() {
		router.startupTime = time.Now()
	}

	secret := config.GetString(router.config, "SECRET_KEY", "")
	if secret == "" {
		return nil, errors.New("SECRET_KEY is required")
	}
	secure := config.GetBool(router.config, "SECURE_COOKIES", false)
	acceptedOrigins := config.GetList(router.config, "ACCEPTED_ORIGINS")

	if router.media == nil {
		router.media = services.NewLocalStore(
			config.GetString(router.config, "MEDIA_ROOT", "media"),
			config.GetString(router.config, "MEDIA_URL", "/media/"),
		)
	}

	pages, err := newRenderer(ui.Files, router.media)
	if err != nil {
		return nil, err
	}

	sessions := newSessionManager(
		secret,
		time.Duration(config.GetInt(router.config, "SESSION_TTL_HOURS", 24*14))*time.Hour,
		secure,
	)
	perPage := config.GetInt(router.config, "POSTS_PER_PAGE", 10)
	if perPage < 1 {
		perPage = 10
	}

	handlers := initializeHandlers(db, pages, router.media, sessions, perPage, router.startupTime)
	authMiddleware := newAuthMiddleware(sessions, db.UserRepo())
	responder := NewResponder(log.With().Str("handlerName", "router").Logger(), pages)

	chiRouter := chi.NewRouter()
	chiRouter.Use(LogInternalServerErrors(responder))
	chiRouter.Use(instrument)
	// unmatched routes skip the group middlewares, so wrap them here
	chiRouter.NotFound(ColoredHTTPLoggingMiddleware(authMiddleware.loadUser(handlers.pageHandler.notFound())).ServeHTTP)
	chiRouter.MethodNotAllowed(ColoredHTTPLoggingMiddleware(authMiddleware.loadUser(handlers.pageHandler.methodNotAllowed())).ServeHTTP)

	chiRouter.Get("/healthz", handlers.healthHandler.healthz())
	chiRouter.Handle("/metrics", metricsHandler())

	if local, ok := router.media.(*services.LocalStore); ok {
		mediaURL := config.GetString(router.config, "MEDIA_URL", "/media/")
		if strings.HasPrefix(mediaURL, "/") {
			mediaURL = strings.TrimSuffix(mediaURL, "/") + "/"
			chiRouter.Group(func(r chi.Router) {
				r.Use(cors.Handler(cors.Options{
					AllowedOrigins: acceptedOrigins,
					AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
					MaxAge:         300,
				}))
				r.Handle(mediaURL+"*", http.StripPrefix(mediaURL, http.FileServer(http.Dir(local.Root()))))
			})
		}
	}

	chiRouter.Group(func(r chi.Router) {
		r.Use(ColoredHTTPLoggingMiddleware)
		r.Use(limitBody(int64(config.GetInt(router.config, "MAX_BODY_BYTES", 10<<20)), responder))
		r.Use(csrfProtect(csrfOptions{
			enabled:        config.GetBool(router.config, "CSRF_ENABLED", true),
			secret:         secret,
			secure:         secure,
			trustedOrigins: hosts(acceptedOrigins),
		}, responder))
		r.Use(authMiddleware.loadUser)

		setupBlogRoutes(r, handlers, authMiddleware)
	})

	return chiRouter, nil
}

// hosts strips the scheme from origins, which is the form the CSRF origin
// check compares against.
func hosts(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if o == "*" {
			continue
		}
		o = strings.TrimPrefix(strings.TrimPrefix(o, "https://"), "http://")
		out = append(out, strings.TrimSuffix(o, "/"))
	}
	return out
}

func (s Server) Start(errChannel chan<- error) {
	log.Info().Msgf("Server started on: %s", s.Addr)
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errChannel <- err
	}
}

func (s Server) ShutdownGracefully(timeout time.Duration) {
	log.Info().Msg("Gracefully shutting down...")

	gracefullCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(gracefullCtx); err != nil {
		log.Error().Msgf("Error shutting down the server: %v", err)
	} else {
		log.Info().Msg("HttpServer gracefully shut down")
	}
}
