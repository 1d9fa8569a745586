package api

import (
	"net/http"
	"time"

	"github.com/rpupo63/blogicum/database"
	"github.com/rpupo63/blogicum/errs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type pageHandler struct {
	responder Responder
}

func newPageHandler(pages *renderer) pageHandler {
	logger := log.With().Str("handlerName", "pageHandler").Logger()
	return pageHandler{responder: NewResponder(logger, pages)}
}

func (h pageHandler) static(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.responder.Render(w, r, http.StatusOK, name, nil)
	}
}

func (h pageHandler) notFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.responder.Render(w, r, http.StatusNotFound, tmplNotFound, nil)
	}
}

func (h pageHandler) methodNotAllowed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.responder.WriteError(w, r, errs.NewApiErr(http.StatusMethodNotAllowed, "method not allowed"))
	}
}

type healthHandler struct {
	responder   Responder
	logger      zerolog.Logger
	db          database.Database
	startupTime time.Time
}

func newHealthHandler(pages *renderer, db database.Database, startupTime time.Time) healthHandler {
	logger := log.With().Str("handlerName", "healthHandler").Logger()

	return healthHandler{
		responder:   NewResponder(logger, pages),
		logger:      logger,
		db:          db,
		startupTime: startupTime,
	}
}

type healthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Uptime    string `json:"uptime"`
	StartedAt string `json:"startedAt"`
}

func (h healthHandler) healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{
			Status:    "ok",
			Database:  "ok",
			Uptime:    time.Since(h.startupTime).Round(time.Second).String(),
			StartedAt: h.startupTime.UTC().Format(time.RFC3339),
		}
		status := http.StatusOK
		if err := h.db.Ping(r.Context()); err != nil {
			h.logger.Error().Err(err).Msg("database ping failed")
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		}
		h.responder.WriteJSON(w, status, resp)
	}
}
