package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/rpupo63/blogicum/errs"
	"github.com/rs/zerolog"
)

const (
	tmplNotFound   = "pages/404.html"
	tmplBadRequest = "pages/400.html"
	tmplServer     = "pages/500.html"
	tmplCSRF       = "pages/403csrf.html"
)

type Responder struct {
	logger zerolog.Logger
	pages  *renderer
}

func NewResponder(logger zerolog.Logger, pages *renderer) Responder {
	return Responder{logger: logger, pages: pages}
}

// Render writes the named page with the request-scoped fields filled in.
func (r Responder) Render(w http.ResponseWriter, req *http.Request, status int, name string, data *pageData) {
	if data == nil {
		data = &pageData{}
	}
	data.CurrentUser = ctxGetUser(req.Context())
	data.CSRFField = csrf.TemplateField(req)
	data.Path = req.URL.Path

	if err := r.pages.render(w, status, name, data); err != nil {
		r.logger.Error().Err(err).Str("template", name).Msg("error rendering page")
		if name == tmplServer {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		r.WriteError(w, req, errs.NewInternalErrorWithCause("render page", err))
	}
}

// RenderInvalid re-renders a rejected form together with its field errors.
func (r Responder) RenderInvalid(w http.ResponseWriter, req *http.Request, name string, data *pageData) {
	if data.Form != nil {
		err := data.Form.Err()
		r.logger.Debug().
			Err(err).
			Str("path", req.URL.Path).
			Bool("missingRequired", errs.IsMissingRequiredFieldError(err)).
			Bool("invalidField", errs.IsInvalidFieldError(err)).
			Msg("form rejected")
	}
	r.Render(w, req, http.StatusOK, name, data)
}

// WriteError renders the error page matching the status carried by err.
func (r Responder) WriteError(w http.ResponseWriter, req *http.Request, err error) {
	status := errs.StatusOf(err)

	switch {
	case status >= http.StatusInternalServerError:
		event := r.logger.Error().Str("method", req.Method).Str("path", req.URL.Path)
		var apiErr *errs.ApiErr
		if errors.As(err, &apiErr) {
			event = event.Str("error", apiErr.GetFullError())
		} else {
			event = event.Err(err)
		}
		event.Msg("internal error")
		r.Render(w, req, http.StatusInternalServerError, tmplServer, nil)
	case errs.IsCSRF(err):
		r.logger.Warn().Err(err).Str("path", req.URL.Path).Msg("CSRF verification failed")
		r.Render(w, req, http.StatusForbidden, tmplCSRF, nil)
	case status == http.StatusNotFound:
		r.Render(w, req, http.StatusNotFound, tmplNotFound, nil)
	default:
		r.logger.Debug().Err(err).Int("status", status).Str("path", req.URL.Path).Msg("request rejected")
		r.Render(w, req, status, tmplBadRequest, nil)
	}
}

func (r Responder) WriteJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		r.logger.Error().Err(err).Msg("error marshaling response data")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		r.logger.Error().Err(err).Msg("error writing response")
	}
}

// wrapDatabaseError wraps a database error with context information
func wrapDatabaseError(operation, entity string, cause error) error {
	return errs.NewDatabaseError(operation, entity, cause)
}
