package api

import (
	"net/http"
	"net/url"
	"os"
	"runtime/debug"
	"time"

	"github.com/rpupo63/blogicum/database"
	"github.com/rpupo63/blogicum/errs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type authMiddleware struct {
	sessions sessionManager
	userRepo *database.UserRepo
	logger   zerolog.Logger
}

func newAuthMiddleware(sessions sessionManager, userRepo *database.UserRepo) authMiddleware {
	return authMiddleware{
		sessions: sessions,
		userRepo: userRepo,
		logger:   log.With().Str("handlerName", "authMiddleware").Logger(),
	}
}

// loadUser attaches the user of a valid session cookie to the request. Stale
// or forged cookies are cleared and the request continues anonymously.
func (m authMiddleware) loadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := m.sessions.userID(r)
		if err != nil {
			if errs.IsInvalidSessionError(err) {
				m.logger.Debug().Err(err).Msg("discarding invalid session")
				m.sessions.clear(w)
			}
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.userRepo.FindByID(r.Context(), userID)
		if err != nil {
			m.logger.Debug().Err(err).Uint("userID", userID).Msg("session user not found")
			m.sessions.clear(w)
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(ctxWithUser(r.Context(), user)))
	})
}

// requireLogin sends anonymous visitors to the login page, remembering where
// they were going.
func (m authMiddleware) requireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")

		if ctxGetUser(r.Context()) == nil {
			http.Redirect(w, r, "/auth/login/?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// limitBody refuses request bodies over limit. A declared length is checked
// up front; anything else fails once the handler reads past the limit.
func limitBody(limit int64, responder Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				responder.WriteError(w, r, errs.NewMaxBodySizeExceededError(limit))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

type statusResponseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusResponseWriter) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.status = statusCode
		w.wroteHeader = true
		w.ResponseWriter.WriteHeader(statusCode)
	}
}

func (w *statusResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// LogInternalServerErrors recovers panics into the 500 page and logs every
// 500 response.
func LogInternalServerErrors(responder Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			srw := &statusResponseWriter{ResponseWriter: w, status: http.StatusOK}

			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					log.Error().
						Str("method", r.Method).
						Str("path", r.URL.Path).
						Interface("panic", err).
						Str("stack", string(debug.Stack())).
						Msg("Recovered from panic")

					if !srw.wroteHeader {
						responder.Render(srw, r, http.StatusInternalServerError, tmplServer, nil)
					}
				}
			}()

			next.ServeHTTP(srw, r)

			if srw.status == http.StatusInternalServerError {
				log.Error().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("500 error response")
			}
		})
	}
}

// ColoredHTTPLoggingMiddleware logs HTTP requests with colored output based on status codes
func ColoredHTTPLoggingMiddleware(next http.Handler) http.Handler {
	colorLogger := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusResponseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(srw, r)

		var logEvent *zerolog.Event
		switch {
		case srw.status >= 500:
			logEvent = colorLogger.Error()
		case srw.status >= 400:
			logEvent = colorLogger.Warn()
		default:
			logEvent = colorLogger.Info()
		}

		logEvent.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", srw.status).
			Dur("duration", time.Since(start)).
			Str("remote_addr", r.RemoteAddr).
			Msg("HTTP Request")
	})
}
