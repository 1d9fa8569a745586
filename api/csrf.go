package api

import (
	"crypto/sha256"
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/rpupo63/blogicum/errs"
)

const csrfFieldName = "csrfmiddlewaretoken"

type csrfOptions struct {
	enabled        bool
	secret         string
	secure         bool
	trustedOrigins []string
}

// csrfProtect guards every unsafe request with a token. Failures render the
// 403 page through the responder.
func csrfProtect(opts csrfOptions, responder Responder) func(http.Handler) http.Handler {
	if !opts.enabled {
		return func(next http.Handler) http.Handler { return next }
	}

	key := sha256.Sum256([]byte(opts.secret))
	protect := csrf.Protect(key[:],
		csrf.Secure(opts.secure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.FieldName(csrfFieldName),
		csrf.CookieName("csrftoken"),
		csrf.TrustedOrigins(opts.trustedOrigins),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			responder.WriteError(w, r, errs.NewCSRFError(csrf.FailureReason(r)))
		})),
	)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		if opts.secure {
			return protected
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// without TLS the Referer check has nothing to compare against
			protected.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}
