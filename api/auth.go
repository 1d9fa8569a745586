package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rpupo63/blogicum/database"
	"github.com/rpupo63/blogicum/errs"
	"github.com/rpupo63/blogicum/forms"
	"github.com/rpupo63/blogicum/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const sessionCookieName = "sessionid"

// sessionManager issues and verifies the signed session cookie. The token
// subject is the user ID.
type sessionManager struct {
	secret []byte
	ttl    time.Duration
	secure bool
}

func newSessionManager(secret string, ttl time.Duration, secure bool) sessionManager {
	return sessionManager{secret: []byte(secret), ttl: ttl, secure: secure}
}

func (s sessionManager) issue(w http.ResponseWriter, user *models.User, now time.Time) error {
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(user.ID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// userID returns the ID carried by a valid session cookie
func (s sessionManager) userID(r *http.Request) (uint, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return 0, errs.Unauthorized
	}

	var claims jwt.RegisteredClaims
	_, err = jwt.ParseWithClaims(cookie.Value, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return 0, errs.NewInvalidSessionError(err)
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, errs.NewInvalidSessionError(err)
	}
	return uint(id), nil
}

func (s sessionManager) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

type authHandler struct {
	responder Responder
	logger    zerolog.Logger
	userRepo  *database.UserRepo
	sessions  sessionManager
	now       func() time.Time
}

func newAuthHandler(pages *renderer, userRepo *database.UserRepo, sessions sessionManager) authHandler {
	logger := log.With().Str("handlerName", "authHandler").Logger()

	return authHandler{
		responder: NewResponder(logger, pages),
		logger:    logger,
		userRepo:  userRepo,
		sessions:  sessions,
		now:       database.UTCNow,
	}
}

// register creates an account and signs it in
func (h authHandler) register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form := forms.NewRegistrationForm()
		if r.Method != http.MethodPost {
			h.responder.Render(w, r, http.StatusOK, "registration/registration_form.html", &pageData{Form: &form.Form})
			return
		}

		if err := r.ParseForm(); err != nil {
			h.responder.WriteError(w, r, errs.NewBadRequestError("invalid form"))
			return
		}

		if form.Bind(r.PostForm) {
			taken, err := h.userRepo.UsernameTaken(r.Context(), form.Username(), 0)
			if err != nil {
				h.responder.WriteError(w, r, wrapDatabaseError("check username", "user", err))
				return
			}
			if taken {
				form.AddError("username", "A user with that username already exists.")
			}
		}
		if !form.Valid() {
			h.responder.RenderInvalid(w, r, "registration/registration_form.html", &pageData{Form: &form.Form})
			return
		}

		user := &models.User{Username: form.Username()}
		if err := user.SetPassword(form.Password()); err != nil {
			h.responder.WriteError(w, r, errs.NewInternalErrorWithCause("hash password", err))
			return
		}
		if err := h.userRepo.Add(r.Context(), user); err != nil {
			err = wrapDatabaseError("create user", "user", err)
			if errs.IsAlreadyExists(err) {
				form.AddError("username", "A user with that username already exists.")
				h.responder.Render(w, r, http.StatusOK, "registration/registration_form.html", &pageData{Form: &form.Form})
				return
			}
			h.responder.WriteError(w, r, err)
			return
		}

		h.logger.Info().Uint("userID", user.ID).Str("username", user.Username).Msg("user registered")
		if err := h.sessions.issue(w, user, h.now()); err != nil {
			h.responder.WriteError(w, r, errs.NewInternalErrorWithCause("issue session", err))
			return
		}
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

// login checks credentials and redirects to a safe next URL
func (h authHandler) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form := forms.NewLoginForm()
		next := safeNext(r.FormValue("next"))
		if r.Method != http.MethodPost {
			h.responder.Render(w, r, http.StatusOK, "registration/login.html", &pageData{Form: &form.Form, Next: next})
			return
		}

		if !form.Bind(r.PostForm) {
			h.responder.RenderInvalid(w, r, "registration/login.html", &pageData{Form: &form.Form, Next: next})
			return
		}

		user, err := h.authenticate(r, form.Username(), form.Password())
		if err != nil {
			if !errs.IsInvalidCredentialsError(err) {
				h.responder.WriteError(w, r, err)
				return
			}
			form.AddError("", "Please enter a correct username and password. Note that both fields may be case-sensitive.")
			h.responder.RenderInvalid(w, r, "registration/login.html", &pageData{Form: &form.Form, Next: next})
			return
		}

		if err := h.sessions.issue(w, user, h.now()); err != nil {
			h.responder.WriteError(w, r, errs.NewInternalErrorWithCause("issue session", err))
			return
		}
		http.Redirect(w, r, next, http.StatusFound)
	}
}

func (h authHandler) authenticate(r *http.Request, username, password string) (*models.User, error) {
	user, err := h.userRepo.FindByUsername(r.Context(), username)
	if err != nil {
		err = wrapDatabaseError("find user", "user", err)
		if errs.IsNotFound(err) {
			return nil, errs.NewInvalidCredentialsError()
		}
		return nil, err
	}
	if err := user.CheckPassword(password); err != nil {
		return nil, errs.NewInvalidCredentialsError()
	}
	return user, nil
}

func (h authHandler) logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.sessions.clear(w)
		// the page is rendered for an anonymous visitor
		r = r.WithContext(ctxWithUser(r.Context(), nil))
		h.responder.Render(w, r, http.StatusOK, "registration/logged_out.html", nil)
	}
}

// safeNext accepts only local absolute paths.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return "/"
	}
	return next
}
