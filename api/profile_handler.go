package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/blogicum/database"
	"github.com/rpupo63/blogicum/errs"
	"github.com/rpupo63/blogicum/forms"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	tmplProfile     = "blog/profile.html"
	tmplEditProfile = "blog/user.html"
)

type profileHandler struct {
	responder Responder
	logger    zerolog.Logger
	userRepo  *database.UserRepo
	postRepo  *database.PostRepo
	perPage   int
	now       func() time.Time
}

func newProfileHandler(pages *renderer, userRepo *database.UserRepo, postRepo *database.PostRepo, perPage int) profileHandler {
	logger := log.With().Str("handlerName", "profileHandler").Logger()

	return profileHandler{
		responder: NewResponder(logger, pages),
		logger:    logger,
		userRepo:  userRepo,
		postRepo:  postRepo,
		perPage:   perPage,
		now:       database.UTCNow,
	}
}

// profile lists a user's posts. Owners also see drafts and scheduled posts.
func (h profileHandler) profile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number, err := pageNumber(r)
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}

		profile, err := h.userRepo.FindByUsername(r.Context(), chi.URLParam(r, "username"))
		if err != nil {
			h.responder.WriteError(w, r, wrapDatabaseError("find user", "user", err))
			return
		}

		viewer := ctxGetUser(r.Context())
		isOwner := viewer != nil && viewer.ID == profile.ID

		page, err := h.postRepo.List(r.Context(), database.PostFilter{
			Now:        h.now(),
			PublicOnly: !isOwner,
			AuthorID:   profile.ID,
		}, number, h.perPage)
		if err != nil {
			h.responder.WriteError(w, r, wrapDatabaseError("list posts", "post", err))
			return
		}

		h.responder.Render(w, r, http.StatusOK, tmplProfile, &pageData{Profile: profile, Page: page, IsOwner: isOwner})
	}
}

// edit updates the signed-in user's profile
func (h profileHandler) edit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := ctxGetUser(r.Context())

		form := forms.NewProfileForm(user)
		if r.Method != http.MethodPost {
			h.responder.Render(w, r, http.StatusOK, tmplEditProfile, &pageData{Form: &form.Form})
			return
		}

		if err := r.ParseForm(); err != nil {
			h.responder.WriteError(w, r, errs.NewBadRequestError("invalid form"))
			return
		}

		if form.Bind(r.PostForm) {
			taken, err := h.userRepo.UsernameTaken(r.Context(), form.Username(), user.ID)
			if err != nil {
				h.responder.WriteError(w, r, wrapDatabaseError("check username", "user", err))
				return
			}
			if taken {
				form.AddError("username", "A user with that username already exists.")
			}
		}
		if !form.Valid() {
			h.responder.RenderInvalid(w, r, tmplEditProfile, &pageData{Form: &form.Form})
			return
		}

		updated := *user
		form.Apply(&updated)
		if err := h.userRepo.UpdateProfile(r.Context(), &updated); err != nil {
			h.responder.WriteError(w, r, wrapDatabaseError("update profile", "user", err))
			return
		}

		http.Redirect(w, r, profileURL(updated.Username), http.StatusFound)
	}
}
