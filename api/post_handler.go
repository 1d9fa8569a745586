package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rpupo63/blogicum/database"
	"github.com/rpupo63/blogicum/errs"
	"github.com/rpupo63/blogicum/forms"
	"github.com/rpupo63/blogicum/models"
	"github.com/rpupo63/blogicum/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	tmplIndex  = "blog/index.html"
	tmplDetail = "blog/detail.html"
	tmplCreate = "blog/create.html"

	// maxUploadMemory bounds the in-memory part of a multipart body.
	maxUploadMemory = 8 << 20
)

type postHandler struct {
	responder    Responder
	logger       zerolog.Logger
	postRepo     *database.PostRepo
	commentRepo  *database.CommentRepo
	categoryRepo *database.CategoryRepo
	locationRepo *database.LocationRepo
	media        services.MediaStore
	perPage      int
	now          func() time.Time
}

func newPostHandler(
	pages *renderer,
	postRepo *database.PostRepo,
	commentRepo *database.CommentRepo,
	categoryRepo *database.CategoryRepo,
	locationRepo *database.LocationRepo,
	media services.MediaStore,
	perPage int,
) postHandler {
	logger := log.With().Str("handlerName", "postHandler").Logger()

	return postHandler{
		responder:    NewResponder(logger, pages),
		logger:       logger,
		postRepo:     postRepo,
		commentRepo:  commentRepo,
		categoryRepo: categoryRepo,
		locationRepo: locationRepo,
		media:        media,
		perPage:      perPage,
		now:          database.UTCNow,
	}
}

// index lists publicly visible posts, newest first
func (h postHandler) index() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number, err := pageNumber(r)
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}

		page, err := h.postRepo.List(r.Context(), database.PostFilter{Now: h.now(), PublicOnly: true}, number, h.perPage)
		if err != nil {
			h.responder.WriteError(w, r, wrapDatabaseError("list posts", "post", err))
			return
		}

		h.responder.Render(w, r, http.StatusOK, tmplIndex, &pageData{Page: page})
	}
}

// detail shows a visible post, or any post to its author, with its comments
func (h postHandler) detail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "postID")
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}

		var viewerID uint
		if user := ctxGetUser(r.Context()); user != nil {
			viewerID = user.ID
		}

		post, err := h.postRepo.FindVisible(r.Context(), id, h.now(), viewerID)
		if err != nil {
			h.responder.WriteError(w, r, wrapDatabaseError("find post", "post", err))
			return
		}

		comments, err := h.commentRepo.ListForPost(r.Context(), post.ID)
		if err != nil {
			h.responder.WriteError(w, r, wrapDatabaseError("list comments", "comment", err))
			return
		}

		h.responder.Render(w, r, http.StatusOK, tmplDetail, &pageData{
			Post:        post,
			Restricted:  !post.VisibleAt(h.now()),
			Comments:    comments,
			CommentForm: &forms.NewCommentForm(nil).Form,
		})
	}
}

// create stores a new post authored by the signed-in user
func (h postHandler) create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := ctxGetUser(r.Context())

		form, err := h.newForm(r.Context(), nil)
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}
		if r.Method != http.MethodPost {
			h.responder.Render(w, r, http.StatusOK, tmplCreate, &pageData{Form: &form.Form})
			return
		}

		post := &models.Post{
			AuthorID:    user.ID,
			Publishable: models.Publishable{IsPublished: true},
		}
		if !h.bindPost(w, r, form, post) {
			return
		}

		if err := h.postRepo.Add(r.Context(), post); err != nil {
			h.discardImage(r.Context(), post.Image)
			h.responder.WriteError(w, r, wrapDatabaseError("create post", "post", err))
			return
		}

		h.logger.Info().Uint("postID", post.ID).Uint("authorID", user.ID).Msg("post created")
		http.Redirect(w, r, profileURL(user.Username), http.StatusFound)
	}
}

// edit updates a post; anyone but the author is sent back to the post
func (h postHandler) edit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := ctxGetUser(r.Context())

		id, err := idParam(r, "postID")
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}

		post, err := h.postRepo.FindByID(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, r, wrapDatabaseError("find post", "post", err))
			return
		}
		if !post.IsAuthoredBy(user) {
			http.Redirect(w, r, postURL(post.ID), http.StatusSeeOther)
			return
		}

		form, err := h.newForm(r.Context(), post)
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}
		if r.Method != http.MethodPost {
			h.responder.Render(w, r, http.StatusOK, tmplCreate, &pageData{Form: &form.Form, Post: post})
			return
		}

		previousImage := post.Image
		if !h.bindPost(w, r, form, post) {
			return
		}

		if err := h.postRepo.Update(r.Context(), post); err != nil {
			if post.Image != previousImage {
				h.discardImage(r.Context(), post.Image)
			}
			h.responder.WriteError(w, r, wrapDatabaseError("update post", "post", err))
			return
		}
		if post.Image != previousImage {
			h.discardImage(r.Context(), previousImage)
		}

		http.Redirect(w, r, postURL(post.ID), http.StatusFound)
	}
}

// delete asks for confirmation on GET and removes the post on POST. Authors
// find only their own posts; staff can remove any post.
func (h postHandler) delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := ctxGetUser(r.Context())

		id, err := idParam(r, "postID")
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}

		var post *models.Post
		if user.IsStaff {
			post, err = h.postRepo.FindByID(r.Context(), id)
		} else {
			post, err = h.postRepo.FindOwned(r.Context(), id, user.ID)
		}
		if err != nil {
			h.responder.WriteError(w, r, wrapDatabaseError("find post", "post", err))
			return
		}

		if r.Method != http.MethodPost {
			form, err := h.newForm(r.Context(), post)
			if err != nil {
				h.responder.WriteError(w, r, err)
				return
			}
			h.responder.Render(w, r, http.StatusOK, tmplCreate, &pageData{Form: &form.Form, Post: post, Deleting: true})
			return
		}

		if err := h.postRepo.Delete(r.Context(), post.ID); err != nil {
			h.responder.WriteError(w, r, wrapDatabaseError("delete post", "post", err))
			return
		}
		h.discardImage(r.Context(), post.Image)

		h.logger.Info().Uint("postID", post.ID).Uint("authorID", post.AuthorID).Uint("deletedBy", user.ID).Msg("post deleted")
		http.Redirect(w, r, profileURL(user.Username), http.StatusFound)
	}
}

func (h postHandler) newForm(ctx context.Context, post *models.Post) (*forms.PostForm, error) {
	categories, err := h.categoryRepo.FindAll(ctx)
	if err != nil {
		return nil, wrapDatabaseError("list categories", "category", err)
	}
	locations, err := h.locationRepo.FindAll(ctx)
	if err != nil {
		return nil, wrapDatabaseError("list locations", "location", err)
	}
	return forms.NewPostForm(categories, locations, post, time.UTC), nil
}

// bindPost parses the request into form and, when valid, applies it to post
// and stores any uploaded image. It writes the response itself and returns
// false when the handler should stop.
func (h postHandler) bindPost(w http.ResponseWriter, r *http.Request, form *forms.PostForm, post *models.Post) bool {
	if err := parsePostBody(r); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.responder.WriteError(w, r, errs.NewMaxBodySizeExceededError(tooLarge.Limit))
			return false
		}
		h.responder.WriteError(w, r, errs.NewBadRequestError("invalid form"))
		return false
	}

	form.Bind(r.PostForm)
	form.CurrentImage = post.Image

	upload, _, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		upload = nil
	case err != nil:
		h.responder.WriteError(w, r, errs.NewBadRequestError("invalid upload"))
		return false
	default:
		defer upload.Close()
	}

	if !form.Valid() {
		h.responder.RenderInvalid(w, r, tmplCreate, &pageData{Form: &form.Form, Post: post})
		return false
	}

	form.Apply(post)
	switch {
	case upload != nil:
		key, err := services.SaveImage(r.Context(), h.media, upload)
		if err != nil {
			if errors.Is(err, services.ErrUnsupportedImage) || errors.Is(err, services.ErrImageTooLarge) {
				form.AddError("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
				h.responder.RenderInvalid(w, r, tmplCreate, &pageData{Form: &form.Form, Post: post})
				return false
			}
			h.responder.WriteError(w, r, errs.NewInternalErrorWithCause("store image", err))
			return false
		}
		post.Image = key
	case form.ClearImage:
		post.Image = ""
	}
	return true
}

func (h postHandler) discardImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := h.media.Delete(ctx, key); err != nil {
		h.logger.Warn().Err(err).Str("key", key).Msg("could not delete image")
	}
}

// parsePostBody accepts both multipart and urlencoded submissions.
func parsePostBody(r *http.Request) error {
	err := r.ParseMultipartForm(maxUploadMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}
