package api

import (
	"net/http"
	"time"

	"github.com/rpupo63/blogicum/database"
	"github.com/rpupo63/blogicum/errs"
	"github.com/rpupo63/blogicum/forms"
	"github.com/rpupo63/blogicum/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const tmplComment = "blog/comment.html"

type commentHandler struct {
	responder   Responder
	logger      zerolog.Logger
	postRepo    *database.PostRepo
	commentRepo *database.CommentRepo
	now         func() time.Time
}

func newCommentHandler(pages *renderer, postRepo *database.PostRepo, commentRepo *database.CommentRepo) commentHandler {
	logger := log.With().Str("handlerName", "commentHandler").Logger()

	return commentHandler{
		responder:   NewResponder(logger, pages),
		logger:      logger,
		postRepo:    postRepo,
		commentRepo: commentRepo,
		now:         database.UTCNow,
	}
}

// add comments on a publicly visible post
func (h commentHandler) add() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := ctxGetUser(r.Context())

		postID, err := idParam(r, "postID")
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}

		post, err := h.postRepo.FindVisible(r.Context(), postID, h.now(), 0)
		if err != nil {
			h.responder.WriteError(w, r, wrapDatabaseError("find post", "post", err))
			return
		}

		form := forms.NewCommentForm(nil)
		if r.Method != http.MethodPost {
			h.responder.Render(w, r, http.StatusOK, tmplComment, &pageData{Form: &form.Form, Post: post})
			return
		}

		if err := r.ParseForm(); err != nil {
			h.responder.WriteError(w, r, errs.NewBadRequestError("invalid form"))
			return
		}
		if !form.Bind(r.PostForm) {
			h.responder.RenderInvalid(w, r, tmplComment, &pageData{Form: &form.Form, Post: post})
			return
		}

		comment := &models.Comment{PostID: post.ID, AuthorID: user.ID}
		form.Apply(comment)
		if err := h.commentRepo.Add(r.Context(), comment); err != nil {
			h.responder.WriteError(w, r, wrapDatabaseError("create comment", "comment", err))
			return
		}

		http.Redirect(w, r, postURL(post.ID), http.StatusFound)
	}
}

// edit changes the text of the signed-in user's own comment
func (h commentHandler) edit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		comment, ok := h.ownedComment(w, r)
		if !ok {
			return
		}

		form := forms.NewCommentForm(comment)
		if r.Method != http.MethodPost {
			h.responder.Render(w, r, http.StatusOK, tmplComment, &pageData{Form: &form.Form, Comment: comment})
			return
		}

		if err := r.ParseForm(); err != nil {
			h.responder.WriteError(w, r, errs.NewBadRequestError("invalid form"))
			return
		}
		if !form.Bind(r.PostForm) {
			h.responder.RenderInvalid(w, r, tmplComment, &pageData{Form: &form.Form, Comment: comment})
			return
		}

		form.Apply(comment)
		if err := h.commentRepo.UpdateText(r.Context(), comment); err != nil {
			h.responder.WriteError(w, r, wrapDatabaseError("update comment", "comment", err))
			return
		}

		http.Redirect(w, r, postURL(comment.PostID), http.StatusFound)
	}
}

// delete asks for confirmation on GET and removes the comment on POST
func (h commentHandler) delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		comment, ok := h.ownedComment(w, r)
		if !ok {
			return
		}

		if r.Method != http.MethodPost {
			h.responder.Render(w, r, http.StatusOK, tmplComment, &pageData{Comment: comment, Deleting: true})
			return
		}

		if err := h.commentRepo.Delete(r.Context(), comment.ID); err != nil {
			h.responder.WriteError(w, r, wrapDatabaseError("delete comment", "comment", err))
			return
		}

		http.Redirect(w, r, postURL(comment.PostID), http.StatusFound)
	}
}

// ownedComment looks the comment up by post, ID and author; anything else is
// a 404.
func (h commentHandler) ownedComment(w http.ResponseWriter, r *http.Request) (*models.Comment, bool) {
	user := ctxGetUser(r.Context())

	postID, err := idParam(r, "postID")
	if err != nil {
		h.responder.WriteError(w, r, err)
		return nil, false
	}
	commentID, err := idParam(r, "commentID")
	if err != nil {
		h.responder.WriteError(w, r, err)
		return nil, false
	}

	comment, err := h.commentRepo.FindOwned(r.Context(), postID, commentID, user.ID)
	if err != nil {
		h.responder.WriteError(w, r, wrapDatabaseError("find comment", "comment", err))
		return nil, false
	}
	return comment, true
}
