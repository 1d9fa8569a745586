package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/blogicum/database"
	"github.com/rpupo63/blogicum/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const tmplCategory = "blog/category.html"

type categoryHandler struct {
	responder    Responder
	logger       zerolog.Logger
	categoryRepo *database.CategoryRepo
	postRepo     *database.PostRepo
	perPage      int
	now          func() time.Time
}

func newCategoryHandler(pages *renderer, categoryRepo *database.CategoryRepo, postRepo *database.PostRepo, perPage int) categoryHandler {
	logger := log.With().Str("handlerName", "categoryHandler").Logger()

	return categoryHandler{
		responder:    NewResponder(logger, pages),
		logger:       logger,
		categoryRepo: categoryRepo,
		postRepo:     postRepo,
		perPage:      perPage,
		now:          database.UTCNow,
	}
}

// feed lists the visible posts of a published category. The category and the
// page are loaded concurrently.
func (h categoryHandler) feed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")

		number, err := pageNumber(r)
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}

		var (
			category *models.Category
			page     *database.Page
		)
		g, ctx := errgroup.WithContext(r.Context())
		g.Go(func() error {
			c, err := h.categoryRepo.FindPublishedBySlug(ctx, slug)
			if err != nil {
				return wrapDatabaseError("find category", "category", err)
			}
			category = c
			return nil
		})
		g.Go(func() error {
			p, err := h.postRepo.List(ctx, database.PostFilter{
				Now:          h.now(),
				PublicOnly:   true,
				CategorySlug: slug,
			}, number, h.perPage)
			if err != nil {
				return wrapDatabaseError("list posts", "post", err)
			}
			page = p
			return nil
		})
		if err := g.Wait(); err != nil {
			h.responder.WriteError(w, r, err)
			return
		}

		h.responder.Render(w, r, http.StatusOK, tmplCategory, &pageData{Category: category, Page: page})
	}
}
