package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/blogicum/database"
	"github.com/rpupo63/blogicum/errs"
	"github.com/rpupo63/blogicum/services"
)

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	postHandler     postHandler
	commentHandler  commentHandler
	categoryHandler categoryHandler
	profileHandler  profileHandler
	pageHandler     pageHandler
	authHandler     authHandler
	healthHandler   healthHandler
}

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(db database.Database, pages *renderer, media services.MediaStore, sessions sessionManager, perPage int, startupTime time.Time) *routeHandlers {
	return &routeHandlers{
		postHandler:     newPostHandler(pages, db.PostRepo(), db.CommentRepo(), db.CategoryRepo(), db.LocationRepo(), media, perPage),
		commentHandler:  newCommentHandler(pages, db.PostRepo(), db.CommentRepo()),
		categoryHandler: newCategoryHandler(pages, db.CategoryRepo(), db.PostRepo(), perPage),
		profileHandler:  newProfileHandler(pages, db.UserRepo(), db.PostRepo(), perPage),
		pageHandler:     newPageHandler(pages),
		authHandler:     newAuthHandler(pages, db.UserRepo(), sessions),
		healthHandler:   newHealthHandler(pages, db, startupTime),
	}
}

// pageNumber reads ?page=, accepting a positive integer or "last".
func pageNumber(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("page")
	switch raw {
	case "":
		return 1, nil
	case "last":
		return database.LastPage, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errs.NewNotFoundError("page")
	}
	return n, nil
}

// idParam parses a numeric URL parameter; anything else is a missing page.
func idParam(r *http.Request, name string) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || id == 0 {
		return 0, errs.NewNotFoundError(name)
	}
	return uint(id), nil
}

func postURL(id uint) string {
	return "/posts/" + strconv.FormatUint(uint64(id), 10) + "/"
}

func profileURL(username string) string {
	return "/profile/" + username + "/"
}
