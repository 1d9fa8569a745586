package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// setupBlogRoutes registers the HTML pages. Routes under the login group
// redirect anonymous visitors to the login form.
func setupBlogRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware) {
	r.Get("/", handlers.postHandler.index())
	r.Get("/posts/{postID}/", handlers.postHandler.detail())
	r.Get("/category/{slug}/", handlers.categoryHandler.feed())
	r.Get("/profile/{username}/", handlers.profileHandler.profile())

	r.Get("/pages/about/", handlers.pageHandler.static("pages/about.html"))
	r.Get("/pages/rules/", handlers.pageHandler.static("pages/rules.html"))

	form(r, "/auth/registration/", handlers.authHandler.register())
	form(r, "/auth/login/", handlers.authHandler.login())
	r.Post("/auth/logout/", handlers.authHandler.logout())

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.requireLogin)

		form(r, "/posts/create/", handlers.postHandler.create())
		form(r, "/posts/{postID}/edit/", handlers.postHandler.edit())
		form(r, "/posts/{postID}/delete/", handlers.postHandler.delete())

		form(r, "/posts/{postID}/comment/", handlers.commentHandler.add())
		form(r, "/posts/{postID}/edit_comment/{commentID}/", handlers.commentHandler.edit())
		form(r, "/posts/{postID}/delete_comment/{commentID}/", handlers.commentHandler.delete())

		form(r, "/edit/", handlers.profileHandler.edit())
	})
}

// form registers a page that is shown on GET and submitted on POST.
func form(r chi.Router, pattern string, h http.HandlerFunc) {
	r.Get(pattern, h)
	r.Post(pattern, h)
}
