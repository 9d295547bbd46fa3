package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/rpupo63/consulting-site-backend/accounts"
)

// setupRoutes mounts the JSON API. Reads are public, writes need a token and
// the policy checks in front of each group.
func setupRoutes(r chi.Router, handlers *routeHandlers, auth authMiddleware) {
	r.Get("/health", handlers.healthHandler.health())
	r.Post("/contact", handlers.contactHandler.submitContact())
	r.Post("/auth/login", handlers.authHandler.login())

	// Public reads; a valid token widens what is visible.
	r.Group(func(r chi.Router) {
		r.Use(auth.optionalAuth)

		r.Get("/posts", handlers.postHandler.listPosts())
		r.Get("/posts/{id}", handlers.postHandler.getPost())
		r.Get("/categories", handlers.categoryHandler.listCategories())
		r.Get("/categories/{id}", handlers.categoryHandler.getCategory())
		r.Get("/tags", handlers.tagHandler.listTags())
		r.Get("/tags/{id}", handlers.tagHandler.getTag())
	})

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(auth.authenticate)

		r.Get("/auth/me", handlers.authHandler.me())

		r.Post("/posts", handlers.postHandler.createPost())
		r.Put("/posts/{id}", handlers.postHandler.updatePost())
		r.Delete("/posts/{id}", handlers.postHandler.deletePost())

		r.Post("/media", handlers.mediaHandler.uploadMedia())

		r.Group(func(r chi.Router) {
			r.Use(auth.require(accounts.CanManageTaxonomy))

			r.Post("/categories", handlers.categoryHandler.createCategory())
			r.Put("/categories/{id}", handlers.categoryHandler.updateCategory())
			r.Delete("/categories/{id}", handlers.categoryHandler.deleteCategory())

			r.Post("/tags", handlers.tagHandler.createTag())
			r.Put("/tags/{id}", handlers.tagHandler.updateTag())
			r.Delete("/tags/{id}", handlers.tagHandler.deleteTag())
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.require(accounts.CanManageUsers))

			r.Get("/users", handlers.userHandler.listUsers())
			r.Post("/users", handlers.userHandler.createUser())
			r.Get("/users/{id}", handlers.userHandler.getUser())
			r.Put("/users/{id}", handlers.userHandler.updateUser())
			r.Delete("/users/{id}", handlers.userHandler.deleteUser())
		})
	})
}
