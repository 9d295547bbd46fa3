package api

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(deps Dependencies, r router) *routeHandlers {
	return &routeHandlers{
		postHandler:     newPostHandler(deps.Content),
		categoryHandler: newCategoryHandler(deps.Content),
		tagHandler:      newTagHandler(deps.Content),
		authHandler:     newAuthHandler(deps.Accounts),
		userHandler:     newUserHandler(deps.Accounts),
		contactHandler:  newContactHandler(deps.Contact, deps.ContactRecipients),
		mediaHandler:    newMediaHandler(deps.Media),
		healthHandler:   newHealthHandler(deps.Storage, r.startupTime),
	}
}
