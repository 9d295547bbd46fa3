package api

import (
	"time"

	"github.com/rpupo63/consulting-site-backend/accounts"
	"github.com/rpupo63/consulting-site-backend/errs"
)

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	postHandler     postHandler
	categoryHandler categoryHandler
	tagHandler      tagHandler
	authHandler     authHandler
	userHandler     userHandler
	contactHandler  contactHandler
	mediaHandler    mediaHandler
	healthHandler   healthHandler
}

// ErrorResponse represents an error response from the API
// @Description Error response structure
type ErrorResponse struct {
	Error   string            `json:"error" example:"not found: post"`
	Status  string            `json:"status" example:"error"`
	Field   string            `json:"field,omitempty" example:"title"`
	Details string            `json:"details,omitempty" example:"Additional error details"`
	Fields  []errs.FieldError `json:"fields,omitempty"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" example:"editor@example.com"`
	Password string `json:"password" example:"correct horse"`
}

// LoginResponse carries the access token and the signed-in user.
type LoginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	User      accounts.User `json:"user"`
}

// MediaResponse is returned after an upload.
type MediaResponse struct {
	URL string `json:"url" example:"https://cdn.example.com/media/2024/03/4f1c.png"`
}

// ContactResponse acknowledges a contact form submission.
type ContactResponse struct {
	Status string `json:"status" example:"sent"`
}

// HealthResponse reports uptime and storage reachability.
type HealthResponse struct {
	Status    string    `json:"status" example:"ok"`
	Storage   string    `json:"storage" example:"local"`
	StartedAt time.Time `json:"startedAt"`
	Uptime    string    `json:"uptime" example:"3h12m5s"`
	Error     string    `json:"error,omitempty"`
}
