package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/consulting-site-backend/accounts"
	"github.com/rpupo63/consulting-site-backend/errs"
)

type authHandler struct {
	responder Responder
	logger    zerolog.Logger
	accounts  *accounts.Service
}

func newAuthHandler(svc *accounts.Service) authHandler {
	logger := log.With().Str("handlerName", "authHandler").Logger()

	return authHandler{
		responder: NewResponder(logger),
		logger:    logger,
		accounts:  svc,
	}
}

// login exchanges email and password for an access token
// @Summary Sign in
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/auth/login [post]
func (h authHandler) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		user, token, expires, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.logger.Info().Str("userID", user.ID).Msg("signed in")
		h.responder.WriteJSON(w, LoginResponse{Token: token, ExpiresAt: expires, User: user})
	}
}

// me returns the signed-in user
// @Summary Current user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} accounts.User
// @Failure 401 {object} ErrorResponse
// @Router /api/auth/me [get]
func (h authHandler) me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := requirePrincipal(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		user, err := h.accounts.Get(r.Context(), principal.UserID)
		if errs.IsNotFound(err) {
			// The token outlived its account.
			err = errs.NewInvalidTokenError(err)
		}
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, user)
	}
}

type userHandler struct {
	responder Responder
	logger    zerolog.Logger
	accounts  *accounts.Service
}

func newUserHandler(svc *accounts.Service) userHandler {
	logger := log.With().Str("handlerName", "userHandler").Logger()

	return userHandler{
		responder: NewResponder(logger),
		logger:    logger,
		accounts:  svc,
	}
}

// listUsers
// @Summary List users
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} accounts.User
// @Failure 403 {object} ErrorResponse
// @Router /api/users [get]
func (h userHandler) listUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := h.accounts.List(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, users)
	}
}

// getUser
// @Summary Get a user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User id"
// @Success 200 {object} accounts.User
// @Failure 404 {object} ErrorResponse
// @Router /api/users/{id} [get]
func (h userHandler) getUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := h.accounts.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, user)
	}
}

// createUser
// @Summary Create a user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param user body accounts.UserDraft true "User"
// @Success 201 {object} accounts.User
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Email already in use"
// @Router /api/users [post]
func (h userHandler) createUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var draft accounts.UserDraft
		if err := decodeJSON(w, r, &draft); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		user, err := h.accounts.Create(r.Context(), draft)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.logger.Info().Str("userID", user.ID).Str("role", string(user.Role)).Msg("user created")
		h.responder.WriteStatusJSON(w, http.StatusCreated, user)
	}
}

// updateUser
// @Summary Update a user
// @Description An empty password keeps the current one.
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User id"
// @Param user body accounts.UserDraft true "User"
// @Success 200 {object} accounts.User
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/users/{id} [put]
func (h userHandler) updateUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var draft accounts.UserDraft
		if err := decodeJSON(w, r, &draft); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		user, err := h.accounts.Update(r.Context(), chi.URLParam(r, "id"), draft)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, user)
	}
}

// deleteUser
// @Summary Delete a user
// @Tags Users
// @Security BearerAuth
// @Param id path string true "User id"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse "Deleting your own account"
// @Failure 409 {object} ErrorResponse "User still authors posts"
// @Router /api/users/{id} [delete]
func (h userHandler) deleteUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if p := principalFrom(r.Context()); p != nil && p.UserID == id {
			h.responder.WriteError(w, errs.NewForbiddenError("you cannot delete your own account"))
			return
		}

		if err := h.accounts.Delete(r.Context(), id); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.logger.Info().Str("userID", id).Msg("user deleted")
		h.responder.WriteNoContent(w)
	}
}
