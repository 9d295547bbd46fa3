package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/consulting-site-backend/content"
)

type categoryHandler struct {
	responder Responder
	logger    zerolog.Logger
	content   *content.Service
}

func newCategoryHandler(svc *content.Service) categoryHandler {
	logger := log.With().Str("handlerName", "categoryHandler").Logger()

	return categoryHandler{
		responder: NewResponder(logger),
		logger:    logger,
		content:   svc,
	}
}

// listCategories returns every category with its post count
// @Summary List categories
// @Tags Categories
// @Produce json
// @Success 200 {array} content.Category
// @Failure 503 {object} ErrorResponse
// @Router /api/categories [get]
func (h categoryHandler) listCategories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := h.content.ListCategories(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, categories)
	}
}

// getCategory returns one category by slug or id
// @Summary Get a category
// @Tags Categories
// @Produce json
// @Param id path string true "Category id or slug"
// @Success 200 {object} content.Category
// @Failure 404 {object} ErrorResponse
// @Router /api/categories/{id} [get]
func (h categoryHandler) getCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category, err := h.content.GetCategory(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, category)
	}
}

// createCategory
// @Summary Create a category
// @Tags Categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param category body content.CategoryDraft true "Category"
// @Success 201 {object} content.Category
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/categories [post]
func (h categoryHandler) createCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var draft content.CategoryDraft
		if err := decodeJSON(w, r, &draft); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		category, err := h.content.CreateCategory(r.Context(), draft)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteStatusJSON(w, http.StatusCreated, category)
	}
}

// updateCategory
// @Summary Update a category
// @Tags Categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Category id"
// @Param category body content.CategoryDraft true "Category"
// @Success 200 {object} content.Category
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/categories/{id} [put]
func (h categoryHandler) updateCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var draft content.CategoryDraft
		if err := decodeJSON(w, r, &draft); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		category, err := h.content.UpdateCategory(r.Context(), chi.URLParam(r, "id"), draft)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, category)
	}
}

// deleteCategory removes a category that no post uses
// @Summary Delete a category
// @Tags Categories
// @Security BearerAuth
// @Param id path string true "Category id"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Category still has posts"
// @Router /api/categories/{id} [delete]
func (h categoryHandler) deleteCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := h.content.DeleteCategory(r.Context(), id); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.logger.Info().Str("categoryID", id).Msg("category deleted")
		h.responder.WriteNoContent(w)
	}
}

type tagHandler struct {
	responder Responder
	logger    zerolog.Logger
	content   *content.Service
}

func newTagHandler(svc *content.Service) tagHandler {
	logger := log.With().Str("handlerName", "tagHandler").Logger()

	return tagHandler{
		responder: NewResponder(logger),
		logger:    logger,
		content:   svc,
	}
}

// listTags
// @Summary List tags
// @Tags Tags
// @Produce json
// @Success 200 {array} content.Tag
// @Router /api/tags [get]
func (h tagHandler) listTags() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tags, err := h.content.ListTags(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, tags)
	}
}

// getTag
// @Summary Get a tag
// @Tags Tags
// @Produce json
// @Param id path string true "Tag id or slug"
// @Success 200 {object} content.Tag
// @Failure 404 {object} ErrorResponse
// @Router /api/tags/{id} [get]
func (h tagHandler) getTag() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tag, err := h.content.GetTag(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, tag)
	}
}

// createTag
// @Summary Create a tag
// @Tags Tags
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param tag body content.TagDraft true "Tag"
// @Success 201 {object} content.Tag
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/tags [post]
func (h tagHandler) createTag() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var draft content.TagDraft
		if err := decodeJSON(w, r, &draft); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		tag, err := h.content.CreateTag(r.Context(), draft)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteStatusJSON(w, http.StatusCreated, tag)
	}
}

// updateTag
// @Summary Rename a tag
// @Tags Tags
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Tag id"
// @Param tag body content.TagDraft true "Tag"
// @Success 200 {object} content.Tag
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/tags/{id} [put]
func (h tagHandler) updateTag() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var draft content.TagDraft
		if err := decodeJSON(w, r, &draft); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		tag, err := h.content.UpdateTag(r.Context(), chi.URLParam(r, "id"), draft)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, tag)
	}
}

// deleteTag removes a tag and detaches it from its posts
// @Summary Delete a tag
// @Tags Tags
// @Security BearerAuth
// @Param id path string true "Tag id"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /api/tags/{id} [delete]
func (h tagHandler) deleteTag() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.content.DeleteTag(r.Context(), chi.URLParam(r, "id")); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteNoContent(w)
	}
}
