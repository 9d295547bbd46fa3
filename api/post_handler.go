package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/consulting-site-backend/accounts"
	"github.com/rpupo63/consulting-site-backend/content"
	"github.com/rpupo63/consulting-site-backend/errs"
)

type postHandler struct {
	responder Responder
	logger    zerolog.Logger
	content   *content.Service
}

func newPostHandler(svc *content.Service) postHandler {
	logger := log.With().Str("handlerName", "postHandler").Logger()

	return postHandler{
		responder: NewResponder(logger),
		logger:    logger,
		content:   svc,
	}
}

// listPosts lists posts matching the query parameters
// @Summary List posts
// @Description Published posts are public. Other statuses need a signed-in caller, and authors only see their own. When storage is down anonymous callers get the sample catalogue with degraded set.
// @Tags Posts
// @Produce json
// @Param search query string false "Case-insensitive match on title, excerpt or body"
// @Param category query string false "Category slug"
// @Param tag query string false "Tag slug"
// @Param featured query bool false "Only featured (true) or only regular (false) posts"
// @Param authorId query string false "Author id"
// @Param status query string false "DRAFT, PUBLISHED or ARCHIVED"
// @Param page query int false "Page number, from 1"
// @Param limit query int false "Page size, 1 to 100"
// @Param sortBy query string false "publishedAt, createdAt, updatedAt or title"
// @Param sortOrder query string false "asc or desc"
// @Success 200 {object} content.ListResult
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/posts [get]
func (h postHandler) listPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := parseListRequest(r.URL.Query())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		principal := principalFrom(r.Context())
		req.AuthorID, err = accounts.ScopeListing(principal, req.WantsNonPublic(), strings.TrimSpace(req.AuthorID))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var result content.ListResult
		if principal == nil {
			result, err = h.content.ListPublic(r.Context(), req)
		} else {
			result, err = h.content.ListPosts(r.Context(), req)
		}
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, result)
	}
}

// parseListRequest reads the listing parameters. Numbers and booleans that do
// not parse are reported together with whatever Resolve rejects.
func parseListRequest(values url.Values) (content.ListRequest, error) {
	var verr errs.ValidationError
	req := content.ListRequest{
		Search:    values.Get("search"),
		Category:  values.Get("category"),
		Tag:       values.Get("tag"),
		AuthorID:  values.Get("authorId"),
		Status:    values.Get("status"),
		SortBy:    values.Get("sortBy"),
		SortOrder: values.Get("sortOrder"),
	}

	req.Page = intParam(values, "page", &verr)
	req.Limit = intParam(values, "limit", &verr)

	if raw := strings.TrimSpace(values.Get("featured")); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			verr.Add("featured", "must be true or false")
		} else {
			req.Featured = &featured
		}
	}

	if verr.HasAny() {
		if _, err := req.Resolve(); err != nil {
			verr.Merge(err)
		}
		return content.ListRequest{}, &verr
	}
	return req, nil
}

func intParam(values url.Values, name string, verr *errs.ValidationError) int {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		verr.Add(name, "must be a whole number")
		return 0
	}
	return n
}

// getPost returns one post by slug or id
// @Summary Get a post
// @Description Looks the post up by slug, then by id. Unpublished posts are only visible to staff and their author.
// @Tags Posts
// @Produce json
// @Param id path string true "Post id or slug"
// @Success 200 {object} content.Post
// @Failure 404 {object} ErrorResponse
// @Router /api/posts/{id} [get]
func (h postHandler) getPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "id")
		principal := principalFrom(r.Context())

		post, err := h.content.GetPost(r.Context(), key, principal == nil)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if !accounts.CanReadPost(principal, post.Status == content.StatusPublished, post.Author.ID) {
			h.responder.WriteError(w, errs.NewNotFound("post"))
			return
		}
		h.responder.WriteJSON(w, post)
	}
}

// createPost creates a post authored by the caller
// @Summary Create a post
// @Tags Posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param post body content.PostDraft true "Post"
// @Success 201 {object} content.Post
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/posts [post]
func (h postHandler) createPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := requirePrincipal(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var draft content.PostDraft
		if err := decodeJSON(w, r, &draft); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		post, err := h.content.CreatePost(r.Context(), principal.UserID, draft)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.logger.Info().Str("postID", post.ID).Str("slug", post.Slug).Msg("post created")
		h.responder.WriteStatusJSON(w, http.StatusCreated, post)
	}
}

// updatePost replaces the editable fields of a post
// @Summary Update a post
// @Description Editors and admins can update any post, authors only their own.
// @Tags Posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post id"
// @Param post body content.PostDraft true "Post"
// @Success 200 {object} content.Post
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/posts/{id} [put]
func (h postHandler) updatePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := h.authorize(r, id); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var draft content.PostDraft
		if err := decodeJSON(w, r, &draft); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		post, err := h.content.UpdatePost(r.Context(), id, draft)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, post)
	}
}

// deletePost removes a post
// @Summary Delete a post
// @Tags Posts
// @Security BearerAuth
// @Param id path string true "Post id"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/posts/{id} [delete]
func (h postHandler) deletePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := h.authorize(r, id); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.content.DeletePost(r.Context(), id); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.logger.Info().Str("postID", id).Msg("post deleted")
		h.responder.WriteNoContent(w)
	}
}

// authorize checks that the caller may change the post with the given id.
func (h postHandler) authorize(r *http.Request, id string) error {
	principal, err := requirePrincipal(r)
	if err != nil {
		return err
	}
	existing, err := h.content.GetPost(r.Context(), id, false)
	if err != nil {
		return err
	}
	if existing.ID != id {
		// GetPost also matches slugs; writes address posts by id only.
		return errs.NewNotFound("post")
	}
	return accounts.CanEditPost(principal, existing.Author.ID)
}
