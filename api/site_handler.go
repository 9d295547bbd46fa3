package api

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/consulting-site-backend/errs"
	"github.com/rpupo63/consulting-site-backend/services"
)

// ContactSender delivers contact form submissions.
type ContactSender interface {
	SendContact(ctx context.Context, msg services.ContactMessage, recipients []string) error
}

// MediaStore stores an uploaded image and returns its public URL.
type MediaStore interface {
	Upload(ctx context.Context, contentType string, body io.Reader, size int64) (string, error)
}

// Pinger is the storage health probe.
type Pinger interface {
	Ping(ctx context.Context) error
	Kind() string
}

type contactHandler struct {
	responder  Responder
	logger     zerolog.Logger
	sender     ContactSender
	recipients []string
}

func newContactHandler(sender ContactSender, recipients []string) contactHandler {
	logger := log.With().Str("handlerName", "contactHandler").Logger()

	return contactHandler{
		responder:  NewResponder(logger),
		logger:     logger,
		sender:     sender,
		recipients: recipients,
	}
}

// submitContact forwards a contact form submission by email
// @Summary Send a contact request
// @Tags Contact
// @Accept json
// @Produce json
// @Param message body services.ContactMessage true "Contact request"
// @Success 202 {object} ContactResponse
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse "Mailer not configured or unreachable"
// @Router /api/contact [post]
func (h contactHandler) submitContact() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var msg services.ContactMessage
		if err := decodeJSON(w, r, &msg); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if h.sender == nil {
			h.responder.WriteError(w, errs.NewConfigError("RESEND_API_KEY"))
			return
		}

		if err := h.sender.SendContact(r.Context(), msg, h.recipients); err != nil {
			if reason := integrationFailure(err); reason != "" {
				h.logger.Warn().Err(err).Str("reason", reason).Msg("contact request not forwarded")
			}
			h.responder.WriteError(w, err)
			return
		}
		h.logger.Info().Msg("contact request forwarded")
		h.responder.WriteStatusJSON(w, http.StatusAccepted, ContactResponse{Status: "sent"})
	}
}

// multipart framing on top of the file itself
const uploadOverheadBytes = 64 << 10

type mediaHandler struct {
	responder Responder
	logger    zerolog.Logger
	store     MediaStore
}

func newMediaHandler(store MediaStore) mediaHandler {
	logger := log.With().Str("handlerName", "mediaHandler").Logger()

	return mediaHandler{
		responder: NewResponder(logger),
		logger:    logger,
		store:     store,
	}
}

// uploadMedia stores an image for use in posts
// @Summary Upload an image
// @Description Multipart form with a single file field. JPEG, PNG, GIF, WebP and AVIF up to 5 MiB. The type is sniffed from the content.
// @Tags Media
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image"
// @Success 201 {object} MediaResponse
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 415 {object} ErrorResponse
// @Router /api/media [post]
func (h mediaHandler) uploadMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.store == nil {
			h.responder.WriteError(w, errs.NewConfigError("MEDIA_BUCKET"))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, services.MaxMediaBytes+uploadOverheadBytes)
		file, header, err := r.FormFile("file")
		if err != nil {
			h.responder.WriteError(w, uploadErr(err))
			return
		}
		defer file.Close()

		contentType, err := sniff(file)
		if err != nil {
			h.logger.Warn().Err(err).Msg("reading upload")
			h.responder.WriteError(w, errs.NewBadRequestError("the uploaded file could not be read"))
			return
		}

		url, err := h.store.Upload(r.Context(), contentType, file, header.Size)
		if err != nil {
			if reason := integrationFailure(err); reason != "" {
				h.logger.Warn().Err(err).Str("reason", reason).Msg("media not stored")
			}
			h.responder.WriteError(w, err)
			return
		}
		h.logger.Info().Str("filename", header.Filename).Int64("bytes", header.Size).Msg("media uploaded")
		h.responder.WriteStatusJSON(w, http.StatusCreated, MediaResponse{URL: url})
	}
}

// integrationFailure names the kind of outbound failure for the log, or ""
// when err did not come from an integration.
func integrationFailure(err error) string {
	switch {
	case errs.IsConfigError(err):
		return "not_configured"
	case errs.IsRateLimitError(err):
		return "rate_limited"
	case errs.IsUpstreamError(err):
		return "rejected"
	case errs.IsServiceUnreachableError(err):
		return "unreachable"
	}
	return ""
}

func uploadErr(err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return errs.NewMaxBodySizeExceededError(services.MaxMediaBytes)
	case errors.Is(err, http.ErrMissingFile):
		verr := &errs.ValidationError{}
		verr.Add("file", "is required")
		return verr
	}
	return errs.NewMalformedPayloadError("multipart", err)
}

// sniff detects the content type from the first bytes and rewinds the file.
func sniff(file multipart.File) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(head[:n]), nil
}

type healthHandler struct {
	responder   Responder
	storage     Pinger
	startupTime time.Time
}

func newHealthHandler(storage Pinger, startupTime time.Time) healthHandler {
	logger := log.With().Str("handlerName", "healthHandler").Logger()

	return healthHandler{
		responder:   NewResponder(logger),
		storage:     storage,
		startupTime: startupTime,
	}
}

// health reports uptime and whether storage answers
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /api/health [get]
func (h healthHandler) health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:    "ok",
			StartedAt: h.startupTime.UTC(),
			Uptime:    time.Since(h.startupTime).Round(time.Second).String(),
		}
		status := http.StatusOK
		if h.storage != nil {
			resp.Storage = h.storage.Kind()
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := h.storage.Ping(ctx); err != nil {
				resp.Status = "degraded"
				resp.Error = err.Error()
				status = http.StatusServiceUnavailable
			}
		}
		h.responder.WriteStatusJSON(w, status, resp)
	}
}
