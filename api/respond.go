package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/rpupo63/consulting-site-backend/errs"
)

const maxJSONBodyBytes = 1 << 20

type Responder struct {
	logger zerolog.Logger
}

func NewResponder(logger zerolog.Logger) Responder {
	return Responder{logger}
}

func (r Responder) WriteJSON(w http.ResponseWriter, data any) {
	r.WriteStatusJSON(w, http.StatusOK, data)
}

func (r Responder) WriteStatusJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	jsonData, err := json.Marshal(data)
	if err != nil {
		r.logger.Error().Err(err).Msg("error marshaling response data")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	// Check if response is too large (e.g., > 10MB)
	const maxResponseSize = 10 * 1024 * 1024
	if len(jsonData) > maxResponseSize {
		r.logger.Error().
			Int("responseSize", len(jsonData)).
			Int("maxSize", maxResponseSize).
			Msg("response too large, truncating")

		truncated, _ := json.Marshal(ErrorResponse{
			Error:   "Response too large",
			Status:  "error",
			Details: "The requested data exceeds the maximum response size",
		})
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(truncated)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(jsonData); err != nil {
		r.logger.Error().Err(err).Msg("error writing response")
	}
}

func (r Responder) WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func (r Responder) WriteError(w http.ResponseWriter, err error) {
	var verr *errs.ValidationError
	if errors.As(err, &verr) {
		r.WriteStatusJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  errs.ErrValidation.Error(),
			Status: "error",
			Fields: verr.Items,
		})
		return
	}

	var apiErr *errs.ApiErr
	if !errors.As(err, &apiErr) {
		r.logger.Error().Err(err).Msg("unexpected error")
		r.WriteStatusJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "Internal Server Error",
			Status:  "error",
			Details: "An unexpected error occurred",
		})
		return
	}

	response := ErrorResponse{
		Error:   apiErr.Error(),
		Status:  "error",
		Field:   apiErr.Field,
		Details: apiErr.Details,
	}
	// Causes name drivers and token internals; they stay in the log.
	if apiErr.StatusCode >= http.StatusInternalServerError {
		r.logger.Error().Err(err).Int("status", apiErr.StatusCode).Msg(apiErr.GetFullError())
	} else if apiErr.Cause != nil {
		r.logger.Debug().Int("status", apiErr.StatusCode).Msg(apiErr.GetFullError())
	}
	r.WriteStatusJSON(w, apiErr.StatusCode, response)
}

// decodeJSON reads a JSON body of at most maxJSONBodyBytes into dst.
func decodeJSON(w http.ResponseWriter, req *http.Request, dst any) error {
	if ct := req.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return errs.NewUnsupportedMediaTypeError(ct, []string{"application/json"})
		}
	}

	body := http.MaxBytesReader(w, req.Body, maxJSONBodyBytes)
	decoder := json.NewDecoder(body)
	if err := decoder.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return errs.NewMaxBodySizeExceededError(maxJSONBodyBytes)
		case errors.Is(err, io.EOF):
			return errs.NewMalformedPayloadError("JSON", errors.New("request body is empty"))
		}
		return errs.NewInvalidJSONError(err)
	}
	return nil
}
