package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"github.com/gogpu/retouch"
	"github.com/gogpu/retouch/store"
)

// errBadRequest marks malformed request bodies and parameters.
var errBadRequest = errors.New("bad request")

// statusFor maps an error to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errSessionNotFound),
		errors.Is(err, retouch.ErrOverlayNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, retouch.ErrNoImageLoaded):
		return http.StatusConflict
	case errors.Is(err, retouch.ErrFilterUnsupported):
		return http.StatusUnprocessableEntity
	case errors.Is(err, retouch.ErrFilterProcessingFailed):
		return http.StatusInternalServerError
	case errors.Is(err, errBadRequest),
		errors.Is(err, retouch.ErrNilImage),
		errors.Is(err, retouch.ErrEmptyText),
		errors.Is(err, retouch.ErrInvalidTransform),
		errors.Is(err, retouch.ErrInvalidPosition),
		errors.Is(err, retouch.ErrInvalidDimensions),
		errors.Is(err, retouch.ErrInvalidColor),
		errors.Is(err, store.ErrInvalidID):
		return http.StatusBadRequest
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

type errorResponse struct {
	Error string `json:"error"`
}

// respondError writes err as JSON with the status from statusFor.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	log := logrus.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"status": status,
	}).WithError(err)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed")
	} else {
		log.Debug("Request rejected")
	}
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: err.Error()})
}
