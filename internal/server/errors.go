package server

import (
	stderrors "errors"
	"net/http"

	apperrors "github.com/namelens/adlens/internal/errors"
	"github.com/namelens/adlens/internal/session"
)

// HandleError central handler for all errors
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	apperrors.RespondWithError(w, r, err)
}

// handleSessionError maps controller failures to envelopes: stale responses
// conflict, unknown ads are missing, everything else is a search failure.
func handleSessionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case stderrors.Is(err, session.ErrStaleResponse):
		HandleError(w, r, apperrors.Wrap(r.Context(), apperrors.CodeConflict, err, err.Error()))
	case stderrors.Is(err, session.ErrUnknownAd):
		HandleError(w, r, apperrors.Wrap(r.Context(), apperrors.CodeNotFound, err, err.Error()))
	default:
		HandleError(w, r, apperrors.FromSearchError(r.Context(), err))
	}
}
