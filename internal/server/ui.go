package server

import (
	"bytes"
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/namelens/adlens/internal/adsearch"
	apperrors "github.com/namelens/adlens/internal/errors"
	"github.com/namelens/adlens/internal/observability"
	"github.com/namelens/adlens/internal/session"
	"github.com/namelens/adlens/internal/view"
)

// UnknownAdMessage is shown when a detail link points at an ad that is no
// longer in the results.
const UnknownAdMessage = "That ad is not part of the current results"

// handleIndex renders the page for the current view. The backend is probed
// only while its status is still unknown; /api/status probes on demand.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.controller.View().Status.Status == view.StatusUnknown {
		s.probe(r.Context())
	}
	s.renderPage(w, r, http.StatusOK, s.controller.View())
}

func (s *Server) handleSearchForm(w http.ResponseWriter, r *http.Request) {
	in, err := parseSearchForm(r)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	_, err = s.controller.Submit(r.Context(), in)
	s.logOutcome(r, "search", err)
	redirectToPage(w, r)
}

func (s *Server) handleRetryForm(w http.ResponseWriter, r *http.Request) {
	_, _, err := s.controller.Retry(r.Context())
	s.logOutcome(r, "retry", err)
	redirectToPage(w, r)
}

// handleDetailPage renders the page with the detail modal of one ad open.
func (s *Server) handleDetailPage(w http.ResponseWriter, r *http.Request) {
	v, err := s.controller.OpenDetail(chi.URLParam(r, "adID"))
	if stderrors.Is(err, session.ErrUnknownAd) {
		v.Prompt = UnknownAdMessage
		s.renderPage(w, r, http.StatusNotFound, v)
		return
	}
	if err != nil {
		handleSessionError(w, r, err)
		return
	}
	s.renderPage(w, r, http.StatusOK, v)
}

func (s *Server) handleCloseForm(w http.ResponseWriter, r *http.Request) {
	s.controller.CloseDetail()
	redirectToPage(w, r)
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, v *view.View) {
	var buf bytes.Buffer
	if err := s.page.Render(&buf, v); err != nil {
		HandleError(w, r, apperrors.Wrap(r.Context(), apperrors.CodeInternal, err, "failed to render page"))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// logOutcome keeps the page flow quiet: failures are already in the view,
// so they are only logged.
func (s *Server) logOutcome(r *http.Request, action string, err error) {
	logger := observability.ServerLogger
	if err == nil || logger == nil {
		return
	}
	fields := []zap.Field{zap.String("action", action), zap.Error(err), zap.String("kind", adsearch.Kind(err))}
	switch {
	case stderrors.Is(err, adsearch.ErrEmptyQuery), stderrors.Is(err, session.ErrStaleResponse):
		logger.Debug("Search not rendered", fields...)
	default:
		logger.Warn("Search failed", fields...)
	}
}

func redirectToPage(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// parseSearchForm reads the search controls. Legacy filter fields are
// optional; blank numbers mean zero.
func parseSearchForm(r *http.Request) (session.Input, error) {
	if err := r.ParseForm(); err != nil {
		return session.Input{}, apperrors.Wrap(r.Context(), apperrors.CodeInvalidInput, err, "malformed form body")
	}

	in := session.Input{
		Query: r.PostFormValue("query"),
		Depth: r.PostFormValue("depth"),
	}
	in.Filters.ExcludeMarketplaces = formBool(r.PostFormValue("exclude_marketplaces"))

	var err error
	if in.Filters.MinDays, err = formInt(r.PostFormValue("min_days")); err != nil {
		return session.Input{}, apperrors.Wrap(r.Context(), apperrors.CodeValidationFailed, err, "min_days must be a non-negative integer")
	}
	if in.Filters.MinActiveAds, err = formInt(r.PostFormValue("min_active_ads")); err != nil {
		return session.Input{}, apperrors.Wrap(r.Context(), apperrors.CodeValidationFailed, err, "min_active_ads must be a non-negative integer")
	}
	return in, nil
}

func formBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "on", "1", "yes":
		return true
	default:
		return false
	}
}

func formInt(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
