package server

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/namelens/adlens/internal/errors"
	"github.com/namelens/adlens/internal/session"
	"github.com/namelens/adlens/internal/view"
)

const maxRequestBody = 64 << 10

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Status  view.Status `json:"status"`
	Text    string      `json:"text"`
	Color   string      `json:"color"`
	BaseURL string      `json:"base_url"`
}

func (s *Server) apiView(w http.ResponseWriter, r *http.Request) {
	writeView(w, s.controller.View())
}

func (s *Server) apiStatus(w http.ResponseWriter, r *http.Request) {
	s.probe(r.Context())
	indicator := s.controller.View().Status
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:  indicator.Status,
		Text:    indicator.Text,
		Color:   indicator.Color,
		BaseURL: s.controller.BaseURL(),
	})
}

// apiSearch runs a search. Successful outcomes, including captcha and empty
// results, answer 200 with the view; failures answer an error envelope.
func (s *Server) apiSearch(w http.ResponseWriter, r *http.Request) {
	var in session.Input
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(&in); err != nil && !stderrors.Is(err, io.EOF) {
		HandleError(w, r, apperrors.Wrap(r.Context(), apperrors.CodeInvalidInput, err, "malformed JSON body"))
		return
	}
	if in.Filters.MinDays < 0 || in.Filters.MinActiveAds < 0 {
		HandleError(w, r, apperrors.NewValidationError("filters must not be negative"))
		return
	}

	v, err := s.controller.Submit(r.Context(), in)
	if err != nil {
		handleSessionError(w, r, err)
		return
	}
	writeView(w, v)
}

func (s *Server) apiRetry(w http.ResponseWriter, r *http.Request) {
	v, ran, err := s.controller.Retry(r.Context())
	if !ran {
		HandleError(w, r, apperrors.NewConflictError("no search to retry"))
		return
	}
	if err != nil {
		handleSessionError(w, r, err)
		return
	}
	writeView(w, v)
}

func (s *Server) apiOpenDetail(w http.ResponseWriter, r *http.Request) {
	v, err := s.controller.OpenDetail(chi.URLParam(r, "adID"))
	if err != nil {
		handleSessionError(w, r, err)
		return
	}
	writeView(w, v)
}

func (s *Server) apiCloseDetail(w http.ResponseWriter, r *http.Request) {
	writeView(w, s.controller.CloseDetail())
}

func writeView(w http.ResponseWriter, v *view.View) {
	writeJSON(w, http.StatusOK, v)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
