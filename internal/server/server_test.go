package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namelens/adlens/internal/adsearch"
	apperrors "github.com/namelens/adlens/internal/errors"
	"github.com/namelens/adlens/internal/session"
	"github.com/namelens/adlens/internal/view"
)

type stubBackend struct {
	mu          sync.Mutex
	healthErr   error
	healthCalls int
	resp      *adsearch.SearchResponse
	err       error
	queries   []string
	filters   []adsearch.LegacyFilters
}

func (b *stubBackend) Health(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.healthCalls++
	return b.healthErr
}

func (b *stubBackend) probes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.healthCalls
}

func (b *stubBackend) setHealthErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.healthErr = err
}

func (b *stubBackend) ResolvedBaseURL() string { return "http://backend.test" }

func (b *stubBackend) Search(_ context.Context, query, _ string, filters adsearch.LegacyFilters) (*adsearch.SearchResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queries = append(b.queries, query)
	b.filters = append(b.filters, filters)
	return b.resp, b.err
}

func (b *stubBackend) searches() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queries)
}

func strPtr(v string) *string     { return &v }
func floatPtr(v float64) *float64 { return &v }

func twoAds() *adsearch.SearchResponse {
	return &adsearch.SearchResponse{Ads: []adsearch.Ad{
		{AdID: "111", AdvertiserName: "Loja A", Score: floatPtr(81), Headline: strPtr("Oferta"), MediaType: adsearch.MediaVideo},
		{AdID: "222", AdvertiserName: "Loja B", Score: floatPtr(12), MediaType: adsearch.MediaImage},
	}}
}

func newTestServer(t *testing.T, backend *stubBackend, legacy bool, opts ...session.Option) *Server {
	t.Helper()
	controller := session.New(backend, opts...)
	return New(Options{Host: "127.0.0.1", Legacy: legacy}, controller, backend)
}

func serve(s *Server, method, target string, body string, contentType string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func postForm(s *Server, target string, form url.Values) *httptest.ResponseRecorder {
	return serve(s, http.MethodPost, target, form.Encode(), "application/x-www-form-urlencoded")
}

func document(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return doc
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.HTTPErrorResponse {
	t.Helper()
	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestServerUsesStandardErrorHandlers(t *testing.T) {
	srv := newTestServer(t, &stubBackend{}, false)

	rec := serve(srv, http.MethodGet, "/does-not-exist", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Error.Code)

	rec = serve(srv, http.MethodDelete, "/search", "", "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, rec).Error.Code)
}

func TestIndexProbesBackendWhileStatusUnknown(t *testing.T) {
	backend := &stubBackend{}
	srv := newTestServer(t, backend, false)

	rec := serve(srv, http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	doc := document(t, rec)
	assert.Equal(t, "connected", doc.Find("#status").AttrOr("data-status", ""))
	assert.Equal(t, "Connected (http://backend.test)", doc.Find("#status .status-text").Text())
	assert.Equal(t, 1, backend.probes())

	postForm(srv, "/search", url.Values{"query": {"tenis"}})
	serve(srv, http.MethodGet, "/", "", "")
	serve(srv, http.MethodGet, "/", "", "")
	assert.Equal(t, 1, backend.probes())

	backend.setHealthErr(errors.New("refused"))
	serve(srv, http.MethodGet, "/api/status", "", "")
	assert.Equal(t, 2, backend.probes())

	doc = document(t, serve(srv, http.MethodGet, "/", "", ""))
	assert.Equal(t, "disconnected", doc.Find("#status").AttrOr("data-status", ""))
	assert.Equal(t, view.DisconnectedText, doc.Find("#status .status-text").Text())
	assert.Equal(t, 2, backend.probes())
}

func TestIndexPreselectsDepth(t *testing.T) {
	backend := &stubBackend{resp: twoAds()}
	srv := newTestServer(t, backend, false, session.WithDefaultDepth("standard"))

	doc := document(t, serve(srv, http.MethodGet, "/", "", ""))
	options := doc.Find("select[name=depth] option").Map(func(_ int, sel *goquery.Selection) string {
		return sel.AttrOr("value", "")
	})
	assert.Equal(t, []string{"quick", "deep", "standard"}, options)
	assert.Equal(t, "standard", doc.Find("select[name=depth] option[selected]").AttrOr("value", ""))

	postForm(srv, "/search", url.Values{"query": {"x"}, "depth": {"exhaustive"}})
	postForm(srv, "/retry", nil)
	doc = document(t, serve(srv, http.MethodGet, "/", "", ""))
	assert.Equal(t, "exhaustive", doc.Find("select[name=depth] option[selected]").AttrOr("value", ""))
	assert.Equal(t, 4, doc.Find("select[name=depth] option").Length())
}

func TestSearchFormRedirectsAndRendersCards(t *testing.T) {
	backend := &stubBackend{resp: twoAds()}
	srv := newTestServer(t, backend, false)

	rec := postForm(srv, "/search", url.Values{"query": {"tenis"}, "depth": {"deep"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	doc := document(t, serve(srv, http.MethodGet, "/", "", ""))
	cards := doc.Find("#results a.ad-card")
	require.Equal(t, 2, cards.Length())
	assert.Equal(t, "/ads/111", cards.First().AttrOr("href", ""))
	assert.Equal(t, "Loja A", cards.First().Find(".advertiser").Text())
	assert.True(t, cards.First().Find(".score").HasClass("score-high"))
	assert.True(t, cards.Last().Find(".score").HasClass("score-low"))
	assert.Equal(t, "2", doc.Find("#summary .filtered").Text())
	_, hidden := doc.Find("#results").Attr("hidden")
	assert.False(t, hidden)
	assert.Equal(t, "tenis", doc.Find("input[name=query]").AttrOr("value", ""))
}

func TestSearchFormEmptyQueryShowsPrompt(t *testing.T) {
	backend := &stubBackend{resp: twoAds()}
	srv := newTestServer(t, backend, false)

	rec := postForm(srv, "/search", url.Values{"query": {"  "}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Zero(t, backend.searches())

	doc := document(t, serve(srv, http.MethodGet, "/", "", ""))
	assert.Equal(t, view.EmptyQueryPrompt, doc.Find("#prompt").Text())
}

func TestSearchFormLegacyFilters(t *testing.T) {
	backend := &stubBackend{resp: twoAds()}
	srv := newTestServer(t, backend, true)

	doc := document(t, serve(srv, http.MethodGet, "/", "", ""))
	assert.Equal(t, 1, doc.Find("input[name=min_days]").Length())

	rec := postForm(srv, "/search", url.Values{
		"query":                {"bolsa"},
		"exclude_marketplaces": {"true"},
		"min_days":             {"7"},
		"min_active_ads":       {""},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, 1, backend.searches())
	assert.Equal(t, adsearch.LegacyFilters{ExcludeMarketplaces: true, MinDays: 7}, backend.filters[0])

	rec = postForm(srv, "/search", url.Values{"query": {"bolsa"}, "min_days": {"-1"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.CodeValidationFailed, decodeError(t, rec).Error.Code)
}

func TestSearchFormBackendErrorShowsRetry(t *testing.T) {
	backend := &stubBackend{err: &adsearch.ServerError{StatusCode: 503, Detail: "busy"}}
	srv := newTestServer(t, backend, false)

	postForm(srv, "/search", url.Values{"query": {"relogio"}})
	doc := document(t, serve(srv, http.MethodGet, "/", "", ""))
	_, hidden := doc.Find("#error").Attr("hidden")
	assert.False(t, hidden)
	assert.Contains(t, doc.Find("#error .error-message").Text(), "busy")
	assert.Equal(t, 1, doc.Find("#error form[action='/retry']").Length())

	backend.err = nil
	backend.resp = twoAds()
	rec := postForm(srv, "/retry", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, []string{"relogio", "relogio"}, backend.queries)

	doc = document(t, serve(srv, http.MethodGet, "/", "", ""))
	assert.Equal(t, 2, doc.Find("#results a.ad-card").Length())
}

func TestDetailPage(t *testing.T) {
	backend := &stubBackend{resp: twoAds()}
	srv := newTestServer(t, backend, false)

	rec := serve(srv, http.MethodGet, "/ads/111", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	doc := document(t, rec)
	assert.Equal(t, UnknownAdMessage, doc.Find("#prompt").Text())
	assert.Zero(t, doc.Find("#detail").Length())

	postForm(srv, "/search", url.Values{"query": {"x"}})

	rec = serve(srv, http.MethodGet, "/ads/111", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	doc = document(t, rec)
	require.Equal(t, 1, doc.Find("#detail").Length())
	assert.Contains(t, doc.Find("#detail").Text(), "Loja A")

	rec = postForm(srv, "/ads/close", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	doc = document(t, serve(srv, http.MethodGet, "/", "", ""))
	assert.Zero(t, doc.Find("#detail").Length())
	assert.Equal(t, 2, doc.Find("#results a.ad-card").Length())
}

func TestAPISearch(t *testing.T) {
	backend := &stubBackend{resp: twoAds()}
	srv := newTestServer(t, backend, false)

	rec := serve(srv, http.MethodPost, "/api/search", `{"query":"tenis","depth":"quick"}`, "application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	var v view.View
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	assert.Equal(t, view.StateResults, v.State)
	require.Len(t, v.Cards, 2)
	assert.Equal(t, "111", v.Cards[0].AdID)

	rec = serve(srv, http.MethodGet, "/api/view", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	assert.Equal(t, "tenis", v.Input.Query)
}

func TestAPISearchCaptchaIsSuccess(t *testing.T) {
	backend := &stubBackend{resp: &adsearch.SearchResponse{NeedsManualSolve: true}}
	srv := newTestServer(t, backend, false)

	rec := serve(srv, http.MethodPost, "/api/search", `{"query":"tenis"}`, "application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	var v view.View
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	assert.Equal(t, view.StateCaptchaWarning, v.State)
}

func TestAPISearchErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		backendErr error
		wantStatus int
		wantCode   string
	}{
		{name: "malformed body", body: `{"query":`, wantStatus: http.StatusBadRequest, wantCode: apperrors.CodeInvalidInput},
		{name: "empty query", body: `{"query":"  "}`, wantStatus: http.StatusBadRequest, wantCode: apperrors.CodeValidationFailed},
		{name: "negative filter", body: `{"query":"a","filters":{"min_days":-2}}`, wantStatus: http.StatusBadRequest, wantCode: apperrors.CodeValidationFailed},
		{name: "backend rejection", body: `{"query":"a"}`, backendErr: &adsearch.ServerError{StatusCode: 500}, wantStatus: http.StatusBadGateway, wantCode: apperrors.CodeExternalService},
		{name: "backend timeout", body: `{"query":"a"}`, backendErr: &adsearch.TransportError{Op: "search", Err: context.DeadlineExceeded}, wantStatus: http.StatusGatewayTimeout, wantCode: apperrors.CodeTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &stubBackend{err: tt.backendErr, resp: twoAds()}
			srv := newTestServer(t, backend, false)

			rec := serve(srv, http.MethodPost, "/api/search", tt.body, "application/json")
			require.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Error.Code)
		})
	}
}

func TestAPIRetryWithoutSearchConflicts(t *testing.T) {
	srv := newTestServer(t, &stubBackend{}, false)

	rec := serve(srv, http.MethodPost, "/api/retry", "", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperrors.CodeConflict, decodeError(t, rec).Error.Code)
}

func TestAPIDetail(t *testing.T) {
	backend := &stubBackend{resp: twoAds()}
	srv := newTestServer(t, backend, false)
	serve(srv, http.MethodPost, "/api/search", `{"query":"x"}`, "application/json")

	rec := serve(srv, http.MethodGet, "/api/ads/222", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var v view.View
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	require.NotNil(t, v.Detail)
	assert.Equal(t, "Loja B", v.Detail.AdvertiserName)

	rec = serve(srv, http.MethodGet, "/api/ads/999", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(srv, http.MethodPost, "/api/ads/close", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	v = view.View{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	assert.Nil(t, v.Detail)
}

func TestAPIStatus(t *testing.T) {
	backend := &stubBackend{healthErr: errors.New("down")}
	srv := newTestServer(t, backend, false)

	rec := serve(srv, http.MethodGet, "/api/status", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var status StatusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, view.StatusDisconnected, status.Status)
	assert.Equal(t, "http://backend.test", status.BaseURL)
}

func TestAPICORS(t *testing.T) {
	srv := newTestServer(t, &stubBackend{}, false)

	req := httptest.NewRequest(http.MethodOptions, "/api/search", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthDegradesWhenBackendDown(t *testing.T) {
	backend := &stubBackend{healthErr: errors.New("down")}
	srv := newTestServer(t, backend, false)

	rec := serve(srv, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "degraded", body["status"])

	rec = serve(srv, http.MethodGet, "/health/live", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(srv, http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestVersionEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubBackend{}, false)

	rec := serve(srv, http.MethodGet, "/version", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "adlens", body["app"]["name"])
}
