// Package view holds the view-model the renderers consume: status slots,
// the active UI state, panel visibility, the summary, cards and the open
// detail. Nothing here performs I/O.
package view

import (
	"fmt"

	"github.com/namelens/adlens/internal/adsearch"
)

// State is the single active UI state.
type State string

const (
	StateIdle           State = "idle"
	StateLoading        State = "loading"
	StateError          State = "error"
	StateCaptchaWarning State = "captcha_warning"
	StateNoResults      State = "no_results"
	StateResults        State = "results"
)

// Status is the backend liveness indicator.
type Status string

const (
	StatusUnknown      Status = "unknown"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

// Indicator colours, kept from the original page palette.
const (
	ColorConnected    = "#42b883"
	ColorDisconnected = "#ef4444"
	ColorUnknown      = "#9ca3af"
)

// Fixed UI messages.
const (
	NotAvailable      = "Not available"
	NotApplicable     = "N/A"
	EmptyQueryPrompt  = "Please enter a search term"
	DisconnectedText  = "Disconnected - check the backend"
	CaptchaMessage    = "The backend needs a CAPTCHA solved manually before searching can continue."
	NoResultsMessage  = "No ads matched this search."
	connectedTemplate = "Connected (%s)"
)

// StatusIndicator is the status slot of the page header.
type StatusIndicator struct {
	Status Status `json:"status" yaml:"status"`
	Text   string `json:"text" yaml:"text"`
	Color  string `json:"color" yaml:"color"`
}

// Input mirrors the search controls.
type Input struct {
	Query   string                 `json:"query" yaml:"query"`
	Depth   string                 `json:"depth" yaml:"depth"`
	Filters adsearch.LegacyFilters `json:"filters" yaml:"filters"`
}

// Panels are the visibility flags derived from the active state.
type Panels struct {
	Loading        bool `json:"loading" yaml:"loading"`
	Error          bool `json:"error" yaml:"error"`
	CaptchaWarning bool `json:"captcha_warning" yaml:"captcha_warning"`
	NoResults      bool `json:"no_results" yaml:"no_results"`
	Summary        bool `json:"summary" yaml:"summary"`
	Results        bool `json:"results" yaml:"results"`
}

// Summary is the results summary panel.
type Summary struct {
	TotalFound   int    `json:"total_found" yaml:"total_found"`
	Filtered     int    `json:"filtered" yaml:"filtered"`
	Dropshipping string `json:"dropshipping" yaml:"dropshipping"`
}

// View is everything a renderer needs to draw the page.
type View struct {
	Status       StatusIndicator `json:"status" yaml:"status"`
	State        State           `json:"state" yaml:"state"`
	Input        Input           `json:"input" yaml:"input"`
	Prompt       string          `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty" yaml:"error_message,omitempty"`
	Summary      *Summary        `json:"summary,omitempty" yaml:"summary,omitempty"`
	Cards        []Card          `json:"cards,omitempty" yaml:"cards,omitempty"`
	Detail       *Detail         `json:"detail,omitempty" yaml:"detail,omitempty"`
	Panels       Panels          `json:"panels" yaml:"panels"`
}

// New returns an idle view with an unknown backend status.
func New() *View {
	v := &View{}
	v.SetStatus(StatusUnknown, "")
	v.transition(StateIdle)
	return v
}

// Clone returns a deep copy safe to hand to a renderer.
func (v *View) Clone() *View {
	if v == nil {
		return nil
	}
	out := *v
	if v.Summary != nil {
		summary := *v.Summary
		out.Summary = &summary
	}
	if v.Cards != nil {
		out.Cards = append([]Card(nil), v.Cards...)
	}
	if v.Detail != nil {
		detail := *v.Detail
		out.Detail = &detail
	}
	return &out
}

// SetStatus updates the liveness indicator.
func (v *View) SetStatus(status Status, baseURL string) {
	switch status {
	case StatusConnected:
		v.Status = StatusIndicator{Status: status, Text: fmt.Sprintf(connectedTemplate, baseURL), Color: ColorConnected}
	case StatusDisconnected:
		v.Status = StatusIndicator{Status: status, Text: DisconnectedText, Color: ColorDisconnected}
	default:
		v.Status = StatusIndicator{Status: StatusUnknown, Text: "Checking backend...", Color: ColorUnknown}
	}
}

// SetLoading clears every other panel and shows the loading state.
func (v *View) SetLoading() {
	v.transition(StateLoading)
}

// SetError clears every other panel and shows message.
func (v *View) SetError(message string) {
	v.transition(StateError)
	v.ErrorMessage = message
}

// SetCaptchaWarning shows the manual CAPTCHA warning. No cards are kept.
func (v *View) SetCaptchaWarning() {
	v.transition(StateCaptchaWarning)
}

// SetNoResults shows the empty-result state.
func (v *View) SetNoResults() {
	v.transition(StateNoResults)
}

// SetResults rebuilds the summary and the card list from resp, in order.
func (v *View) SetResults(resp *adsearch.SearchResponse, opts Options) {
	v.transition(StateResults)
	summary := NewSummary(resp)
	v.Summary = &summary
	v.Cards = make([]Card, 0, len(resp.Ads))
	for i, ad := range resp.Ads {
		v.Cards = append(v.Cards, NewCard(i, ad, opts))
	}
}

// OpenDetail opens the detail modal.
func (v *View) OpenDetail(detail Detail) {
	v.Detail = &detail
}

// CloseDetail closes the detail modal.
func (v *View) CloseDetail() {
	v.Detail = nil
}

// transition resets all state-specific slots before switching state.
func (v *View) transition(state State) {
	v.State = state
	v.Prompt = ""
	v.ErrorMessage = ""
	v.Summary = nil
	v.Cards = nil
	v.Detail = nil
	v.Panels = panelsFor(state)
}

func panelsFor(state State) Panels {
	switch state {
	case StateLoading:
		return Panels{Loading: true}
	case StateError:
		return Panels{Error: true}
	case StateCaptchaWarning:
		return Panels{CaptchaWarning: true}
	case StateNoResults:
		return Panels{NoResults: true}
	case StateResults:
		return Panels{Summary: true, Results: true}
	default:
		return Panels{}
	}
}
