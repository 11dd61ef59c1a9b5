// Package session owns one search session: the liveness indicator, the
// last submitted search, and the view-model that renderers draw. It is the
// Go counterpart of a single page of the search client.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/namelens/adlens/internal/adsearch"
	"github.com/namelens/adlens/internal/metrics"
	"github.com/namelens/adlens/internal/view"
)

// DefaultDepth is used when a submission carries no depth.
const DefaultDepth = "quick"

var (
	// ErrStaleResponse reports that a newer search superseded this one and its
	// response was discarded.
	ErrStaleResponse = errors.New("search superseded by a newer request")
	// ErrUnknownAd is returned when a detail is requested for an ad not in the
	// current results.
	ErrUnknownAd = errors.New("ad not in current results")
)

// Backend is the part of the search client the controller needs.
type Backend interface {
	Health(ctx context.Context) error
	Search(ctx context.Context, query, depth string, filters adsearch.LegacyFilters) (*adsearch.SearchResponse, error)
	ResolvedBaseURL() string
}

// Input is the set of search parameters; the last submitted one is kept for retry.
type Input = view.Input

// Controller serializes access to the session state. Network calls run
// outside the lock; a sequence token decides which completion may render.
type Controller struct {
	backend      Backend
	opts         view.Options
	defaultDepth string
	logger       *logging.Logger

	mu      sync.Mutex
	view    *view.View
	current *Input
	ads     []adsearch.Ad
	seq     uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithViewOptions sets the card mapping options.
func WithViewOptions(opts view.Options) Option {
	return func(c *Controller) { c.opts = opts }
}

// WithDefaultDepth sets the depth used when a submission has none.
func WithDefaultDepth(depth string) Option {
	return func(c *Controller) {
		if strings.TrimSpace(depth) != "" {
			c.defaultDepth = strings.TrimSpace(depth)
		}
	}
}

// WithLogger attaches a logger. A nil logger disables logging.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// New returns a controller in the idle state with an unknown backend status.
func New(backend Backend, opts ...Option) *Controller {
	c := &Controller{
		backend:      backend,
		opts:         view.DefaultOptions(),
		defaultDepth: DefaultDepth,
		view:         view.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// View returns a copy of the current view-model.
func (c *Controller) View() *view.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.Clone()
}

// BaseURL is the backend base URL the session talks to.
func (c *Controller) BaseURL() string {
	return c.backend.ResolvedBaseURL()
}

// DefaultDepth is the depth used when a submission carries none.
func (c *Controller) DefaultDepth() string {
	return c.defaultDepth
}

// CurrentSearch returns the last submitted search, if any.
func (c *Controller) CurrentSearch() (Input, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return Input{}, false
	}
	return *c.current, true
}

// Probe checks backend liveness once and updates the status indicator.
func (c *Controller) Probe(ctx context.Context) view.Status {
	started := time.Now()
	err := c.backend.Health(ctx)
	metrics.RecordProbe(err == nil, time.Since(started))

	status := view.StatusConnected
	if err != nil {
		status = view.StatusDisconnected
		c.debug("Backend probe failed", zap.String("base_url", c.backend.ResolvedBaseURL()), zap.Error(err))
	}

	c.mu.Lock()
	c.view.SetStatus(status, c.backend.ResolvedBaseURL())
	c.mu.Unlock()
	return status
}

// Submit runs one search. The returned view is never nil. The error is
// adsearch.ErrEmptyQuery for a blank query (no request is made and the view
// carries a prompt), ErrStaleResponse when a newer search superseded this
// one, or the backend error that put the view in the error state.
func (c *Controller) Submit(ctx context.Context, in Input) (*view.View, error) {
	in.Query = strings.TrimSpace(in.Query)
	in.Depth = strings.TrimSpace(in.Depth)
	if in.Depth == "" {
		in.Depth = c.defaultDepth
	}

	c.mu.Lock()
	if in.Query == "" {
		c.view.Prompt = view.EmptyQueryPrompt
		snapshot := c.view.Clone()
		c.mu.Unlock()
		return snapshot, adsearch.ErrEmptyQuery
	}

	current := in
	c.current = &current
	c.seq++
	token := c.seq
	c.ads = nil
	c.view.SetLoading()
	c.view.Input = in
	c.mu.Unlock()

	searchID := uuid.NewString()
	c.debug("Submitting search",
		zap.String("search_id", searchID),
		zap.String("query", in.Query),
		zap.String("depth", in.Depth),
		zap.Uint64("token", token))

	started := time.Now()
	resp, err := c.backend.Search(ctx, in.Query, in.Depth, in.Filters)
	elapsed := time.Since(started)

	c.mu.Lock()
	defer c.mu.Unlock()

	if token != c.seq {
		metrics.RecordStaleResponse()
		c.debug("Discarding stale search response",
			zap.String("search_id", searchID),
			zap.Uint64("token", token),
			zap.Uint64("latest", c.seq))
		return c.view.Clone(), ErrStaleResponse
	}

	outcome := c.apply(resp, err)
	metrics.RecordSearch(outcome, elapsed)
	c.debug("Search completed",
		zap.String("search_id", searchID),
		zap.String("outcome", outcome),
		zap.Duration("duration", elapsed))

	return c.view.Clone(), err
}

// Retry restores the last search into the inputs and submits it again. It
// reports false, and does nothing, when no search was made yet.
func (c *Controller) Retry(ctx context.Context) (*view.View, bool, error) {
	c.mu.Lock()
	if c.current == nil {
		snapshot := c.view.Clone()
		c.mu.Unlock()
		return snapshot, false, nil
	}
	in := *c.current
	c.view.Input = in
	c.mu.Unlock()

	snapshot, err := c.Submit(ctx, in)
	return snapshot, true, err
}

// OpenDetail opens the detail modal for an ad of the current results.
func (c *Controller) OpenDetail(adID string) (*view.View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ad := range c.ads {
		if ad.AdID == adID {
			c.view.OpenDetail(view.NewDetail(ad, c.opts))
			return c.view.Clone(), nil
		}
	}
	return c.view.Clone(), ErrUnknownAd
}

// CloseDetail closes the detail modal.
func (c *Controller) CloseDetail() *view.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.CloseDetail()
	return c.view.Clone()
}

// apply renders a completed search; callers hold the lock.
func (c *Controller) apply(resp *adsearch.SearchResponse, err error) string {
	switch {
	case err != nil:
		c.view.SetError(err.Error())
		return "error_" + adsearch.Kind(err)
	case resp == nil:
		c.view.SetNoResults()
		return "no_results"
	case resp.NeedsManualSolve:
		c.view.SetCaptchaWarning()
		return "captcha"
	case len(resp.Ads) > 0:
		c.ads = append([]adsearch.Ad(nil), resp.Ads...)
		c.view.SetResults(resp, c.opts)
		return "results"
	default:
		c.view.SetNoResults()
		return "no_results"
	}
}

func (c *Controller) debug(msg string, fields ...zap.Field) {
	if c.logger == nil {
		return
	}
	c.logger.Debug(msg, fields...)
}
