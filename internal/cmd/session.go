package cmd

import (
	stderrors "errors"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"

	"github.com/namelens/adlens/internal/adsearch"
	"github.com/namelens/adlens/internal/config"
	"github.com/namelens/adlens/internal/session"
	"github.com/namelens/adlens/internal/view"
)

// newBackend builds the search client described by cfg.
func newBackend(cfg *config.Config) *adsearch.Client {
	return adsearch.NewClient(cfg.Backend.BaseURL, adsearch.Contract(cfg.Backend.Contract), cfg.Backend.Timeout)
}

func newController(cfg *config.Config, backend session.Backend, logger *logging.Logger) *session.Controller {
	return session.New(backend,
		session.WithDefaultDepth(cfg.Search.DefaultDepth),
		session.WithViewOptions(view.Options{TextLimit: cfg.UI.TextLimit, DateLayout: cfg.UI.DateLayout}),
		session.WithLogger(logger))
}

func isLegacy(cfg *config.Config) bool {
	return adsearch.Contract(cfg.Backend.Contract) == adsearch.ContractLegacy
}

// searchExitError attaches an exit code to a failed search; nil stays nil.
func searchExitError(err error) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, adsearch.ErrEmptyQuery):
		return withExitCode(foundry.ExitFailure, "nothing to search", err)
	default:
		return withExitCode(foundry.ExitExternalServiceUnavailable, "search failed", err)
	}
}
