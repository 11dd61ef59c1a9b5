package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/namelens/adlens/internal/adsearch"
	"github.com/namelens/adlens/internal/observability"
	"github.com/namelens/adlens/internal/session"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search ads and print the result cards",
	Long: `Search the ads library backend once and print the results.

Captcha and empty results are reported but are not failures. Legacy filter
flags are sent only with the legacy contract.`,
	Example: `  adlens search "running shoes"
  adlens search tenis --depth deep -o json --out results.json
  adlens search bolsa --contract legacy --min-days 7 --exclude-marketplaces`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().String("depth", "", "Search depth passed to the backend (default search.default_depth)")
	searchCmd.Flags().Bool("exclude-marketplaces", false, "Legacy filter: exclude marketplace advertisers")
	searchCmd.Flags().Int("min-days", 0, "Legacy filter: minimum days active")
	searchCmd.Flags().Int("min-active-ads", 0, "Legacy filter: minimum active ads per advertiser")
	searchCmd.Flags().String("show", "", "Open the detail of this ad id in the output")
	addOutputFlags(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	in, err := searchInput(cmd, strings.Join(args, " "))
	if err != nil {
		return err
	}

	controller := newController(cfg, newBackend(cfg), observability.CLILogger)
	controller.Probe(cmd.Context())

	v, searchErr := controller.Submit(cmd.Context(), in)
	if show, _ := cmd.Flags().GetString("show"); show != "" && searchErr == nil {
		if v, err = controller.OpenDetail(show); err != nil {
			return err
		}
	}

	if err := renderView(cmd, v, in.Query, isLegacy(cfg)); err != nil {
		return err
	}
	return searchExitError(searchErr)
}

func searchInput(cmd *cobra.Command, query string) (session.Input, error) {
	depth, err := cmd.Flags().GetString("depth")
	if err != nil {
		return session.Input{}, err
	}
	exclude, err := cmd.Flags().GetBool("exclude-marketplaces")
	if err != nil {
		return session.Input{}, err
	}
	minDays, err := cmd.Flags().GetInt("min-days")
	if err != nil {
		return session.Input{}, err
	}
	minActive, err := cmd.Flags().GetInt("min-active-ads")
	if err != nil {
		return session.Input{}, err
	}

	return session.Input{
		Query: query,
		Depth: depth,
		Filters: adsearch.LegacyFilters{
			ExcludeMarketplaces: exclude,
			MinDays:             minDays,
			MinActiveAds:        minActive,
		},
	}, nil
}
