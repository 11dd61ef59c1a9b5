package adsearch

// Contract selects the wire contract used for search requests.
type Contract string

const (
	// ContractPost is the canonical contract: POST /api/search with a JSON body.
	ContractPost Contract = "post"
	// ContractLegacy is the deprecated contract: GET /search with query-string parameters.
	ContractLegacy Contract = "legacy"
)

// MediaType classifies the creative attached to an ad.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// SearchRequest is the canonical request body. Filters is always encoded as null.
type SearchRequest struct {
	Query   string `json:"query"`
	Depth   string `json:"depth"`
	Filters *any   `json:"filters"`
}

// LegacyFilters are only sent by the legacy contract.
type LegacyFilters struct {
	ExcludeMarketplaces bool `json:"exclude_marketplaces" yaml:"exclude_marketplaces"`
	MinDays             int  `json:"min_days" yaml:"min_days"`
	MinActiveAds        int  `json:"min_active_ads" yaml:"min_active_ads"`
}

// SearchResponse is the union of the fields returned by both contract versions.
type SearchResponse struct {
	Ads              []Ad `json:"ads"`
	NeedsManualSolve bool `json:"needs_manual_solve"`
	TotalFound       *int `json:"total_found,omitempty"`
	TotalResults     *int `json:"total_results,omitempty"`
	FilteredResults  *int `json:"filtered_results,omitempty"`
}

// Total returns total_found, then total_results, then the number of ads.
func (r *SearchResponse) Total() int {
	if r == nil {
		return 0
	}
	switch {
	case r.TotalFound != nil:
		return *r.TotalFound
	case r.TotalResults != nil:
		return *r.TotalResults
	default:
		return len(r.Ads)
	}
}

// Filtered returns filtered_results, falling back to the number of ads returned.
func (r *SearchResponse) Filtered() int {
	if r == nil {
		return 0
	}
	if r.FilteredResults != nil {
		return *r.FilteredResults
	}
	return len(r.Ads)
}

// Ad is one discovered advertisement. Optional fields are pointers because
// their presence differs between backend versions.
type Ad struct {
	AdID                   string    `json:"ad_id"`
	AdvertiserName         string    `json:"advertiser_name"`
	AdvertiserActiveAdsEst int       `json:"advertiser_active_ads_est"`
	Headline               *string   `json:"headline,omitempty"`
	Text                   *string   `json:"text,omitempty"`
	DaysActive             int       `json:"days_active"`
	VariationsCount        int       `json:"variations_count"`
	MediaType              MediaType `json:"media_type"`
	LandingURL             *string   `json:"landing_url,omitempty"`
	AdLibraryResultURL     string    `json:"ad_library_result_url"`
	Score                  *float64  `json:"score,omitempty"`
	IsProbableDropshipping *bool     `json:"is_probable_dropshipping,omitempty"`
	StartDate              *string   `json:"start_date,omitempty"`
}

// errorBody is the optional JSON payload of a non-2xx response.
type errorBody struct {
	Detail *string `json:"detail"`
}
