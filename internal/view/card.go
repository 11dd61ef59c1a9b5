package view

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/namelens/adlens/internal/adsearch"
)

// Tier is the score classification shown on a card badge.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

const (
	// DefaultTextLimit is the character budget of a card snippet.
	DefaultTextLimit = 150
	// DefaultDateLayout renders start dates as dd/mm/yyyy.
	DefaultDateLayout = "02/01/2006"
	// PlaceholderScore classifies ads from backends that send no score.
	PlaceholderScore = 50.0

	landingFallbackChars = 30
	ellipsis             = "..."
)

// Options tune the data-to-card mapping.
type Options struct {
	TextLimit  int
	DateLayout string
}

// DefaultOptions returns the stock card options.
func DefaultOptions() Options {
	return Options{TextLimit: DefaultTextLimit, DateLayout: DefaultDateLayout}
}

func (o Options) textLimit() int {
	if o.TextLimit <= 0 {
		return DefaultTextLimit
	}
	return o.TextLimit
}

func (o Options) dateLayout() string {
	if strings.TrimSpace(o.DateLayout) == "" {
		return DefaultDateLayout
	}
	return o.DateLayout
}

// Card is one rendered ad in the results grid.
type Card struct {
	Index          int    `json:"index" yaml:"index"`
	AdID           string `json:"ad_id" yaml:"ad_id"`
	AdvertiserName string `json:"advertiser_name" yaml:"advertiser_name"`
	ActiveAds      int    `json:"active_ads" yaml:"active_ads"`
	Score          string `json:"score" yaml:"score"`
	ScoreTier      Tier   `json:"score_tier" yaml:"score_tier"`
	Headline       string `json:"headline,omitempty" yaml:"headline,omitempty"`
	Snippet        string `json:"snippet,omitempty" yaml:"snippet,omitempty"`
	DaysActive     int    `json:"days_active" yaml:"days_active"`
	Variations     int    `json:"variations" yaml:"variations"`
	IsVideo        bool   `json:"is_video" yaml:"is_video"`
	MediaLabel     string `json:"media_label" yaml:"media_label"`
	LandingLabel   string `json:"landing_label" yaml:"landing_label"`
	Dropshipping   bool   `json:"dropshipping" yaml:"dropshipping"`
}

// Detail is the content of the ad detail modal.
type Detail struct {
	AdID           string `json:"ad_id" yaml:"ad_id"`
	AdvertiserName string `json:"advertiser_name" yaml:"advertiser_name"`
	Score          string `json:"score" yaml:"score"`
	DaysActive     int    `json:"days_active" yaml:"days_active"`
	StartDate      string `json:"start_date" yaml:"start_date"`
	Variations     int    `json:"variations" yaml:"variations"`
	ActiveAds      int    `json:"active_ads" yaml:"active_ads"`
	MediaType      string `json:"media_type" yaml:"media_type"`
	Headline       string `json:"headline,omitempty" yaml:"headline,omitempty"`
	Text           string `json:"text,omitempty" yaml:"text,omitempty"`
	LandingURL     string `json:"landing_url,omitempty" yaml:"landing_url,omitempty"`
	AdLibraryURL   string `json:"ad_library_url" yaml:"ad_library_url"`
	Dropshipping   bool   `json:"dropshipping" yaml:"dropshipping"`
	Analysis       string `json:"analysis" yaml:"analysis"`
}

// NewCard maps one ad to its card. It is a pure function of its inputs.
func NewCard(index int, ad adsearch.Ad, opts Options) Card {
	card := Card{
		Index:          index,
		AdID:           ad.AdID,
		AdvertiserName: ad.AdvertiserName,
		ActiveAds:      ad.AdvertiserActiveAdsEst,
		Score:          formatScore(ad.Score, 1),
		ScoreTier:      ScoreTier(scoreOrPlaceholder(ad.Score)),
		DaysActive:     ad.DaysActive,
		Variations:     ad.VariationsCount,
		IsVideo:        ad.MediaType == adsearch.MediaVideo,
		MediaLabel:     MediaLabel(ad.MediaType),
		LandingLabel:   LandingLabel(ad.LandingURL),
		Dropshipping:   flag(ad.IsProbableDropshipping),
	}
	if ad.Headline != nil {
		card.Headline = *ad.Headline
	}
	if ad.Text != nil && *ad.Text != "" {
		card.Snippet = Truncate(*ad.Text, opts.textLimit())
	}
	return card
}

// NewDetail maps one ad to the detail modal content.
func NewDetail(ad adsearch.Ad, opts Options) Detail {
	detail := Detail{
		AdID:           ad.AdID,
		AdvertiserName: ad.AdvertiserName,
		Score:          formatScore(ad.Score, 2),
		DaysActive:     ad.DaysActive,
		StartDate:      FormatDate(ad.StartDate, opts.dateLayout()),
		Variations:     ad.VariationsCount,
		ActiveAds:      ad.AdvertiserActiveAdsEst,
		MediaType:      string(ad.MediaType),
		AdLibraryURL:   ad.AdLibraryResultURL,
		Dropshipping:   flag(ad.IsProbableDropshipping),
	}
	if ad.Headline != nil {
		detail.Headline = *ad.Headline
	}
	if ad.Text != nil {
		detail.Text = *ad.Text
	}
	if ad.LandingURL != nil {
		detail.LandingURL = *ad.LandingURL
	}
	if detail.Dropshipping {
		detail.Analysis = "Probable dropshipping store (patterns found in the URL)"
	} else {
		detail.Analysis = "Not identified as dropshipping"
	}
	return detail
}

// NewSummary counts dropshipping ads only when the backend reports the flag.
func NewSummary(resp *adsearch.SearchResponse) Summary {
	summary := Summary{
		TotalFound:   resp.Total(),
		Filtered:     resp.Filtered(),
		Dropshipping: NotApplicable,
	}

	reported := false
	count := 0
	for _, ad := range resp.Ads {
		if ad.IsProbableDropshipping == nil {
			continue
		}
		reported = true
		if *ad.IsProbableDropshipping {
			count++
		}
	}
	if reported {
		summary.Dropshipping = fmt.Sprintf("%d", count)
	}
	return summary
}

// ScoreTier classifies a score: high >= 70, medium >= 40, low otherwise.
func ScoreTier(score float64) Tier {
	switch {
	case score >= 70:
		return TierHigh
	case score >= 40:
		return TierMedium
	default:
		return TierLow
	}
}

// LandingLabel returns the landing hostname without a leading "www.". When
// the value is not an absolute URL it falls back to its first 30 characters
// followed by an ellipsis.
func LandingLabel(landing *string) string {
	if landing == nil || *landing == "" {
		return NotAvailable
	}

	raw := *landing
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Hostname() == "" {
		return prefix(raw, landingFallbackChars) + ellipsis
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}

// Truncate keeps the first limit characters of text and appends an ellipsis
// when anything was cut.
func Truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	return prefix(text, limit) + ellipsis
}

// FormatDate renders an ISO date or timestamp with layout; missing or
// unparseable values render as N/A.
func FormatDate(value *string, layout string) string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return NotApplicable
	}

	raw := strings.TrimSpace(*value)
	for _, candidate := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(candidate, raw); err == nil {
			return parsed.UTC().Format(layout)
		}
	}
	return NotApplicable
}

// MediaLabel is the human label of a media type.
func MediaLabel(media adsearch.MediaType) string {
	if media == adsearch.MediaVideo {
		return "Video"
	}
	return "Image"
}

func formatScore(score *float64, precision int) string {
	if score == nil {
		return NotApplicable
	}
	return fmt.Sprintf("%.*f", precision, *score)
}

func scoreOrPlaceholder(score *float64) float64 {
	if score == nil {
		return PlaceholderScore
	}
	return *score
}

func flag(value *bool) bool {
	return value != nil && *value
}

func prefix(text string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range text {
		if count == n {
			return text[:i]
		}
		count++
	}
	return text
}
