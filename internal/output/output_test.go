package output

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/namelens/adlens/internal/adsearch"
	"github.com/namelens/adlens/internal/view"
)

func strPtr(v string) *string     { return &v }
func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

func resultsView(t *testing.T) *view.View {
	t.Helper()

	v := view.New()
	v.SetStatus(view.StatusConnected, "http://localhost:8000")
	v.SetResults(&adsearch.SearchResponse{
		Ads: []adsearch.Ad{
			{
				AdID:                   "111",
				AdvertiserName:         "Loja | Fit",
				AdvertiserActiveAdsEst: 12,
				Headline:               strPtr("Frete grátis <hoje>"),
				Text:                   strPtr("Tênis de corrida com amortecimento"),
				DaysActive:             45,
				VariationsCount:        3,
				MediaType:              adsearch.MediaVideo,
				LandingURL:             strPtr("https://www.lojafit.com.br/tenis"),
				AdLibraryResultURL:     "https://www.facebook.com/ads/library/?id=111",
				Score:                  floatPtr(81.25),
				IsProbableDropshipping: boolPtr(true),
				StartDate:              strPtr("2024-02-10"),
			},
			{
				AdID:               "222",
				AdvertiserName:     "Outra",
				MediaType:          adsearch.MediaImage,
				AdLibraryResultURL: "javascript:alert(1)",
			},
		},
	}, view.DefaultOptions())
	v.Input = view.Input{Query: "tenis", Depth: "deep"}
	return v
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"":         FormatTable,
		"table":    FormatTable,
		"JSON":     FormatJSON,
		"yml":      FormatYAML,
		"md":       FormatMarkdown,
		"markdown": FormatMarkdown,
		"html":     FormatHTML,
	}
	for input, want := range tests {
		got, err := ParseFormat(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseFormat("csv")
	require.Error(t, err)
}

func TestJSONFormatter(t *testing.T) {
	rendered, err := NewFormatter(FormatJSON, Options{}).Format(resultsView(t))
	require.NoError(t, err)

	var decoded view.View
	require.NoError(t, json.Unmarshal([]byte(rendered), &decoded))
	assert.Equal(t, view.StateResults, decoded.State)
	require.Len(t, decoded.Cards, 2)
	assert.Equal(t, "81.2", decoded.Cards[0].Score)
	assert.Equal(t, "lojafit.com.br", decoded.Cards[0].LandingLabel)
}

func TestYAMLFormatter(t *testing.T) {
	rendered, err := NewFormatter(FormatYAML, Options{}).Format(resultsView(t))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(rendered), &decoded))
	assert.Equal(t, "results", decoded["state"])
	assert.Contains(t, rendered, "advertiser_name: Outra")
}

func TestTableFormatter(t *testing.T) {
	rendered, err := NewFormatter(FormatTable, Options{}).Format(resultsView(t))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rendered, "● Connected (http://localhost:8000)"))
	assert.Contains(t, rendered, "Found: 2  Shown: 2  Dropshipping: 1")
	assert.Contains(t, rendered, "ADVERTISER")
	assert.Contains(t, rendered, "Loja | Fit")
	assert.Contains(t, rendered, "dropshipping")
	assert.NotContains(t, rendered, "\x1b[", "colour must stay off unless requested")

	text.EnableColors()
	coloured, err := NewFormatter(FormatTable, Options{Color: true}).Format(resultsView(t))
	require.NoError(t, err)
	assert.Contains(t, coloured, "\x1b[")
}

func TestTableFormatterStates(t *testing.T) {
	v := view.New()
	v.SetError("HTTP error! status: 502")
	rendered, err := (&TableFormatter{}).Format(v)
	require.NoError(t, err)
	assert.Contains(t, rendered, "Error: HTTP error! status: 502")

	v.SetCaptchaWarning()
	rendered, err = (&TableFormatter{}).Format(v)
	require.NoError(t, err)
	assert.Contains(t, rendered, view.CaptchaMessage)
	assert.NotContains(t, rendered, "ADVERTISER")
}

func TestMarkdownFormatter(t *testing.T) {
	v := resultsView(t)
	v.OpenDetail(view.NewDetail(adsearch.Ad{AdID: "111", AdvertiserName: "Loja | Fit", Text: strPtr("linha 1\nlinha 2")}, view.DefaultOptions()))

	rendered, err := NewFormatter(FormatMarkdown, Options{}).Format(v)
	require.NoError(t, err)
	assert.Contains(t, rendered, `## Ads for "tenis"`)
	assert.Contains(t, rendered, "| # | Advertiser |")
	assert.Contains(t, rendered, "Loja \\| Fit")
	assert.Contains(t, rendered, "81.2 (high)")
	assert.Contains(t, rendered, "> linha 2")
}

func TestHTMLPageRendersCards(t *testing.T) {
	rendered, err := NewFormatter(FormatHTML, Options{}).Format(resultsView(t))
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rendered))
	require.NoError(t, err)

	assert.Equal(t, "connected", doc.Find("#status").AttrOr("data-status", ""))
	assert.Equal(t, "Connected (http://localhost:8000)", doc.Find("#status .status-text").Text())

	cards := doc.Find(".ad-card")
	require.Equal(t, 2, cards.Length())
	first := cards.First()
	assert.Equal(t, "/ads/111", first.AttrOr("href", ""))
	assert.Equal(t, "Frete grátis <hoje>", first.Find(".headline").Text())
	assert.True(t, first.Find(".score").HasClass("score-high"))
	assert.True(t, first.Find(".media").HasClass("media-video"))
	assert.Equal(t, "lojafit.com.br", first.Find(".landing").Text())
	assert.Equal(t, 1, first.Find(".dropshipping").Length())

	second := cards.Eq(1)
	assert.Equal(t, view.NotApplicable, second.Find(".score").Text())
	assert.True(t, second.Find(".score").HasClass("score-medium"))
	assert.Zero(t, second.Find(".headline").Length())

	assert.Equal(t, "2", doc.Find(".total-found").Text())
	assert.Equal(t, "1", doc.Find(".dropshipping-count").Text())
	assert.Equal(t, "tenis", doc.Find("input[name=query]").AttrOr("value", ""))
	assert.Equal(t, "deep", doc.Find("select[name=depth] option[selected]").AttrOr("value", ""))
	assert.Zero(t, doc.Find("input[name=min_days]").Length())
}

func TestHTMLPanelsFollowState(t *testing.T) {
	v := view.New()
	v.SetError("depth inválido")

	rendered, err := (&HTMLFormatter{}).Format(v)
	require.NoError(t, err)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rendered))
	require.NoError(t, err)

	visible := doc.Find("section.panel, section.results").FilterFunction(func(_ int, s *goquery.Selection) bool {
		_, hidden := s.Attr("hidden")
		return !hidden
	})
	require.Equal(t, 1, visible.Length())
	assert.Equal(t, "error", visible.AttrOr("id", ""))
	assert.Equal(t, "depth inválido", doc.Find(".error-message").Text())
	assert.Equal(t, 1, doc.Find("#error form[action='/retry']").Length())
	assert.Zero(t, doc.Find("#detail").Length())
}

func TestHTMLDetailModal(t *testing.T) {
	v := resultsView(t)
	v.OpenDetail(view.NewDetail(adsearch.Ad{
		AdID:               "222",
		AdvertiserName:     "Outra",
		MediaType:          adsearch.MediaImage,
		AdLibraryResultURL: "javascript:alert(1)",
		StartDate:          strPtr("2024-02-10"),
	}, view.DefaultOptions()))

	rendered, err := NewPageFormatter(true).Format(v)
	require.NoError(t, err)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rendered))
	require.NoError(t, err)

	modal := doc.Find("#detail")
	require.Equal(t, 1, modal.Length())
	assert.Equal(t, "222", modal.AttrOr("data-ad-id", ""))
	assert.Equal(t, "10/02/2024", modal.Find(".start-date").Text())
	assert.Equal(t, "Not identified as dropshipping", modal.Find(".analysis").Text())
	assert.NotContains(t, modal.Find(".library-link").AttrOr("href", ""), "javascript:")
	assert.Zero(t, modal.Find(".landing-link").Length())
	assert.Equal(t, "Landing page: Not available", modal.Find(".landing-missing").Text())
	assert.Equal(t, 2, modal.Find("form[action='/ads/close']").Length())

	assert.Equal(t, 1, doc.Find("input[name=min_days]").Length())
}

func TestHTMLDepthSelect(t *testing.T) {
	page := NewPage(false)
	page.DefaultDepth = "standard"

	var buf strings.Builder
	require.NoError(t, page.Render(&buf, view.New()))
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, 3, doc.Find("select[name=depth] option").Length())
	assert.Equal(t, "standard", doc.Find("select[name=depth] option[selected]").AttrOr("value", ""))

	v := view.New()
	v.Input.Depth = "deep"
	buf.Reset()
	require.NoError(t, page.Render(&buf, v))
	doc, err = goquery.NewDocumentFromReader(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, 3, doc.Find("select[name=depth] option").Length())
	assert.Equal(t, "deep", doc.Find("select[name=depth] option[selected]").AttrOr("value", ""))
}
