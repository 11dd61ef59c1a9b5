package output

import (
	"fmt"
	"strings"

	"github.com/namelens/adlens/internal/view"
)

// MarkdownFormatter renders the view-model as a Markdown report.
type MarkdownFormatter struct{}

// Format renders v as Markdown.
func (f *MarkdownFormatter) Format(v *view.View) (string, error) {
	if v == nil {
		return "", nil
	}

	var sb strings.Builder
	title := "Ad search"
	if v.Input.Query != "" {
		title = fmt.Sprintf("Ads for %q", v.Input.Query)
	}
	sb.WriteString(fmt.Sprintf("## %s\n\n", escapeMarkdownCell(title)))
	sb.WriteString(fmt.Sprintf("_Backend: %s_\n\n", escapeMarkdownCell(v.Status.Text)))

	if v.Prompt != "" {
		sb.WriteString(fmt.Sprintf("> %s\n\n", v.Prompt))
	}
	if msg := stateMessage(v); msg != "" {
		sb.WriteString(fmt.Sprintf("> %s\n", escapeMarkdownCell(msg)))
		return sb.String(), nil
	}

	if v.Summary != nil {
		sb.WriteString(fmt.Sprintf("**Found**: %d | **Shown**: %d | **Dropshipping**: %s\n\n",
			v.Summary.TotalFound, v.Summary.Filtered, v.Summary.Dropshipping))
	}

	if len(v.Cards) > 0 {
		sb.WriteString("| # | Advertiser | Score | Days | Variations | Media | Landing | Headline | Notes |\n")
		sb.WriteString("|---|------------|-------|------|------------|-------|---------|----------|-------|\n")
		for _, card := range v.Cards {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s (%s) | %d | %d | %s | %s | %s | %s |\n",
				card.Index+1,
				escapeMarkdownCell(card.AdvertiserName),
				card.Score, card.ScoreTier,
				card.DaysActive,
				card.Variations,
				card.MediaLabel,
				escapeMarkdownCell(card.LandingLabel),
				escapeMarkdownCell(card.Headline),
				dropshippingLabel(card.Dropshipping),
			))
		}
	}

	if v.Detail != nil {
		writeMarkdownDetail(&sb, v.Detail)
	}
	return sb.String(), nil
}

func writeMarkdownDetail(sb *strings.Builder, d *view.Detail) {
	sb.WriteString(fmt.Sprintf("\n### %s\n\n", escapeMarkdownCell(d.AdvertiserName)))
	for _, row := range detailRows(d) {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", row[0], escapeMarkdownCell(row[1])))
	}
	if d.Text != "" {
		sb.WriteString("\n")
		for _, line := range strings.Split(d.Text, "\n") {
			sb.WriteString("> " + line + "\n")
		}
	}
}

// detailRows lists the detail fields in display order.
func detailRows(d *view.Detail) [][2]string {
	rows := [][2]string{
		{"Ad ID", d.AdID},
		{"Score", d.Score},
		{"Days active", fmt.Sprintf("%d", d.DaysActive)},
		{"Start date", d.StartDate},
		{"Variations", fmt.Sprintf("%d", d.Variations)},
		{"Advertiser ads", fmt.Sprintf("%d", d.ActiveAds)},
		{"Media", d.MediaType},
	}
	if d.Headline != "" {
		rows = append(rows, [2]string{"Headline", d.Headline})
	}
	if d.LandingURL != "" {
		rows = append(rows, [2]string{"Landing page", d.LandingURL})
	}
	rows = append(rows,
		[2]string{"Ad Library", d.AdLibraryURL},
		[2]string{"Analysis", d.Analysis},
	)
	return rows
}

func escapeMarkdownCell(value string) string {
	value = strings.ReplaceAll(value, "|", "\\|")
	return strings.ReplaceAll(value, "\n", " ")
}
