package output

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/namelens/adlens/internal/view"
)

const tableTextWidth = 48

// TableFormatter renders the view-model for a terminal.
type TableFormatter struct {
	Color bool
}

// Format renders v as a status line followed by the active panel.
func (f *TableFormatter) Format(v *view.View) (string, error) {
	if v == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(f.statusLine(v.Status))
	sb.WriteString("\n")

	if v.Prompt != "" {
		sb.WriteString(f.paint(v.Prompt, text.FgYellow))
		sb.WriteString("\n")
	}
	if msg := stateMessage(v); msg != "" {
		color := text.FgYellow
		if v.State == view.StateError {
			color = text.FgRed
		}
		sb.WriteString(f.paint(msg, color))
		sb.WriteString("\n")
		return sb.String(), nil
	}

	if v.Summary != nil {
		sb.WriteString(fmt.Sprintf("Found: %d  Shown: %d  Dropshipping: %s\n",
			v.Summary.TotalFound, v.Summary.Filtered, v.Summary.Dropshipping))
	}
	if len(v.Cards) > 0 {
		sb.WriteString(f.cardsTable(v.Cards))
		sb.WriteString("\n")
	}
	if v.Detail != nil {
		sb.WriteString(f.detailTable(v.Detail))
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func (f *TableFormatter) cardsTable(cards []view.Card) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Advertiser", "Score", "Days", "Vars", "Media", "Landing", "Ad"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 8, WidthMax: tableTextWidth},
	})

	for _, card := range cards {
		ad := card.Headline
		if card.Snippet != "" {
			if ad != "" {
				ad += "\n"
			}
			ad += card.Snippet
		}
		landing := card.LandingLabel
		if card.Dropshipping {
			landing += "\n" + f.paint("dropshipping", text.FgMagenta)
		}

		t.AppendRow(table.Row{
			card.Index + 1,
			fmt.Sprintf("%s\n%d active ads", card.AdvertiserName, card.ActiveAds),
			f.paint(card.Score, tierColor(card.ScoreTier)),
			card.DaysActive,
			card.Variations,
			card.MediaLabel,
			landing,
			ad,
		})
	}
	return t.Render()
}

func (f *TableFormatter) detailTable(d *view.Detail) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetTitle(d.AdvertiserName)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: tableTextWidth + 24},
	})
	for _, row := range detailRows(d) {
		t.AppendRow(table.Row{row[0], row[1]})
	}
	if d.Text != "" {
		t.AppendRow(table.Row{"Text", d.Text})
	}
	return t.Render()
}

func (f *TableFormatter) statusLine(status view.StatusIndicator) string {
	marker := "●"
	switch status.Status {
	case view.StatusConnected:
		marker = f.paint(marker, text.FgGreen)
	case view.StatusDisconnected:
		marker = f.paint(marker, text.FgRed)
	default:
		marker = f.paint(marker, text.FgHiBlack)
	}
	return marker + " " + status.Text
}

func (f *TableFormatter) paint(value string, color text.Color) string {
	if !f.Color || value == "" {
		return value
	}
	return color.Sprint(value)
}

func tierColor(tier view.Tier) text.Color {
	switch tier {
	case view.TierHigh:
		return text.FgGreen
	case view.TierMedium:
		return text.FgYellow
	default:
		return text.FgRed
	}
}
