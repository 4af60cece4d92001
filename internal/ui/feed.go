package ui

import (
	"strings"
	"time"

	"github.com/Mohsinsiddi/coffee/internal/chain"
	"github.com/Mohsinsiddi/coffee/internal/contract"
)

// FeedColumns is the layout of the contribution table.
var FeedColumns = []Column{
	{Title: "SUPPORTER", Width: 13},
	{Title: "AMOUNT", Width: 16},
	{Title: "WHEN", Width: 16},
	{Title: "MESSAGE", Width: 40},
}

// FeedTable renders contributions in the order given. Callers pass the
// newest-first slice.
func FeedTable(contributions []contract.Contribution, currency string) *Table {
	t := NewTable(FeedColumns)
	for _, c := range contributions {
		t.AddRow(FeedRow(c, currency))
	}
	return t
}

// FeedRow formats one contribution as table cells.
func FeedRow(c contract.Contribution, currency string) Row {
	return Row{
		TruncateAddr(c.Supporter.Hex()),
		chain.FormatEther(c.Amount) + " " + currency,
		FormatTime(c.Time()),
		oneLine(c.Message),
	}
}

// FormatTime renders a contribution timestamp in local time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// RenderFeed is the plain-terminal feed used outside the widget.
func RenderFeed(contributions []contract.Contribution, currency string) string {
	if len(contributions) == 0 {
		return Meta("  No coffees yet. Be the first!") + "\n"
	}
	return FeedTable(contributions, currency).Render()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
