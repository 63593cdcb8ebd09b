package notifier

import (
	"fmt"
	"html"
	"strings"

	"SMARespect/internal/model"
)

// FormatReport formats a report into a Telegram HTML message. With
// onlyRespected, periods that were not respected are omitted per symbol.
func FormatReport(r *model.Report, onlyRespected bool) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>SMA Respect</b> | %s → %s | %s\n\n",
		r.Request.Start.Format("2006-01-02"),
		r.Request.End.AddDate(0, 0, -1).Format("2006-01-02"),
		r.Request.Interval))

	for _, s := range r.Symbols {
		b.WriteString(fmt.Sprintf("<b>%s</b>", html.EscapeString(s.Symbol)))
		if s.Err != nil {
			b.WriteString(fmt.Sprintf("\n  ⚠️ no data: %s\n", html.EscapeString(s.Err.Error())))
			continue
		}
		b.WriteString(fmt.Sprintf(" (%d candles)\n", s.Candles))

		lines := 0
		for _, res := range s.Results {
			if onlyRespected && !res.Respected {
				continue
			}
			if res.Respected {
				b.WriteString(fmt.Sprintf("  ✅ SMA%d: %d touches\n", res.Period, res.TouchCount))
			} else {
				b.WriteString(fmt.Sprintf("  ❌ SMA%d\n", res.Period))
			}
			lines++
		}
		if lines == 0 {
			b.WriteString("  No SMA respected continuously\n")
		}
	}

	if failed := r.Failed(); failed > 0 {
		b.WriteString(fmt.Sprintf("\n%d/%d symbols without data\n", failed, len(r.Symbols)))
	}
	return b.String()
}

// FormatWatchlist lists the watched symbols.
func FormatWatchlist(symbols []string) string {
	if len(symbols) == 0 {
		return "📋 Watchlist is empty"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📋 <b>Watchlist</b> (%d)\n", len(symbols)))
	for _, s := range symbols {
		b.WriteString("• " + html.EscapeString(s) + "\n")
	}
	return b.String()
}
