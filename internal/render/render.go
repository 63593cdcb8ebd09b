// Package render turns a report into terminal output.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"SMARespect/internal/model"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	yesStyle    = cellStyle.Foreground(lipgloss.Color("2"))
	noStyle     = cellStyle.Foreground(lipgloss.Color("1"))
	errStyle    = cellStyle.Foreground(lipgloss.Color("3"))
	titleStyle  = lipgloss.NewStyle().Bold(true)
)

const dateLayout = "2006-01-02"

const (
	colSymbol = iota
	colPeriod
	colRespected
	colTouches
)

// Table renders one row per symbol and period. With onlyRespected, periods
// that were not respected are left out; a symbol with none left gets a
// single placeholder row.
func Table(r *model.Report, onlyRespected bool) string {
	var rows [][]string
	for _, s := range r.Symbols {
		if s.Err != nil {
			rows = append(rows, []string{s.Symbol, "-", "error", s.Err.Error()})
			continue
		}
		n := 0
		for _, res := range s.Results {
			if onlyRespected && !res.Respected {
				continue
			}
			rows = append(rows, []string{
				s.Symbol,
				strconv.Itoa(res.Period),
				yesNo(res.Respected),
				strconv.Itoa(res.TouchCount),
			})
			n++
		}
		if n == 0 {
			rows = append(rows, []string{s.Symbol, "-", "none", "-"})
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("SYMBOL", "SMA", "RESPECTED", "TOUCHES").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col != colRespected || row < 0 || row >= len(rows) {
				return cellStyle
			}
			switch rows[row][colRespected] {
			case "yes":
				return yesStyle
			case "error":
				return errStyle
			default:
				return noStyle
			}
		})

	return titleStyle.Render(title(r)) + "\n" + t.String() + "\n"
}

// Text renders the plain summary: respected periods per symbol.
func Text(r *model.Report) string {
	var b strings.Builder
	b.WriteString(title(r))
	b.WriteString("\n\n")
	for _, s := range r.Symbols {
		fmt.Fprintf(&b, "Stock: %s\n", s.Symbol)
		switch respected := s.Respected(); {
		case s.Err != nil:
			fmt.Fprintf(&b, "  No data: %v\n", s.Err)
		case len(respected) == 0:
			b.WriteString("  No SMA respected continuously\n")
		default:
			fmt.Fprintf(&b, "  Respected SMAs: %s\n", joinPeriods(s.Results))
		}
	}
	return b.String()
}

func title(r *model.Report) string {
	return fmt.Sprintf("SMA respect %s → %s (%s)",
		r.Request.Start.Format(dateLayout),
		r.Request.End.AddDate(0, 0, -1).Format(dateLayout),
		r.Request.Interval)
}

// joinPeriods lists respected periods with their touch counts.
func joinPeriods(results []model.EvaluationResult) string {
	parts := make([]string, 0, len(results))
	for _, res := range results {
		if res.Respected {
			parts = append(parts, fmt.Sprintf("%d (%d touches)", res.Period, res.TouchCount))
		}
	}
	return strings.Join(parts, ", ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
