package tui

import (
	"fmt"
	"math"
	"strings"

	"cryptodash/internal/dashboard"
	"cryptodash/internal/domain"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

var (
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2563eb"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f9fafb")).Background(lipgloss.Color("#2563eb")).Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true).MarginTop(1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444"))
	upStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#10b981"))
	downStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#e5e7eb")).Padding(0, 1)

	sliceColors = []string{"#2563eb", "#10b981", "#f59e0b", "#ef4444", "#8b5cf6"}
	sparkRunes  = []rune("▁▂▃▄▅▆▇█")
)

var tableColumns = []table.Column{
	{Title: "#", Width: 4},
	{Title: "Nombre", Width: 18},
	{Title: "Precio", Width: 14},
	{Title: "24h %", Width: 8},
	{Title: "Market Cap", Width: 12},
	{Title: "Volumen 24h", Width: 12},
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).Bold(true)
	s.Selected = s.Selected.Foreground(lipgloss.Color("#f9fafb")).Background(lipgloss.Color("#2563eb"))
	return s
}

func tableRows(assets []domain.EnrichedAsset) []table.Row {
	rows := make([]table.Row, len(assets))
	for i, a := range assets {
		rows[i] = table.Row{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%s (%s)", a.Name, strings.ToUpper(a.Symbol)),
			formatPrice(a.CurrentPrice),
			fmt.Sprintf("%+.2f%%", a.PriceChangePercentage24h),
			formatCompact(a.MarketCap),
			formatCompact(a.TotalVolume),
		}
	}
	return rows
}

func (m *AppModel) View() string {
	var b strings.Builder

	title := titleStyle.Render("Dashboard de Criptomonedas")
	if m.username != "" {
		title += mutedStyle.Render("  " + m.username)
	}
	b.WriteString(title + "\n")
	b.WriteString(m.filterView() + "\n")

	b.WriteString(headerStyle.Render("Precio Histórico: "+titleCase(m.state.Filter.Coin)) + "\n")
	b.WriteString(m.historyView() + "\n")

	b.WriteString(m.marketView())

	b.WriteString("\n" + mutedStyle.Render("n/p moneda · d rango · r recargar · ↑/↓ tabla · q salir"))
	return b.String()
}

func (m *AppModel) filterView() string {
	f := m.state.Filter
	return fmt.Sprintf("Moneda: %s   Rango: %s",
		accentStyle.Render(f.Coin), accentStyle.Render(daysLabel(f.Days)))
}

func (m *AppModel) historyView() string {
	h := m.state.History
	switch {
	case h.Phase == dashboard.PhaseIdle || h.Loading():
		return m.spinner.View() + " " + mutedStyle.Render("Cargando histórico...")
	case h.Phase == dashboard.PhaseError:
		return errorStyle.Render("Error: " + h.Err)
	case len(h.Data.Points) == 0:
		return mutedStyle.Render("No hay datos históricos disponibles")
	}

	points := h.Data.Points
	lo, hi := minMax(h.Data.Line)
	first, last := points[0], points[len(points)-1]
	return panelStyle.Render(fmt.Sprintf("%s\n%s %s  →  %s %s   min %s  max %s",
		accentStyle.Render(sparkline(h.Data.Line)),
		first.Time, formatPrice(first.Price),
		last.Time, formatPrice(last.Price),
		formatPrice(lo), formatPrice(hi),
	))
}

func (m *AppModel) marketView() string {
	mk := m.state.Market
	switch {
	case mk.Phase == dashboard.PhaseIdle || (mk.Loading() && len(mk.Data.Assets) == 0):
		return m.spinner.View() + " " + mutedStyle.Render("Cargando datos...") + "\n"
	case mk.Phase == dashboard.PhaseError:
		return errorStyle.Render("Error al cargar datos") + "\n" + errorStyle.Render(mk.Err) + "\n" + mutedStyle.Render("[r] Reintentar") + "\n"
	case len(mk.Data.Assets) == 0:
		return mutedStyle.Render("No hay datos disponibles") + "\n"
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("Distribución Market Cap") + "\n")
	for i, s := range mk.Data.Slices {
		bar := strings.Repeat("█", int(math.Round(s.Share*30)))
		color := lipgloss.NewStyle().Foreground(lipgloss.Color(sliceColors[i%len(sliceColors)]))
		b.WriteString(fmt.Sprintf("%-18s %s %s\n", truncate(s.Name, 18), color.Render(bar), mutedStyle.Render(fmt.Sprintf("%.1f%%", s.Share*100))))
	}

	b.WriteString(headerStyle.Render("Volumen 24h (Top 5)") + "\n")
	for _, r := range mk.Data.Bars {
		trend := upStyle.Render("▲")
		if r.Volume < r.RollingVolume {
			trend = downStyle.Render("▼")
		}
		b.WriteString(fmt.Sprintf("%-18s Volumen %-10s Media Móvil %-10s %s\n",
			truncate(r.Name, 18), formatCompact(r.Volume), formatCompact(r.RollingVolume), trend))
	}

	b.WriteString(headerStyle.Render("Top Criptomonedas") + "\n")
	b.WriteString(m.table.View() + "\n")
	return b.String()
}

func sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := minMax(values)
	out := make([]rune, len(values))
	for i, v := range values {
		idx := 0
		if hi > lo {
			idx = int(math.Round((v - lo) / (hi - lo) * float64(len(sparkRunes)-1)))
		}
		out[i] = sparkRunes[idx]
	}
	return string(out)
}

func minMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func daysLabel(days string) string {
	switch days {
	case "1":
		return "Últimas 24 horas"
	case "365":
		return "Último año"
	default:
		return "Últimos " + days + " días"
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// formatPrice keeps more decimals for sub-dollar prices.
func formatPrice(v float64) string {
	if math.Abs(v) < 1 {
		return fmt.Sprintf("$%.6f", v)
	}
	return "$" + groupThousands(fmt.Sprintf("%.2f", v))
}

func formatCompact(v float64) string {
	switch abs := math.Abs(v); {
	case abs >= 1e12:
		return fmt.Sprintf("$%.2fT", v/1e12)
	case abs >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	default:
		return "$" + groupThousands(fmt.Sprintf("%.0f", v))
	}
}

func groupThousands(s string) string {
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	sign := ""
	if strings.HasPrefix(intPart, "-") {
		sign, intPart = "-", intPart[1:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + frac
}
