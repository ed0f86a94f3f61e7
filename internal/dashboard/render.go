package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Terminal renderer. Thin by contract: all decisions live in Reduce, this
// file only maps UIState fields to styled text.

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	bannerWarningStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("11")).
				Padding(0, 1)
	bannerDangerStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("9")).
				Padding(0, 1)

	percentStyles = map[PercentSeverity]lipgloss.Style{
		PercentNormal:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		PercentWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		PercentDanger:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}

	indicatorStyles = map[IndicatorState]lipgloss.Style{
		IndicatorGrey:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		IndicatorGreen:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		IndicatorYellow: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		IndicatorRed:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}

	badgeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("9")).
			Padding(0, 1)

	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// Render returns the full dashboard frame for one UI state.
func Render(st UIState) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("CRANE TELEMETRY"))
	b.WriteString("\n\n")

	if st.SafetyBanner.Visible {
		style := bannerWarningStyle
		if st.SafetyBanner.Severity == BannerDanger {
			style = bannerDangerStyle
		}
		b.WriteString(style.Render(st.SafetyBanner.Message))
		b.WriteString("\n\n")
	}

	loadLine := fmt.Sprintf("%s %s / %s",
		labelStyle.Render("Load:"),
		valueStyle.Render(st.LoadText),
		valueStyle.Render(st.SWLText))
	if st.PercentKnown {
		pct := fmt.Sprintf("%.1f%%", st.LoadPercent)
		if style, ok := percentStyles[st.PercentSeverity]; ok {
			pct = style.Render(pct)
		}
		loadLine += "  " + pct
	}
	b.WriteString(loadLine)
	if st.Badges.Overload {
		b.WriteString("  " + badgeStyle.Render("OVERLOAD"))
	}
	if st.Badges.Bypass {
		b.WriteString("  " + badgeStyle.Render("BYPASS"))
	}
	b.WriteString("\n")

	b.WriteString(labelStyle.Render("Limit switches:") + " ")
	for i, ind := range st.TestIndicators {
		style := indicatorStyles[ind]
		b.WriteString(style.Render(fmt.Sprintf("●LS%d", i+1)))
		b.WriteString(" ")
	}
	b.WriteString(labelStyle.Render("test") + " " + valueStyle.Render(st.TestTimerText))
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("%s %s  %s %s  %s %s\n",
		labelStyle.Render("Hoist:"), flagText(st.OperationFlags.Hoist),
		labelStyle.Render("Trolley:"), flagText(st.OperationFlags.Trolley),
		labelStyle.Render("Slew:"), flagText(st.OperationFlags.Slew)))

	b.WriteString(labelStyle.Render("Utilization:") + " " + valueStyle.Render(st.UtilizationText))
	b.WriteString("  " + labelStyle.Render("Status:") + " " + valueStyle.Render(st.StatusWordHex))
	b.WriteString("\n")

	if len(st.CounterNames) > 0 {
		parts := make([]string, 0, len(st.CounterNames))
		for _, name := range st.CounterNames {
			parts = append(parts, fmt.Sprintf("%s=%d", name, st.Counters[name]))
		}
		b.WriteString(labelStyle.Render("Counters:") + " " + valueStyle.Render(strings.Join(parts, " ")))
		b.WriteString("\n")
	}

	return frameStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// RenderDisconnected is the frame shown while the feed is down.
func RenderDisconnected() string {
	msg := bannerWarningStyle.Render("DISCONNECTED — reconnecting…")
	return frameStyle.Render(titleStyle.Render("CRANE TELEMETRY") + "\n\n" + msg)
}

func flagText(on bool) string {
	if on {
		return percentStyles[PercentNormal].Render("ON")
	}
	return labelStyle.Render("off")
}
