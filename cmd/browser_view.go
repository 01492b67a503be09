package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"carcat/internal/utils"
)

// Color palette for consistent theming
var (
	// Primary colors
	primaryBlue   = lipgloss.Color("39")  // Headers
	primaryGreen  = lipgloss.Color("82")  // Available indicators
	primaryYellow = lipgloss.Color("220") // Status messages
	primaryRed    = lipgloss.Color("196") // Errors

	// Secondary colors
	secondaryGray = lipgloss.Color("244") // Metadata text
	lightGray     = lipgloss.Color("248") // Field labels
	darkGray      = lipgloss.Color("240") // Borders
	footerGray    = lipgloss.Color("241") // Footer text

	// Accent colors
	accentCyan   = lipgloss.Color("86")  // Section headers
	accentPurple = lipgloss.Color("135") // Field values

	// Selection
	selectedBg = lipgloss.Color("62")
	selectedFg = lipgloss.Color("230")
)

func (m *browserModel) renderLoading() string {
	loadingStyle := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(primaryBlue).
		Bold(true)

	return loadingStyle.Render("🔄 Loading catalog...")
}

func (m *browserModel) renderCarList() string {
	var content strings.Builder

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(primaryBlue).
		Padding(0, 1)

	header := fmt.Sprintf("🚗 Catalog • %d cars", len(m.cars))
	if m.ui.Search.FilteredCars != nil {
		header = fmt.Sprintf("🚗 Catalog • %d of %d cars", len(m.ui.Search.FilteredCars), len(m.cars))
	}
	content.WriteString(headerStyle.Render(header))
	content.WriteString("\n\n")

	if len(m.visibleCars()) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(secondaryGray).Padding(0, 1)
		if len(m.cars) == 0 {
			content.WriteString(emptyStyle.Render("No cars in the catalog. Try 'carcat import sample cars.csv'."))
		} else {
			content.WriteString(emptyStyle.Render("No cars match the search"))
		}
	} else {
		content.WriteString(m.tableModel.View())
	}

	content.WriteString("\n")
	content.WriteString(m.renderFooter("[↑↓/jk] Navigate • [Enter] Open • [/] Search • [yy] Copy key • [r] Reload • [?] Help • [q] Quit"))

	return content.String()
}

func (m *browserModel) renderCarDetail() string {
	if m.selected == nil {
		return "No car selected"
	}

	var content strings.Builder

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(primaryBlue).
		Padding(0, 1)

	content.WriteString(headerStyle.Render(fmt.Sprintf("🚗 %d %s", m.selected.Year, m.selected.Title())))
	content.WriteString("\n")

	metaStyle := lipgloss.NewStyle().
		Foreground(secondaryGray).
		Padding(0, 1)

	availability := lipgloss.NewStyle().Foreground(primaryRed).Render("sold")
	if m.selected.IsAvailable {
		availability = lipgloss.NewStyle().Foreground(primaryGreen).Render("available")
	}
	meta := fmt.Sprintf("💲 %s • ⛽ %s • %s",
		utils.FormatPrice(m.selected.Price), m.selected.FuelType, availability)
	content.WriteString(metaStyle.Render(meta))
	content.WriteString("\n\n")

	content.WriteString(m.renderDetailTree())

	content.WriteString("\n")
	content.WriteString(m.renderFooter("[↑↓/jk] Navigate • [Space/→] Expand • [←] Collapse • [/] Search • [yy] Copy value • [b] Back • [q] Quit"))

	return content.String()
}

// renderFooter shows the search prompt, a live status message or the key hints
func (m *browserModel) renderFooter(hints string) string {
	footerStyle := lipgloss.NewStyle().
		Foreground(footerGray).
		Padding(1, 1)

	switch {
	case m.ui.IsSearchMode():
		prompt := lipgloss.NewStyle().Foreground(primaryYellow).Bold(true).Render("/")
		count := lipgloss.NewStyle().Foreground(secondaryGray).
			Render(fmt.Sprintf("  (%d matches • Enter to keep • Esc to clear)", m.ui.Search.ResultCount()))
		return footerStyle.Render(prompt + m.ui.Search.Query + "█" + count)

	case m.statusMessage != "" && time.Now().Before(m.statusTimeout):
		return footerStyle.Foreground(primaryYellow).Render(m.statusMessage)

	case !m.ui.Search.IsEmpty():
		filter := lipgloss.NewStyle().Foreground(primaryYellow).Render(fmt.Sprintf("filter: %q", m.ui.Search.Query))
		return footerStyle.Render(filter + " • [Esc] Clear • " + hints)

	default:
		return footerStyle.Render("⌨️  " + hints)
	}
}

func (m *browserModel) renderError() string {
	errorStyle := lipgloss.NewStyle().
		Foreground(primaryRed).
		Bold(true).
		Padding(2, 4).
		Margin(2, 4).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(primaryRed)

	quitKey := lipgloss.NewStyle().Foreground(primaryYellow).Bold(true).Render("[q]")
	return errorStyle.Render(fmt.Sprintf("❌ Error: %s\n\nPress %s to quit", m.err.Error(), quitKey))
}

func (m *browserModel) renderHelp() string {
	var helpContent strings.Builder

	helpStyle := lipgloss.NewStyle().
		Padding(2, 4).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(primaryBlue)

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(primaryBlue)

	helpContent.WriteString(titleStyle.Render("🆘 carcat browse"))
	helpContent.WriteString("\n\n")

	if m.previousState == stateCarDetail {
		helpContent.WriteString(renderShortcuts("Car Detail:", primaryGreen, [][]string{
			{"jk, ↑↓", "Navigate fields"},
			{"gg / G", "Jump to top / bottom"},
			{"Space, →", "Expand section"},
			{"←, h", "Collapse section"},
			{"/", "Search fields"},
			{"yy", "Copy field value"},
			{"b", "Back to car list"},
		}))
	} else {
		helpContent.WriteString(renderShortcuts("Car List:", primaryGreen, [][]string{
			{"jk, ↑↓", "Navigate cars"},
			{"gg / G", "Jump to top / bottom"},
			{"Enter", "Open selected car"},
			{"/", "Search make, model or key"},
			{"yy", "Copy natural key"},
			{"r", "Reload from catalog"},
		}))
	}

	helpContent.WriteString("\n")
	helpContent.WriteString(renderShortcuts("Universal Commands:", accentCyan, [][]string{
		{"?", "Toggle this help"},
		{"q, Ctrl+C", "Quit application"},
		{"Esc", "Close help or clear search"},
	}))

	helpContent.WriteString("\n")
	helpContent.WriteString(lipgloss.NewStyle().Foreground(secondaryGray).Italic(true).Render("Press ? or Esc to close help"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		helpStyle.Render(helpContent.String()))
}

func renderShortcuts(title string, color lipgloss.Color, shortcuts [][]string) string {
	var content strings.Builder

	content.WriteString(lipgloss.NewStyle().Bold(true).Foreground(color).Render(title))
	content.WriteString("\n")

	keyStyle := lipgloss.NewStyle().Foreground(primaryYellow).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lightGray)
	for _, shortcut := range shortcuts {
		content.WriteString(fmt.Sprintf("  %s  %s\n",
			keyStyle.Render(fmt.Sprintf("%-10s", shortcut[0])),
			descStyle.Render(shortcut[1])))
	}

	return content.String()
}
