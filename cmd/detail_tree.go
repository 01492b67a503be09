package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"carcat/internal/catalog"
	"carcat/internal/utils"
)

// detailSection groups related car fields under a collapsible header
type detailSection struct {
	name   string
	fields func(r *catalog.Record) [][2]string
}

var detailSections = []detailSection{
	{"Overview", func(r *catalog.Record) [][2]string {
		return [][2]string{
			{"Make", r.Make},
			{"Model", r.Model},
			{"Year", fmt.Sprint(r.Year)},
			{"Price", utils.FormatPrice(r.Price)},
			{"Available", yesNo(r.IsAvailable)},
		}
	}},
	{"Powertrain", func(r *catalog.Record) [][2]string {
		return [][2]string{
			{"Fuel", string(r.FuelType)},
			{"Transmission", string(r.Transmission)},
			{"Cylinders", fmt.Sprint(r.Cylinders)},
			{"Displacement", fmt.Sprintf("%.1f L", r.Displacement)},
		}
	}},
	{"Fuel economy", func(r *catalog.Record) [][2]string {
		return [][2]string{
			{"City", fmt.Sprintf("%d mpg", r.CityMPG)},
			{"Highway", fmt.Sprintf("%d mpg", r.HighwayMPG)},
			{"Combined", fmt.Sprintf("%d mpg", r.CombinationMPG)},
		}
	}},
	{"Listing", func(r *catalog.Record) [][2]string {
		return [][2]string{
			{"Description", r.Description},
			{"Image", r.ImageURL},
		}
	}},
	{"Source", func(r *catalog.Record) [][2]string {
		return [][2]string{
			{"ID", fmt.Sprint(r.ID)},
			{"Natural key", r.NaturalKey},
			{"Created", utils.FormatTime(r.CreatedAt)},
			{"Updated", utils.FormatTime(r.UpdatedAt)},
		}
	}},
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// buildDetailTree constructs the flattened detail tree for display
func (m *browserModel) buildDetailTree() {
	if m.selected == nil {
		return
	}

	m.detailNodes = []detailNode{}
	for _, section := range detailSections {
		fields := section.fields(m.selected)
		m.detailNodes = append(m.detailNodes, detailNode{
			Label:       section.name,
			Path:        section.name,
			HasChildren: len(fields) > 0,
		})

		if !m.expandedNodes[section.name] {
			continue
		}
		for _, f := range fields {
			m.detailNodes = append(m.detailNodes, detailNode{
				Label: f[0],
				Value: f[1],
				Path:  section.name + "." + f[0],
				Level: 1,
			})
		}
	}

	// Reset selection if it's out of bounds
	if m.selectedNode >= len(m.detailNodes) {
		m.selectedNode = 0
	}
}

// expandAll opens every section, used when a car is first shown
func (m *browserModel) expandAll() {
	for _, section := range detailSections {
		m.expandedNodes[section.name] = true
	}
}

// renderDetailTree renders the detail tree with proper styling
func (m *browserModel) renderDetailTree() string {
	var content strings.Builder

	nodes := m.detailNodes
	if m.ui.Search.FilteredNodes != nil {
		nodes = m.ui.Search.FilteredNodes
	}

	for i, node := range nodes {
		style := lipgloss.NewStyle().Padding(0, 1)
		if i == m.selectedNode {
			style = style.Background(selectedBg).Foreground(selectedFg)
		}

		indent := strings.Repeat("  ", node.Level)

		expandIcon := "  "
		if node.HasChildren {
			if m.expandedNodes[node.Path] {
				expandIcon = "▼ "
			} else {
				expandIcon = "▶ "
			}
		}

		var line string
		if node.Level == 0 {
			label := lipgloss.NewStyle().Bold(true).Foreground(accentCyan).Render(node.Label)
			line = fmt.Sprintf("%s├─%s%s", indent, expandIcon, label)
		} else {
			label := lipgloss.NewStyle().Foreground(lightGray).Render(fmt.Sprintf("%-13s", node.Label))
			value := lipgloss.NewStyle().Foreground(accentPurple).Render(node.Value)
			line = fmt.Sprintf("%s├─%s%s %s", indent, expandIcon, label, value)
		}

		content.WriteString(style.Render(line))
		content.WriteString("\n")
	}

	return content.String()
}
