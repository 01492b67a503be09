package cmd

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"carcat/internal/catalog"
)

const statusDuration = 3 * time.Second

// KeyHandler interface for handling specific key combinations
type KeyHandler interface {
	HandleKey(m *browserModel, msg tea.KeyMsg) (tea.Model, tea.Cmd)
}

// KeyDispatcher handles key routing based on current state and mode
type KeyDispatcher struct {
	handlers map[string]KeyHandler
}

// NewKeyDispatcher creates a new key dispatcher with all handlers
func NewKeyDispatcher() *KeyDispatcher {
	return &KeyDispatcher{
		handlers: map[string]KeyHandler{
			"q":         &quitHandler{},
			"ctrl+c":    &quitHandler{},
			"?":         &helpHandler{},
			"/":         &searchHandler{},
			"esc":       &escapeHandler{},
			"g":         &navigationHandler{key: "g"},
			"G":         &navigationHandler{key: "G"},
			"y":         &yankHandler{},
			"r":         &reloadHandler{},
			"up":        &navigationHandler{key: "up"},
			"k":         &navigationHandler{key: "up"},
			"down":      &navigationHandler{key: "down"},
			"j":         &navigationHandler{key: "down"},
			"enter":     &enterHandler{},
			" ":         &expandHandler{},
			"right":     &expandHandler{},
			"l":         &expandHandler{},
			"left":      &collapseHandler{},
			"h":         &collapseHandler{},
			"b":         &backHandler{},
			"backspace": &backHandler{},
		},
	}
}

// Dispatch handles a key press by routing to the appropriate handler
func (kd *KeyDispatcher) Dispatch(m *browserModel, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.ui.IsSearchMode() {
		return m.handleSearchInput(msg)
	}

	// Help mode only reacts to its own keys; anything else hides it
	if m.state == stateHelp {
		switch key {
		case "q", "ctrl+c", "?", "esc":
		default:
			m.state = m.previousState
			m.lastKey = ""
			return m, nil
		}
	}

	if handler, exists := kd.handlers[key]; exists {
		return handler.HandleKey(m, msg)
	}

	m.lastKey = ""
	return m, nil
}

type quitHandler struct{}

func (h *quitHandler) HandleKey(m *browserModel, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.lastKey = ""
	return m, tea.Quit
}

// helpHandler toggles help display
type helpHandler struct{}

func (h *helpHandler) HandleKey(m *browserModel, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state == stateHelp {
		m.state = m.previousState
	} else if m.state == stateCarList || m.state == stateCarDetail {
		m.previousState = m.state
		m.state = stateHelp
	}
	m.lastKey = ""
	return m, nil
}

// searchHandler initiates search mode
type searchHandler struct{}

func (h *searchHandler) HandleKey(m *browserModel, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.lastKey = ""
	switch m.state {
	case stateCarList:
		m.ui.EnterSearchMode(SearchCars)
	case stateCarDetail:
		m.ui.EnterSearchMode(SearchDetail)
	}
	return m, nil
}

// escapeHandler closes help or drops a confirmed search filter
type escapeHandler struct{}

func (h *escapeHandler) HandleKey(m *browserModel, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.lastKey = ""
	if m.state == stateHelp {
		m.state = m.previousState
		return m, nil
	}
	if m.ui.Search.Active {
		m.clearSearchState()
	}
	return m, nil
}

// navigationHandler handles navigation keys including vim-style sequences
type navigationHandler struct {
	key string
}

func (h *navigationHandler) HandleKey(m *browserModel, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch h.key {
	case "g":
		if m.lastKey == "g" { // gg sequence - jump to top
			m.handleNavigation("top")
			m.lastKey = ""
			return m, nil
		}
		m.lastKey = "g"
		return m, nil
	case "G":
		m.handleNavigation("bottom")
	case "up":
		m.handleNavigation("up")
	case "down":
		m.handleNavigation("down")
	}

	m.lastKey = ""
	return m, nil
}

// yankHandler handles copy operations (yy sequence)
type yankHandler struct{}

func (h *yankHandler) HandleKey(m *browserModel, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.lastKey == "y" {
		m.copyCurrent()
		m.lastKey = ""
		return m, nil
	}
	m.lastKey = "y"
	return m, nil
}

// reloadHandler re-reads the catalog
type reloadHandler struct{}

func (h *reloadHandler) HandleKey(m *browserModel, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.lastKey = ""
	if m.state != stateCarList {
		return m, nil
	}
	m.clearSearchState()
	m.loading = true
	m.state = stateLoading
	return m, loadCars(m.reader, m.filter)
}

// enterHandler opens the selected car
type enterHandler struct{}

func (h *enterHandler) HandleKey(m *browserModel, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.lastKey = ""
	if m.state != stateCarList {
		return m, nil
	}

	car, ok := m.currentCar()
	if !ok {
		return m, nil
	}

	m.clearSearchState()
	m.loading = true
	m.state = stateLoading
	return m, loadCar(m.reader, car.ID)
}

// expandHandler toggles the selected detail section (space, right, l)
type expandHandler struct{}

func (h *expandHandler) HandleKey(m *browserModel, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.lastKey = ""
	if m.state == stateCarDetail && m.ui.Search.FilteredNodes == nil && m.selectedNode < len(m.detailNodes) {
		node := m.detailNodes[m.selectedNode]
		if node.HasChildren {
			m.expandedNodes[node.Path] = !m.expandedNodes[node.Path]
			m.buildDetailTree()
		}
	}
	return m, nil
}

// collapseHandler collapses the selected section or jumps to its header
type collapseHandler struct{}

func (h *collapseHandler) HandleKey(m *browserModel, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.lastKey = ""
	if m.state != stateCarDetail || m.ui.Search.FilteredNodes != nil || m.selectedNode >= len(m.detailNodes) {
		return m, nil
	}

	node := m.detailNodes[m.selectedNode]
	if node.HasChildren && m.expandedNodes[node.Path] {
		m.expandedNodes[node.Path] = false
		m.buildDetailTree()
		return m, nil
	}

	if node.Level > 0 {
		for i := m.selectedNode - 1; i >= 0; i-- {
			if m.detailNodes[i].Level < node.Level {
				m.selectedNode = i
				break
			}
		}
	}
	return m, nil
}

// backHandler returns from the detail view to the car list
type backHandler struct{}

func (h *backHandler) HandleKey(m *browserModel, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.lastKey = ""
	if m.state == stateCarDetail {
		m.clearSearchState()
		m.state = stateCarList
		m.selected = nil
		m.detailNodes = nil
		m.selectedNode = 0
		m.updateTableRows()
	}
	return m, nil
}

// handleSearchInput edits the query while search mode is active
func (m *browserModel) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.clearSearchState()
		return m, nil
	case tea.KeyEnter:
		m.ui.ExitToNormalMode()
		return m, nil
	case tea.KeyBackspace:
		if q := m.ui.Search.Query; q != "" {
			runes := []rune(q)
			m.ui.Search.Query = string(runes[:len(runes)-1])
		}
	case tea.KeyUp:
		m.handleNavigation("up")
		return m, nil
	case tea.KeyDown:
		m.handleNavigation("down")
		return m, nil
	case tea.KeySpace:
		m.ui.Search.Query += " "
	case tea.KeyRunes:
		m.ui.Search.Query += string(msg.Runes)
	default:
		return m, nil
	}

	m.applySearch()
	return m, nil
}

// applySearch recomputes filtered results for the current query
func (m *browserModel) applySearch() {
	search := &m.ui.Search
	search.SelectedIndex = 0

	if search.Query == "" {
		search.FilteredCars = nil
		search.FilteredNodes = nil
		m.updateTableRows()
		return
	}

	switch search.Context {
	case SearchCars:
		search.FilteredCars = []catalog.Record{}
		for _, car := range m.cars {
			if matchesCar(car, search.Query) {
				search.FilteredCars = append(search.FilteredCars, car)
			}
		}
		m.updateTableRows()
		m.tableModel.GotoTop()

	case SearchDetail:
		q := strings.ToLower(search.Query)
		search.FilteredNodes = []detailNode{}
		for _, node := range m.detailNodes {
			if strings.Contains(strings.ToLower(node.Label), q) || strings.Contains(strings.ToLower(node.Value), q) {
				search.FilteredNodes = append(search.FilteredNodes, node)
			}
		}
		m.selectedNode = 0
	}
}

// clearSearchState drops the query and any filtered results
func (m *browserModel) clearSearchState() {
	m.ui.Search.Clear()
	m.ui.ExitToNormalMode()
	m.updateTableRows()
}

// handleNavigation moves the selection in the current view
func (m *browserModel) handleNavigation(direction string) {
	switch m.state {
	case stateCarList:
		switch direction {
		case "up":
			m.tableModel.MoveUp(1)
		case "down":
			m.tableModel.MoveDown(1)
		case "top":
			m.tableModel.GotoTop()
		case "bottom":
			m.tableModel.GotoBottom()
		}

	case stateCarDetail:
		count := len(m.detailNodes)
		if m.ui.Search.FilteredNodes != nil {
			count = len(m.ui.Search.FilteredNodes)
		}
		if count == 0 {
			return
		}

		switch direction {
		case "up":
			if m.selectedNode > 0 {
				m.selectedNode--
			}
		case "down":
			if m.selectedNode < count-1 {
				m.selectedNode++
			}
		case "top":
			m.selectedNode = 0
		case "bottom":
			m.selectedNode = count - 1
		}
	}
}

// copyCurrent copies the natural key of the selected car, or the value of
// the selected detail field
func (m *browserModel) copyCurrent() {
	var text string

	switch m.state {
	case stateCarList:
		car, ok := m.currentCar()
		if !ok {
			return
		}
		text = car.NaturalKey
	case stateCarDetail:
		nodes := m.detailNodes
		if m.ui.Search.FilteredNodes != nil {
			nodes = m.ui.Search.FilteredNodes
		}
		if m.selectedNode < len(nodes) && nodes[m.selectedNode].Value != "" {
			text = nodes[m.selectedNode].Value
		} else if m.selected != nil {
			text = m.selected.NaturalKey
		}
	default:
		return
	}

	if err := m.copyText(text); err != nil {
		m.setStatus(fmt.Sprintf("Copy failed: %v", err))
		return
	}
	m.setStatus(fmt.Sprintf("Copied %s", text))
}

func (m *browserModel) setStatus(msg string) {
	m.statusMessage = msg
	m.statusTimeout = time.Now().Add(statusDuration)
}
