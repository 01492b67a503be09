package cmd

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"carcat/internal/catalog"
)

// browserState represents the current view state
type browserState int

const (
	stateLoading browserState = iota
	stateCarList
	stateCarDetail
	stateError
	stateHelp
)

// UIMode separates normal key handling from text input
type UIMode int

const (
	ModeNormal UIMode = iota
	ModeSearch
)

// browserModel is the main Bubble Tea model
type browserModel struct {
	state  browserState
	reader catalog.Reader
	filter catalog.Filter

	// Car list state
	cars       []catalog.Record
	tableModel table.Model

	// Car detail state
	selected      *catalog.Record
	detailNodes   []detailNode
	selectedNode  int
	expandedNodes map[string]bool

	ui   UIState
	keys *KeyDispatcher

	// UI state
	loading bool
	err     error
	width   int
	height  int

	// Vim-style key sequences like "gg" and "yy"
	lastKey string

	statusMessage string
	statusTimeout time.Time

	previousState browserState

	copyText func(string) error
}

// UIState holds the input mode and search state
type UIState struct {
	Mode   UIMode
	Search SearchState
}

func (u *UIState) IsNormalMode() bool { return u.Mode == ModeNormal }
func (u *UIState) IsSearchMode() bool { return u.Mode == ModeSearch }

// EnterSearchMode starts a new search over sc
func (u *UIState) EnterSearchMode(sc SearchContext) {
	u.Mode = ModeSearch
	u.Search.Clear()
	u.Search.Active = true
	u.Search.Context = sc
}

// ExitToNormalMode leaves text input, keeping any filtered results
func (u *UIState) ExitToNormalMode() {
	u.Mode = ModeNormal
}

// detailNode is one row of the car detail tree: a section header or a field
type detailNode struct {
	Label       string
	Value       string
	Path        string // Unique path for tracking expansion state
	Level       int
	HasChildren bool
}

// SearchContext represents what type of content is being searched
type SearchContext int

const (
	SearchCars SearchContext = iota
	SearchDetail
)

// SearchState encapsulates all search-related state and behavior
type SearchState struct {
	Active        bool
	Query         string
	Context       SearchContext
	SelectedIndex int
	FilteredCars  []catalog.Record
	FilteredNodes []detailNode
}

// Clear resets the search state
func (s *SearchState) Clear() {
	s.Active = false
	s.Query = ""
	s.SelectedIndex = 0
	s.FilteredCars = nil
	s.FilteredNodes = nil
}

// IsEmpty returns true if no search is active
func (s *SearchState) IsEmpty() bool {
	return !s.Active || s.Query == ""
}

// ResultCount returns the number of filtered results
func (s *SearchState) ResultCount() int {
	if s.Context == SearchCars {
		return len(s.FilteredCars)
	}
	return len(s.FilteredNodes)
}

// HasResults returns true if there are filtered results
func (s *SearchState) HasResults() bool {
	return s.ResultCount() > 0
}

// matchesCar reports whether query occurs in the car's make, model, fuel type
// or natural key, ignoring case
func matchesCar(car catalog.Record, query string) bool {
	q := strings.ToLower(query)
	for _, field := range []string{car.Make, car.Model, car.NaturalKey, car.Title()} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(string(car.FuelType)), q)
}

// Messages for async operations
type carsLoadedMsg struct {
	cars []catalog.Record
}

type carLoadedMsg struct {
	car *catalog.Record
}

type errorMsg struct {
	err error
}

// Commands for async operations
func loadCars(reader catalog.Reader, filter catalog.Filter) tea.Cmd {
	return func() tea.Msg {
		cars, err := reader.List(context.Background(), filter)
		if err != nil {
			return errorMsg{err}
		}
		return carsLoadedMsg{cars}
	}
}

func loadCar(reader catalog.Reader, id int64) tea.Cmd {
	return func() tea.Msg {
		car, err := reader.Get(context.Background(), id)
		if err != nil {
			return errorMsg{err}
		}
		return carLoadedMsg{car}
	}
}
