package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"carcat/internal/catalog"
	"carcat/internal/config"
	"carcat/internal/utils"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Interactive catalog browser",
	Long: `Browse the car catalog interactively with a terminal UI.

Navigate cars with keyboard controls, open a car to see every field, search
with / and copy natural keys with yy. Accepts the same filters as 'list'.
When no terminal is attached the catalog is printed as a static table.

Examples:
  carcat browse
  carcat browse --make toyota --available`,
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

var browseStatic bool

func init() {
	rootCmd.AddCommand(browseCmd)

	browseCmd.Flags().BoolVar(&browseStatic, "static", false, "print a static table instead of the interactive view")
	addFilterFlags(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	filter, err := listFilter()
	if err != nil {
		return err
	}

	store, err := utils.OpenCatalog(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if browseStatic || !isatty.IsTerminal(os.Stdout.Fd()) {
		return runStaticBrowse(cmd, store, filter)
	}

	model := newBrowserModel(store, filter)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))

	if _, err := p.Run(); err != nil {
		logger.Warn("interactive browser failed, falling back to static output", "error", err)
		return runStaticBrowse(cmd, store, filter)
	}

	return nil
}

func runStaticBrowse(cmd *cobra.Command, reader catalog.Reader, filter catalog.Filter) error {
	cars, err := reader.List(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("failed to list cars: %w", err)
	}

	out := cmd.OutOrStdout()
	total, err := reader.Count(cmd.Context())
	if err == nil {
		fmt.Fprintf(out, "🚗 Catalog: %d cars (%d shown)\n\n", total, len(cars))
	}

	renderCarTable(out, cars)
	writeBrowseHint(out)
	return nil
}

func writeBrowseHint(w io.Writer) {
	fmt.Fprintln(w, "\nUse 'carcat list --format json' for machine-readable output")
}

func newBrowserModel(reader catalog.Reader, filter catalog.Filter) *browserModel {
	columns := []table.Column{
		{Title: "Make", Width: config.MakeColumnWidth},
		{Title: "Model", Width: config.ModelColumnWidth},
		{Title: "Year", Width: config.YearColumnWidth},
		{Title: "Price", Width: config.PriceColumnWidth},
		{Title: "Fuel", Width: config.FuelColumnWidth},
		{Title: "Avail", Width: 5},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(config.DefaultTableHeight),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(darkGray).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return &browserModel{
		state:         stateLoading,
		reader:        reader,
		filter:        filter,
		loading:       true,
		tableModel:    t,
		expandedNodes: make(map[string]bool),
		keys:          NewKeyDispatcher(),
		copyText:      utils.CopyToClipboard,
	}
}

// Init implements tea.Model
func (m *browserModel) Init() tea.Cmd {
	return loadCars(m.reader, m.filter)
}

// Update implements tea.Model
func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		tableHeight := m.height - 8 // header, footer and padding
		if tableHeight < config.MinTableHeight {
			tableHeight = config.MinTableHeight
		}
		m.tableModel.SetHeight(tableHeight)
		return m, nil

	case tea.KeyMsg:
		return m.keys.Dispatch(m, msg)

	case carsLoadedMsg:
		m.loading = false
		m.cars = msg.cars
		m.state = stateCarList
		m.updateTableRows()
		return m, nil

	case carLoadedMsg:
		m.loading = false
		m.selected = msg.car
		m.state = stateCarDetail
		m.selectedNode = 0
		m.expandAll()
		m.buildDetailTree()
		return m, nil

	case errorMsg:
		m.loading = false
		m.err = msg.err
		m.state = stateError
		return m, nil
	}

	return m, nil
}

// View implements tea.Model
func (m *browserModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	switch m.state {
	case stateLoading:
		return m.renderLoading()
	case stateCarList:
		return m.renderCarList()
	case stateCarDetail:
		return m.renderCarDetail()
	case stateError:
		return m.renderError()
	case stateHelp:
		return m.renderHelp()
	default:
		return "Unknown state"
	}
}

// visibleCars returns the search results while a query is set, else every
// loaded car
func (m *browserModel) visibleCars() []catalog.Record {
	if m.ui.Search.FilteredCars != nil {
		return m.ui.Search.FilteredCars
	}
	return m.cars
}

// currentCar returns the car under the table cursor
func (m *browserModel) currentCar() (catalog.Record, bool) {
	cars := m.visibleCars()
	idx := m.tableModel.Cursor()
	if idx < 0 || idx >= len(cars) {
		return catalog.Record{}, false
	}
	return cars[idx], true
}

// updateTableRows populates the table component with the visible cars
func (m *browserModel) updateTableRows() {
	cars := m.visibleCars()

	rows := make([]table.Row, len(cars))
	for i, car := range cars {
		avail := ""
		if car.IsAvailable {
			avail = "✓"
		}
		rows[i] = table.Row{
			car.Make,
			car.Model,
			fmt.Sprint(car.Year),
			utils.FormatPrice(car.Price),
			string(car.FuelType),
			avail,
		}
	}

	m.tableModel.SetRows(rows)
	if m.tableModel.Cursor() >= len(rows) {
		m.tableModel.GotoTop()
	}
}
