package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	prettytable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"carcat/internal/catalog"
	"carcat/internal/server"
	"carcat/internal/utils"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cars in the catalog",
	Long: `Print catalog cars as a table, or as JSON with --format json.

Examples:
  carcat list --make honda
  carcat list --fuel electricity --min-year 2020
  carcat list --available --limit 10 --format json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var (
	listFormat    string
	listMake      string
	listModel     string
	listFuel      string
	listMinYear   string
	listMaxYear   string
	listAvailable bool
	listLimit     string
	listOffset    string
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "output format: table, json")
	addFilterFlags(listCmd)
}

// addFilterFlags binds the catalog filter flags shared by list and browse
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&listMake, "make", "", "filter by make")
	cmd.Flags().StringVar(&listModel, "model", "", "filter by model")
	cmd.Flags().StringVar(&listFuel, "fuel", "", "filter by fuel type: gas, diesel, electricity, hybrid")
	cmd.Flags().StringVar(&listMinYear, "min-year", "", "earliest model year")
	cmd.Flags().StringVar(&listMaxYear, "max-year", "", "latest model year")
	cmd.Flags().BoolVar(&listAvailable, "available", false, "only cars that are available")
	cmd.Flags().StringVar(&listLimit, "limit", "", "maximum number of cars")
	cmd.Flags().StringVar(&listOffset, "offset", "", "cars to skip")
}

// listFilter reuses the API's query parsing so both surfaces agree
func listFilter() (catalog.Filter, error) {
	q := map[string][]string{}
	set := func(name, v string) {
		if v != "" {
			q[name] = []string{v}
		}
	}
	set("make", listMake)
	set("model", listModel)
	set("fuelType", listFuel)
	set("minYear", listMinYear)
	set("maxYear", listMaxYear)
	set("limit", listLimit)
	set("offset", listOffset)
	if listAvailable {
		set("available", "true")
	}
	return server.ParseFilter(q)
}

func runList(cmd *cobra.Command, args []string) error {
	filter, err := listFilter()
	if err != nil {
		return err
	}

	store, err := utils.OpenCatalog(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	cars, err := store.List(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("failed to list cars: %w", err)
	}

	switch listFormat {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(cars)
	case "table":
		renderCarTable(cmd.OutOrStdout(), cars)
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (supported: table, json)", listFormat)
	}
}

func renderCarTable(w io.Writer, cars []catalog.Record) {
	if len(cars) == 0 {
		fmt.Fprintln(w, "No cars found")
		return
	}

	t := prettytable.NewWriter()
	t.SetStyle(prettytable.StyleRounded)
	t.AppendHeader(prettytable.Row{"ID", "Make", "Model", "Year", "Price", "Fuel", "Gearbox", "MPG", "Avail", "Key"})
	t.SetColumnConfigs([]prettytable.ColumnConfig{
		{Name: "Price", Align: text.AlignRight},
		{Name: "MPG", Align: text.AlignRight},
	})

	for _, car := range cars {
		avail := ""
		if car.IsAvailable {
			avail = "✓"
		}
		t.AppendRow(prettytable.Row{
			car.ID,
			car.Make,
			car.Model,
			car.Year,
			utils.FormatPrice(car.Price),
			car.FuelType,
			car.Transmission,
			fmt.Sprintf("%d/%d", car.CityMPG, car.HighwayMPG),
			avail,
			car.NaturalKey,
		})
	}

	t.AppendFooter(prettytable.Row{"", "", "", "", "", "", "", "", "Total", len(cars)})
	fmt.Fprintln(w, t.Render())
}
