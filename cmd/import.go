package cmd

import (
	"context"
	"fmt"
	"io"

	prettytable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"carcat/internal/importer"
	"carcat/internal/utils"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import cars into the catalog",
	Long: `Reconcile externally sourced car records into the local catalog.

Records are matched on their natural key (externalId). A matching record is
overwritten, anything else is inserted. Rows that cannot be parsed or fail
validation are skipped and reported as rejected.

Examples:
  carcat import file cars.csv
  carcat import remote https://dealer.example.com/api/cars --token $TOKEN
  carcat import sample cars.csv`,
}

var importFileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "Import a CSV file",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportFile,
}

var importRemoteCmd = &cobra.Command{
	Use:   "remote [url]",
	Short: "Import from a remote JSON API",
	Long: `Fetch cars from a JSON endpoint and import them. The response may be an
array of cars or an object wrapping one under "cars" or "data".

The URL defaults to import.remote_url and the bearer token to import.token.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImportRemote,
}

var importSampleCmd = &cobra.Command{
	Use:   "sample <path>",
	Short: "Write an example CSV import file",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportSample,
}

var (
	importToken      string
	importInvalidate string
)

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.AddCommand(importFileCmd)
	importCmd.AddCommand(importRemoteCmd)
	importCmd.AddCommand(importSampleCmd)

	importRemoteCmd.Flags().StringVar(&importToken, "token", "", "bearer token for the remote API")
	importCmd.PersistentFlags().StringVar(&importInvalidate, "invalidate", "", "after importing, clear the response cache of the server at this URL")
}

func runImportFile(cmd *cobra.Command, args []string) error {
	return withImporter(cmd, func(ctx context.Context, im *importer.Importer) (*importer.Outcome, error) {
		return im.ImportFile(ctx, args[0])
	})
}

func runImportRemote(cmd *cobra.Command, args []string) error {
	target := cfg.Import.RemoteURL
	if len(args) == 1 {
		target = args[0]
	}
	if target == "" {
		return fmt.Errorf("no URL given and import.remote_url is not set")
	}

	token := importToken
	if token == "" {
		token = cfg.Import.Token
	}

	return withImporter(cmd, func(ctx context.Context, im *importer.Importer) (*importer.Outcome, error) {
		return im.ImportRemote(ctx, target, token)
	})
}

func runImportSample(cmd *cobra.Command, args []string) error {
	if err := importer.GenerateSample(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample import file to %s\n", args[0])
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'carcat import file %s' to load it\n", args[0])
	return nil
}

// withImporter opens the catalog, runs one import and prints the outcome
func withImporter(cmd *cobra.Command, run func(context.Context, *importer.Importer) (*importer.Outcome, error)) error {
	store, err := utils.OpenCatalog(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	im := importer.New(store,
		importer.WithLogger(logger),
		importer.WithTimeout(cfg.Import.RemoteTimeout),
	)

	outcome, err := run(cmd.Context(), im)
	if err != nil {
		return err
	}

	printOutcome(cmd.OutOrStdout(), outcome)

	if importInvalidate != "" {
		if err := newAdminClient(importInvalidate, "").Clear(cmd.Context()); err != nil {
			return fmt.Errorf("import succeeded but clearing the server cache failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared response cache at %s\n", importInvalidate)
	}

	return nil
}

func printOutcome(w io.Writer, o *importer.Outcome) {
	t := prettytable.NewWriter()
	t.SetStyle(prettytable.StyleRounded)

	t.AppendHeader(prettytable.Row{"Result", "Records"})
	t.AppendRows([]prettytable.Row{
		{"Imported", o.Success},
		{"  created", o.Created},
		{"  updated", o.Updated},
		{"Failed", o.Failed},
		{"Rejected", o.Rejected},
	})

	fmt.Fprintln(w, t.Render())

	for _, msg := range o.Errors {
		fmt.Fprintf(w, "  ✗ %s\n", msg)
	}
}
