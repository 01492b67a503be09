package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManHeaderFromRoot(t *testing.T) {
	t.Setenv("SOURCE_DATE_EPOCH", "1741953600")

	header := manHeader(rootCmd)
	assert.Equal(t, "CARCAT", header.Title)
	assert.Equal(t, "carcat 1.0.0", header.Source)
	assert.Equal(t, rootCmd.Short, header.Manual)
	require.NotNil(t, header.Date)
	assert.Equal(t, 2025, header.Date.Year())
}

func TestWriteDocs(t *testing.T) {
	root := &cobra.Command{Use: "carcat", Short: "Car catalog import and cache toolkit"}
	root.AddCommand(&cobra.Command{Use: "serve", Short: "Serve the catalog API", Run: func(*cobra.Command, []string) {}})

	dir := t.TempDir()
	require.NoError(t, writeDocs(root, "md", dir))

	_, err := os.Stat(filepath.Join(dir, "carcat_serve.md"))
	assert.NoError(t, err)

	err = writeDocs(root, "pdf", dir)
	assert.ErrorContains(t, err, "man, md, rst, yaml")
}
