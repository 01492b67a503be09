package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogerrors "carcat/internal/errors"
)

func TestLoadConfigLogLevelOverride(t *testing.T) {
	loaded, err := loadConfig("", "debug")
	require.NoError(t, err)
	assert.Equal(t, "debug", loaded.Logging.Level)

	loaded, err = loadConfig("", "")
	require.NoError(t, err)
	assert.Equal(t, "info", loaded.Logging.Level)

	_, err = loadConfig("", "bogus")
	require.Error(t, err)

	var catErr *catalogerrors.CatalogError
	require.ErrorAs(t, err, &catErr)
	assert.Equal(t, catalogerrors.ErrorTypeConfig, catErr.Type)
	assert.Contains(t, catErr.Error(), "invalid log level: bogus")
}
