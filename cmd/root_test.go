package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ginjaninja78/invoic-edifact/internal/config"
	"github.com/ginjaninja78/invoic-edifact/internal/logging"
	"github.com/ginjaninja78/invoic-edifact/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvFile(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		assert.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), "absent.env")))
	})

	t.Run("empty path is ignored", func(t *testing.T) {
		assert.NoError(t, loadEnvFile(""))
	})

	t.Run("variables are loaded", func(t *testing.T) {
		const key = "INVOIC_ROOT_TEST_VALUE"
		t.Cleanup(func() { os.Unsetenv(key) })

		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte(key+"=from-file\n"), 0644))

		require.NoError(t, loadEnvFile(path))
		assert.Equal(t, "from-file", os.Getenv(key))
	})
}

func TestOpenRepository_CSV(t *testing.T) {
	oldFile, oldComma := csvFile, csvComma
	t.Cleanup(func() { csvFile, csvComma = oldFile, oldComma })

	csvFile = filepath.Join(t.TempDir(), "export.csv")

	csvComma = ";"
	repo, closeRepo, err := openRepository(t.Context(), &config.MainConfig{}, logging.Discard{})
	require.NoError(t, err)
	closeRepo()
	assert.IsType(t, &store.CSVRepository{}, repo)

	csvComma = ";;"
	_, _, err = openRepository(t.Context(), &config.MainConfig{}, logging.Discard{})
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	oldEnv := envFile
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version", "--env-file", ""})
	t.Cleanup(func() {
		envFile = oldEnv
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "invoic dev")
	assert.Contains(t, out.String(), "message type INVOIC:D:01B:UN, syntax UNOC:2")
}
