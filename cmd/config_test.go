package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/prreview/internal/config"
	"github.com/joescharf/prreview/internal/output"
)

// testEnv sets up isolated config dir, viper, and output for testing.
// It returns the config dir and the buffer that receives ui.Out.
func testEnv(t *testing.T) (string, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()

	// Override configDirFunc for tests
	origFunc := configDirFunc
	configDirFunc = func() (string, error) { return dir, nil }
	t.Cleanup(func() { configDirFunc = origFunc })

	for _, k := range configKeys {
		for _, env := range k.EnvVars {
			t.Setenv(env, "")
		}
	}

	// Reset viper
	viper.Reset()
	config.SetDefaults(viper.GetViper())
	t.Cleanup(viper.Reset)

	// Initialize output
	out := &bytes.Buffer{}
	ui = output.New()
	ui.Out = out
	ui.ErrOut = &bytes.Buffer{}

	verbose = false
	dryRun = false
	configForce = false

	return dir, out
}

func TestConfigInit_CreatesFile(t *testing.T) {
	dir, _ := testEnv(t)

	err := configInitRun()
	require.NoError(t, err)

	cfgPath := filepath.Join(dir, "config.yaml")
	_, err = os.Stat(cfgPath)
	assert.NoError(t, err, "config file should exist")

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "prreview configuration")
	assert.Contains(t, string(data), `uri: "mongodb://localhost:27017/"`)
	assert.Contains(t, string(data), `collection: "pr_analysis_collection"`)
	assert.Contains(t, string(data), "timeout: 30s")
	assert.Contains(t, string(data), "sqlite://"+dir+"/reviews.db")
}

func TestConfigInit_RoundTripsThroughViper(t *testing.T) {
	dir, _ := testEnv(t)
	require.NoError(t, configInitRun())

	v := viper.New()
	v.SetConfigFile(filepath.Join(dir, "config.yaml"))
	config.SetDefaults(v)
	require.NoError(t, v.ReadInConfig())

	cfg, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultStoreDatabase, cfg.Store.Database)
	assert.Equal(t, config.DefaultGitHubTimeout, cfg.GitHub.Timeout)
	assert.Equal(t, config.DefaultStoreTimeout, cfg.Store.Timeout)
}

func TestConfigInit_RefusesOverwrite(t *testing.T) {
	dir, _ := testEnv(t)

	// Create existing file
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("existing"), 0644))

	configForce = false
	err := configInitRun()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestConfigInit_ForceOverwrite(t *testing.T) {
	dir, _ := testEnv(t)

	// Create existing file
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("existing"), 0644))

	configForce = true
	err := configInitRun()
	require.NoError(t, err)

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "prreview configuration")
}

func TestConfigShow_NoFile(t *testing.T) {
	_, out := testEnv(t)

	err := configShowRun()
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "(none)")
	assert.Contains(t, out.String(), "store.uri")
	assert.Contains(t, out.String(), "(default)")
}

func TestConfigShow_WithFile(t *testing.T) {
	_, out := testEnv(t)

	// Create config first
	require.NoError(t, configInitRun())
	out.Reset()

	err := configShowRun()
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "(file)")
}

func TestConfigShow_MasksToken(t *testing.T) {
	_, out := testEnv(t)
	t.Setenv("GITHUB_TOKEN", "ghp_supersecretvalue1234")

	require.NoError(t, configShowRun())
	assert.NotContains(t, out.String(), "ghp_supersecret")
	assert.Contains(t, out.String(), "****1234")
	assert.Contains(t, out.String(), "(env: GITHUB_TOKEN)")
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "(unset)", maskSecret(""))
	assert.Equal(t, "****", maskSecret("abc"))
	assert.Equal(t, "****6789", maskSecret("0123456789"))
}

func TestConfigEdit_NoEditor(t *testing.T) {
	testEnv(t)

	t.Setenv("EDITOR", "")
	t.Setenv("VISUAL", "")

	err := configEditRun()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "$EDITOR is not set")
}

func TestConfigEdit_NoConfigFile(t *testing.T) {
	testEnv(t)

	t.Setenv("EDITOR", "echo") // harmless command

	err := configEditRun()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestDetectSource(t *testing.T) {
	fileValues := map[string]bool{"key_a": true}

	// From env, first set name wins
	t.Setenv("PRREVIEW_TEST_KEY", "")
	t.Setenv("PRREVIEW_TEST_ALIAS", "val")
	assert.Equal(t, "(env: PRREVIEW_TEST_ALIAS)",
		detectSource("test_key", []string{"PRREVIEW_TEST_KEY", "PRREVIEW_TEST_ALIAS"}, fileValues))

	// From file
	assert.Contains(t, detectSource("key_a", []string{"PRREVIEW_KEY_A_NONEXISTENT"}, fileValues), "file")

	// Default
	assert.Contains(t, detectSource("key_b", []string{"PRREVIEW_KEY_B_NONEXISTENT"}, fileValues), "default")
}

func TestFlattenKeys(t *testing.T) {
	input := map[string]any{
		"top": "val",
		"nested": map[string]any{
			"a": "1",
			"b": "2",
		},
	}

	result := make(map[string]bool)
	flattenKeys("", input, result)

	assert.True(t, result["top"])
	assert.True(t, result["nested.a"])
	assert.True(t, result["nested.b"])
	assert.False(t, result["nested"])
}

func TestConfigInit_DryRun(t *testing.T) {
	dir, _ := testEnv(t)
	dryRun = true
	ui.DryRun = true
	defer func() { dryRun = false }()

	err := configInitRun()
	require.NoError(t, err)

	// File should NOT have been created
	cfgPath := filepath.Join(dir, "config.yaml")
	_, err = os.Stat(cfgPath)
	assert.True(t, os.IsNotExist(err), "config file should not exist in dry-run mode")
}

func withConfigFlag(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, rootCmd.PersistentFlags().Set("config", path))
	t.Cleanup(func() { _ = rootCmd.PersistentFlags().Set("config", "") })
}

func TestConfigShow_HonoursConfigFlag(t *testing.T) {
	dir, out := testEnv(t)

	custom := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(custom, []byte("store:\n  database: reviews_db\n"), 0644))
	withConfigFlag(t, custom)

	require.NoError(t, configShowRun())
	s := out.String()
	assert.Contains(t, s, "Config file: "+custom)
	assert.NotContains(t, s, filepath.Join(dir, "config.yaml"))
	assert.Regexp(t, `store\.database\s+\S+\s+\(file\)`, s)
	assert.Regexp(t, `store\.collection\s+\S+\s+\(default\)`, s)
}

func TestConfigInit_HonoursConfigFlag(t *testing.T) {
	dir, _ := testEnv(t)

	custom := filepath.Join(t.TempDir(), "nested", "custom.yaml")
	withConfigFlag(t, custom)

	require.NoError(t, configInitRun())
	_, err := os.Stat(custom)
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "config.yaml"))
	assert.True(t, os.IsNotExist(err))
}
