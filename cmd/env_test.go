package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnvTestFlags() (*pflag.FlagSet, *int64, *int64, *string, *time.Duration) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	s := fs.Int64("seed", 42, "")
	tk := fs.Int64("ticks", 120, "")
	lg := fs.String("log", "warn", "")
	iv := fs.Duration("interval", 0, "")
	fs.String("output", "text", "")
	return fs, s, tk, lg, iv
}

func TestApplyEnvFile_SetsUnsetFlags(t *testing.T) {
	// GIVEN an env file and an explicitly set --ticks
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ROUTESIM_SEED=9\nROUTESIM_TICKS=500\nROUTESIM_INTERVAL=2s\nOTHER=x\n"), 0o644))
	fs, s, tk, lg, iv := newEnvTestFlags()
	require.NoError(t, fs.Parse([]string{"--ticks", "30"}))

	// WHEN applied
	applied, err := applyEnvFile(path, fs, changedFlags(fs))

	// THEN only non-explicit flags take env values
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ROUTESIM_SEED", "ROUTESIM_INTERVAL"}, applied)
	assert.Equal(t, int64(9), *s)
	assert.Equal(t, int64(30), *tk)
	assert.Equal(t, "warn", *lg)
	assert.Equal(t, 2*time.Second, *iv)
}

func TestApplyEnvFile_MissingFileIgnored(t *testing.T) {
	fs, s, _, _, _ := newEnvTestFlags()
	applied, err := applyEnvFile(filepath.Join(t.TempDir(), "nope.env"), fs, nil)
	require.NoError(t, err)
	assert.Empty(t, applied)
	assert.Equal(t, int64(42), *s)
}

func TestApplyEnvFile_EmptyPathIgnored(t *testing.T) {
	fs, _, _, _, _ := newEnvTestFlags()
	applied, err := applyEnvFile("", fs, nil)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestApplyEnvFile_BadValueRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ROUTESIM_SEED=abc\n"), 0o644))
	fs, _, _, _, _ := newEnvTestFlags()
	_, err := applyEnvFile(path, fs, nil)
	assert.Error(t, err)
}
