package jitconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	require.False(t, cfg.DumpIR)
	require.Equal(t, 4096, cfg.MaxBlocks)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jit.toml")
	contents := "dump_ir = true\nmax_blocks = 10\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.True(t, cfg.DumpIR)
	require.Equal(t, 10, cfg.MaxBlocks)
	require.False(t, cfg.DumpCFGDot)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/jit.toml")
	require.Error(t, err)
}
