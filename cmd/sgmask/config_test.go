package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-subgroup/subgroup"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.GlobalSize)
	assert.Equal(t, 128, cfg.LocalSize)
	assert.Equal(t, 0, cfg.SubGroupSize)
	assert.Equal(t, 64, cfg.Samples)
	assert.Equal(t, uint64(1), cfg.Seed)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, subgroup.DefaultSize(), cfg.SubGroup())
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("SGMASK_GLOBAL_SIZE", "512")
	t.Setenv("SGMASK_SUBGROUP_SIZE", "32")
	t.Setenv("SGMASK_LOG_FORMAT", "json")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 512, cfg.GlobalSize)
	assert.Equal(t, 32, cfg.SubGroup())
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadConfigEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sgmask.env")
	require.NoError(t, os.WriteFile(path, []byte("SGMASK_LOCAL_SIZE=64\nSGMASK_SEED=9\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("SGMASK_LOCAL_SIZE")
		os.Unsetenv("SGMASK_SEED")
	})

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.LocalSize)
	assert.Equal(t, uint64(9), cfg.Seed)
}

func TestLoadConfigMissingEnvFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoadConfigBadEnv(t *testing.T) {
	t.Setenv("SGMASK_WORKERS", "many")
	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestApplyFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("global", 256, "")
	fs.Int("sg-size", 0, "")
	fs.Uint64("seed", 1, "")
	fs.String("log-level", "info", "")
	require.NoError(t, fs.Parse([]string{"--sg-size=16", "--seed=5", "--log-level=debug"}))

	cfg := Config{GlobalSize: 1024, SubGroupSize: 8, Seed: 1, LogLevel: "warn"}
	require.NoError(t, cfg.ApplyFlags(fs))
	assert.Equal(t, 1024, cfg.GlobalSize, "unchanged flags keep the env value")
	assert.Equal(t, 16, cfg.SubGroupSize)
	assert.Equal(t, uint64(5), cfg.Seed)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	base := Config{LogLevel: "info", LogFormat: "text"}

	bad := []Config{
		{SubGroupSize: 12, LogLevel: "info", LogFormat: "text"},
		{Samples: -1, LogLevel: "info", LogFormat: "text"},
		{LogLevel: "loud", LogFormat: "text"},
		{LogLevel: "info", LogFormat: "xml"},
	}
	require.NoError(t, base.Validate())
	for _, c := range bad {
		assert.Error(t, c.Validate(), "%+v", c)
	}
	assert.ErrorIs(t, bad[0].Validate(), subgroup.ErrInvalidWidth)
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Config{LogLevel: "warn", LogFormat: "json"}.Logger(&buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
