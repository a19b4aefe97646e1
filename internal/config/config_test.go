package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)

	require.NoError(t, err)
	assert.Equal(t, "embedded", cfg.Catalog.Source)
	assert.Equal(t, "reset", cfg.Catalog.ResetPolicy)
	assert.Equal(t, "medlab-quote.v1", cfg.Quote.Key)
	assert.Equal(t, []string{"medlab-quote", "requestItems"}, cfg.Quote.LegacyKeys)
	assert.Equal(t, 5, cfg.Remote.MaxRequestsPerSecond)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
catalog:
  source: file
  path: /srv/catalog.json
  reset_policy: keep
quote:
  store: redis
remote:
  max_workers: 8
database:
  name: catalogue
`), 0o644))
	t.Setenv("MEDLAB_REMOTE_MAX_WORKERS", "2")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("quote-store", "", "")
	require.NoError(t, flags.Parse([]string{"--quote-store=memory"}))

	cfg, err := Load(file, flags)

	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Catalog.Source)
	assert.Equal(t, "/srv/catalog.json", cfg.Catalog.Path)
	assert.Equal(t, "keep", cfg.Catalog.ResetPolicy)
	assert.Equal(t, "memory", cfg.Quote.Store)
	assert.Equal(t, 2, cfg.Remote.MaxWorkers)
	assert.Contains(t, cfg.Database.DSN(), "dbname=catalogue")
}

func TestLoadUnchangedFlagKeepsFileValue(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("quote:\n  store: redis\n"), 0o644))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("quote-store", "file", "")

	cfg, err := Load(file, flags)

	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Quote.Store)
}

func TestLoadBrokenFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("catalog: [\n"), 0o644))

	_, err := Load(file, nil)
	assert.Error(t, err)
}
