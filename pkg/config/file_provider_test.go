package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestFileProviderInitialLoad(t *testing.T) {
	path := writeConfigFile(t, `
pipelines:
  default: [passthrough]
`)

	provider, err := NewFileProvider(path, discardLogger())
	require.NoError(t, err)
	defer provider.Close()

	cfg := provider.Current()
	require.NotNil(t, cfg)
	assert.Equal(t, []string{"passthrough"}, cfg.Pipelines["default"])
}

func TestFileProviderRejectsInvalidInitialConfig(t *testing.T) {
	path := writeConfigFile(t, `
pipelines:
  default: [""]
`)

	_, err := NewFileProvider(path, discardLogger())
	require.Error(t, err)
}

func TestFileProviderSubscribeDeliversCurrentSnapshot(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: warn
`)

	provider, err := NewFileProvider(path, discardLogger())
	require.NoError(t, err)
	defer provider.Close()

	ch := provider.Subscribe()
	select {
	case cfg := <-ch:
		assert.Equal(t, "warn", cfg.Logging.Level)
	case <-time.After(time.Second):
		t.Fatal("expected immediate snapshot from Subscribe")
	}
}

func TestFileProviderReloadsOnWrite(t *testing.T) {
	path := writeConfigFile(t, `
pipelines:
  default: [passthrough]
`)

	provider, err := NewFileProvider(path, discardLogger())
	require.NoError(t, err)
	defer provider.Close()

	ch := provider.Subscribe()
	<-ch // drain initial snapshot

	updated := []byte(`
pipelines:
  default: [passthrough, annotate]
`)
	require.NoError(t, os.WriteFile(path, updated, 0o600))

	select {
	case cfg := <-ch:
		assert.Equal(t, []string{"passthrough", "annotate"}, cfg.Pipelines["default"])
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	assert.Equal(t, []string{"passthrough", "annotate"}, provider.Current().Pipelines["default"])
}

func TestFileProviderKeepsLastGoodConfigOnBadReload(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: info
`)

	provider, err := NewFileProvider(path, discardLogger())
	require.NoError(t, err)
	defer provider.Close()

	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0o600))

	// Give the debounce window time to fire the failed reload.
	time.Sleep(500 * time.Millisecond)

	assert.Equal(t, "info", provider.Current().Logging.Level)
}

func TestFileProviderIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: info\n"), 0o600))

	provider, err := NewFileProvider(path, discardLogger())
	require.NoError(t, err)
	defer provider.Close()

	ch := provider.Subscribe()
	<-ch

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o600))

	select {
	case <-ch:
		t.Fatal("unexpected snapshot after sibling file write")
	case <-time.After(500 * time.Millisecond):
	}
}
