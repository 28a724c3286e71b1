package wizard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/galeractl/internal/config"
)

func TestWriteConfig(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "galeractl.yaml")

	cfg := config.Default()
	cfg.SSH.User = "deploy"
	cfg.SSH.Password = "hunter2"
	cfg.SSH.PrivateKeyPath = "/keys/id_ed25519"

	require.NoError(t, WriteConfig(cfg, outputPath))

	content, err := os.ReadFile(outputPath)
	require.NoError(t, err)

	assert.Contains(t, string(content), "# galeractl configuration")
	assert.Contains(t, string(content), "galeractl serve -c "+outputPath)
	assert.NotContains(t, string(content), "hunter2")
	assert.Equal(t, "hunter2", cfg.SSH.Password, "caller's config must not be modified")

	info, err := os.Stat(outputPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestWriteConfig_LoadsBack(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "galeractl.yaml")

	r := NewResult()
	r.Concurrency = "6"
	r.PrivateKeyPath = "/keys/id_ed25519"
	cfg, err := r.ToConfig()
	require.NoError(t, err)

	require.NoError(t, WriteConfig(cfg, outputPath))

	loaded, err := config.LoadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestWriteConfig_BadPath(t *testing.T) {
	err := WriteConfig(config.Default(), filepath.Join(t.TempDir(), "missing", "galeractl.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write file")
}

func TestFileExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "galeractl.yaml")
	assert.False(t, FileExists(path))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0600))
	assert.True(t, FileExists(path))
}

func TestConfirmOverwrite_Injected(t *testing.T) {
	orig := confirmOverwrite
	t.Cleanup(func() { confirmOverwrite = orig })

	confirmOverwrite = func(path string) (bool, error) {
		return path == "yes.yaml", nil
	}

	ok, err := ConfirmOverwrite("yes.yaml")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ConfirmOverwrite("no.yaml")
	require.NoError(t, err)
	assert.False(t, ok)
}
