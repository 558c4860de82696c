package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(ConfigEnv, "")

	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "sqlite", c.Datastore.Driver)
	require.Equal(t, filepath.Join(home, ".amped", "amped.db"), c.Datastore.Path)
	require.Equal(t, filepath.Join(home, ".amped"), c.Auth.Dir)
	require.Equal(t, 720*time.Hour, c.Auth.SessionTTL)
	require.Equal(t, "info", c.Log.Level)
	require.Equal(t, "classic", c.UI.Theme)
}

func TestLoadFileAndEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[datastore]
driver = "json"
path = "/tmp/todos.json"

[auth]
session_ttl = "90m"

[ui]
theme = "neon"
`), 0o644))
	t.Setenv(ConfigEnv, path)
	t.Setenv("AMPED_LOG_LEVEL", "debug")

	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "json", c.Datastore.Driver)
	require.Equal(t, "/tmp/todos.json", c.Datastore.Path)
	require.Equal(t, 90*time.Minute, c.Auth.SessionTTL)
	require.Equal(t, "neon", c.UI.Theme)
	require.Equal(t, "debug", c.Log.Level)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[datastore]\ndriver = \"postgres\"\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "datastore.driver")
}

func TestSaveThenLoad(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	want := Config{
		Datastore: DatastoreConfig{Driver: "json", Path: "/data/todos.json"},
		Auth:      AuthConfig{Dir: "/data/auth", SessionTTL: 2 * time.Hour},
		Log:       LogConfig{File: "", Level: "warn"},
		UI:        UIConfig{Theme: "mono"},
	}
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, want.Datastore, got.Datastore)
	require.Equal(t, want.Auth, got.Auth)
	require.Equal(t, want.UI, got.UI)
	require.Equal(t, "warn", got.Log.Level)
}

func TestResolve(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(ConfigEnv, "")
	require.Equal(t, filepath.Join(home, ".config", "amped", "config.toml"), Resolve(""))

	t.Setenv(ConfigEnv, "/etc/amped.toml")
	require.Equal(t, "/etc/amped.toml", Resolve(""))
	require.Equal(t, "/tmp/x.toml", Resolve("/tmp/x.toml"))
}
