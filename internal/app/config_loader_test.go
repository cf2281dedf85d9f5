package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/ytwrap-go/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
tool:
  binary: /opt/yt-dlp
  probe_timeout: 3s
download:
  dir: /tmp/videos
  quality: "bestvideo+bestaudio"
  subtitle_languages: [en, de]
  concurrency: 4
server:
  port: 9000
history:
  enabled: false
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/opt/yt-dlp", config.Tool.Binary)
	assert.Equal(t, 3*time.Second, config.Tool.ProbeTimeout)
	assert.Equal(t, 30*time.Second, config.Tool.MetadataTimeout)
	assert.Equal(t, "/tmp/videos", config.Download.Dir)
	assert.Equal(t, "bestvideo+bestaudio", config.Download.Quality)
	assert.Equal(t, []string{"en", "de"}, config.Download.SubtitleLanguages)
	assert.Equal(t, 4, config.Download.Concurrency)
	assert.Equal(t, 9000, config.Server.Port)
	assert.False(t, config.History.Enabled)
	assert.Equal(t, "localhost", config.Server.Host)
}

func TestLoadConfig_Env(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\n")
	t.Setenv("YTWRAP_SERVER_PORT", "9100")
	t.Setenv("YTWRAP_TOOL_BINARY", "/usr/local/bin/yt-dlp")
	t.Setenv("YTWRAP_LOGGING_LEVEL", "debug")

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, config.Server.Port)
	assert.Equal(t, "/usr/local/bin/yt-dlp", config.Tool.Binary)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadConfig_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := writeConfig(t, "download:\n  dir: ~/Videos\nhistory:\n  database_path: $HOME/db/history.db\n")

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "Videos"), config.Download.Dir)
	assert.Equal(t, filepath.Join(home, "db", "history.db"), config.History.DatabasePath)
	assert.Equal(t, filepath.Join(home, ".config", "ytwrap", "logs"), config.Logging.LogsDir)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad port", "server:\n  port: 70000\n"},
		{"zero concurrency", "download:\n  concurrency: 0\n"},
		{"negative probe timeout", "tool:\n  probe_timeout: -1s\n"},
		{"empty binary", "tool:\n  binary: \"\"\n"},
		{"history without path", "history:\n  enabled: true\n  database_path: \"\"\n"},
		{"malformed yaml", "server: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	config := domain.DefaultConfig()
	config.Tool.Binary = "/opt/yt-dlp"
	config.Download.Dir = "/tmp/videos"
	config.Download.Concurrency = 3
	config.Server.Port = 9200

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, SaveConfig(config, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/yt-dlp", loaded.Tool.Binary)
	assert.Equal(t, "/tmp/videos", loaded.Download.Dir)
	assert.Equal(t, 3, loaded.Download.Concurrency)
	assert.Equal(t, 9200, loaded.Server.Port)
}

func TestSaveConfig_PreservesMultiWordKeys(t *testing.T) {
	config := domain.DefaultConfig()
	config.Tool.ProbeTimeout = 7 * time.Second
	config.Download.SubtitleLanguages = []string{"fr"}
	config.Queue.CheckInterval = 10 * time.Second

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, SaveConfig(config, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, loaded.Tool.ProbeTimeout)
	assert.Equal(t, []string{"fr"}, loaded.Download.SubtitleLanguages)
	assert.Equal(t, 10*time.Second, loaded.Queue.CheckInterval)
}
