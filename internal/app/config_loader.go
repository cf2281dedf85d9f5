package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/yourusername/ytwrap-go/internal/domain"
)

// LoadConfig loads configuration from file and environment.
// An empty configPath searches the standard locations; a missing file there is not an error.
func LoadConfig(configPath string) (*domain.Config, error) {
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.config/ytwrap")
		v.AddConfigPath("/etc/ytwrap")
	}

	v.SetEnvPrefix("YTWRAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// bindEnvKeys registers every known key so YTWRAP_* variables apply
// even when no config file mentions the key.
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"tool.binary", "tool.probe_timeout", "tool.metadata_timeout", "tool.auto_install",
		"download.dir", "download.quality", "download.audio_format", "download.subtitle_languages", "download.concurrency",
		"history.enabled", "history.database_path",
		"queue.check_interval",
		"server.host", "server.port",
		"notification.enabled", "notification.method",
		"logging.level", "logging.format", "logging.output_path", "logging.logs_dir", "logging.download_log",
	}
	for _, key := range keys {
		v.BindEnv(key)
	}
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Download.Dir = expandPath(config.Download.Dir)
	config.History.DatabasePath = expandPath(config.History.DatabasePath)
	config.Logging.LogsDir = expandPath(config.Logging.LogsDir)
	config.Tool.Binary = expandPath(config.Tool.Binary)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	// $HOME first so it resolves even where HOME is unset (os.UserHomeDir falls back).
	if strings.Contains(path, "$HOME") {
		if home, err := os.UserHomeDir(); err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}

	return os.ExpandEnv(path)
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Tool.Binary == "" {
		return fmt.Errorf("tool binary not configured")
	}

	if config.Tool.ProbeTimeout <= 0 {
		return fmt.Errorf("tool probe timeout must be positive")
	}

	if config.Tool.MetadataTimeout <= 0 {
		return fmt.Errorf("tool metadata timeout must be positive")
	}

	if config.Download.Dir == "" {
		return fmt.Errorf("download directory not configured")
	}

	if config.Download.Concurrency < 1 {
		return fmt.Errorf("download concurrency must be at least 1")
	}

	if config.History.Enabled && config.History.DatabasePath == "" {
		return fmt.Errorf("history database path not configured")
	}

	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Queue.CheckInterval <= 0 {
		return fmt.Errorf("queue check interval must be positive")
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig saves configuration to file using the same keys LoadConfig reads
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	settings := map[string]interface{}{
		"tool.binary":                 config.Tool.Binary,
		"tool.probe_timeout":          config.Tool.ProbeTimeout.String(),
		"tool.metadata_timeout":       config.Tool.MetadataTimeout.String(),
		"tool.auto_install":           config.Tool.AutoInstall,
		"download.dir":                config.Download.Dir,
		"download.quality":            config.Download.Quality,
		"download.audio_format":       config.Download.AudioFormat,
		"download.subtitle_languages": config.Download.SubtitleLanguages,
		"download.concurrency":        config.Download.Concurrency,
		"history.enabled":             config.History.Enabled,
		"history.database_path":       config.History.DatabasePath,
		"queue.check_interval":        config.Queue.CheckInterval.String(),
		"server.host":                 config.Server.Host,
		"server.port":                 config.Server.Port,
		"notification.enabled":        config.Notification.Enabled,
		"notification.method":         config.Notification.Method,
		"logging.level":               config.Logging.Level,
		"logging.format":              config.Logging.Format,
		"logging.output_path":         config.Logging.OutputPath,
		"logging.logs_dir":            config.Logging.LogsDir,
		"logging.download_log":        config.Logging.DownloadLog,
	}
	for key, value := range settings {
		v.Set(key, value)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
