package domain

import "time"

// Config represents the application configuration
type Config struct {
	Tool         ToolConfig         `mapstructure:"tool"`
	Download     DownloadConfig     `mapstructure:"download"`
	History      HistoryConfig      `mapstructure:"history"`
	Queue        QueueConfig        `mapstructure:"queue"`
	Server       ServerConfig       `mapstructure:"server"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ToolConfig describes the external downloader binary
type ToolConfig struct {
	Binary          string        `mapstructure:"binary"`
	ProbeTimeout    time.Duration `mapstructure:"probe_timeout"`
	MetadataTimeout time.Duration `mapstructure:"metadata_timeout"`
	AutoInstall     bool          `mapstructure:"auto_install"`
}

// DownloadConfig contains defaults applied to every DownloadRequest
type DownloadConfig struct {
	Dir               string   `mapstructure:"dir"`
	Quality           string   `mapstructure:"quality"`
	AudioFormat       string   `mapstructure:"audio_format"`
	SubtitleLanguages []string `mapstructure:"subtitle_languages"`
	Concurrency       int      `mapstructure:"concurrency"`
}

// HistoryConfig contains download history persistence settings
type HistoryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DatabasePath string `mapstructure:"database_path"`
}

// QueueConfig contains server queue settings
type QueueConfig struct {
	CheckInterval time.Duration `mapstructure:"check_interval"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level       string `mapstructure:"level"`       // debug, info, warn, error
	Format      string `mapstructure:"format"`      // json, console
	OutputPath  string `mapstructure:"output_path"` // stdout, stderr, or file path
	LogsDir     string `mapstructure:"logs_dir"`
	DownloadLog bool   `mapstructure:"download_log"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Tool: ToolConfig{
			Binary:          "yt-dlp",
			ProbeTimeout:    5 * time.Second,
			MetadataTimeout: 30 * time.Second,
			AutoInstall:     true,
		},
		Download: DownloadConfig{
			Dir:               "$HOME/Downloads",
			Quality:           QualityBest,
			AudioFormat:       DefaultAudioFormat,
			SubtitleLanguages: DefaultSubtitleLanguages(),
			Concurrency:       DefaultConcurrency,
		},
		History: HistoryConfig{
			Enabled:      true,
			DatabasePath: "$HOME/.config/ytwrap/history.db",
		},
		Queue: QueueConfig{
			CheckInterval: 2 * time.Second,
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: 8090,
		},
		Notification: NotificationConfig{
			Enabled: false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "console",
			OutputPath:  "stderr",
			LogsDir:     "$HOME/.config/ytwrap/logs",
			DownloadLog: true,
		},
	}
}

// RequestOptions turns the download defaults into request options
func (c *DownloadConfig) RequestOptions() []RequestOption {
	return []RequestOption{func(r *DownloadRequest) {
		if c.Quality != "" {
			r.Quality = c.Quality
		}
		if c.AudioFormat != "" {
			r.AudioFormat = c.AudioFormat
		}
		if len(c.SubtitleLanguages) > 0 {
			r.SubtitleLanguages = append([]string(nil), c.SubtitleLanguages...)
		}
		if c.Concurrency > 0 {
			r.Concurrency = c.Concurrency
		}
	}}
}
