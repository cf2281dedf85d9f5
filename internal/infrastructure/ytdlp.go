package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/ytwrap-go/internal/domain"
)

// Output template tokens understood by yt-dlp
const (
	TitleTemplate    = "%(title)s.%(ext)s"
	PlaylistDirToken = "%(playlist)s"
	PlaylistTemplate = "%(playlist_index)s - %(title)s.%(ext)s"
)

// OutputTemplate synthesizes a template under dir. Playlists get a
// directory per playlist and index-prefixed file names.
func OutputTemplate(dir string, playlist bool) string {
	if playlist {
		return filepath.Join(dir, PlaylistDirToken, PlaylistTemplate)
	}
	return filepath.Join(dir, TitleTemplate)
}

// BuildArgs builds the yt-dlp argument vector for req. The order is fixed
// so identical requests produce identical command lines.
func BuildArgs(req domain.DownloadRequest, outputTemplate string) []string {
	args := []string{"-o", outputTemplate}

	if req.Quality != "" && req.Quality != domain.QualityBest {
		args = append(args, "-f", req.Quality)
	}
	if req.ExtractAudio {
		args = append(args, "-x", "--audio-format", req.AudioFormat)
	}
	if req.Subtitles {
		args = append(args, "--write-subs", "--sub-langs", strings.Join(req.SubtitleLanguages, ","))
	}
	if !req.Playlist {
		args = append(args, "--no-playlist")
	}
	if req.Concurrency > 1 {
		args = append(args, "-N", strconv.Itoa(req.Concurrency))
	}

	args = append(args,
		"--newline", "--progress",
		"--retries", strconv.Itoa(domain.ToolRetries),
		"--", req.Source,
	)
	return args
}

// MetadataArgs builds the argument vector for a metadata-only query
func MetadataArgs(source string) []string {
	return []string{"--dump-single-json", "--no-warnings", "--skip-download", "--", source}
}

// YTDLP runs the yt-dlp binary
type YTDLP struct {
	config *domain.ToolConfig
	logger *zap.Logger
}

// NewYTDLP creates a new yt-dlp adapter
func NewYTDLP(config *domain.ToolConfig, logger *zap.Logger) *YTDLP {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &YTDLP{
		config: config,
		logger: logger,
	}
}

// Binary returns the configured executable
func (y *YTDLP) Binary() string {
	return y.config.Binary
}

// Version runs the version probe under the probe timeout
func (y *YTDLP) Version(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, y.probeTimeout())
	defer cancel()

	out, err := RunOutput(ctx, y.config.Binary, "--version")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Available reports whether the binary answers the version probe.
// Missing executable, timeout and non-zero exit all count as unavailable.
func (y *YTDLP) Available(ctx context.Context) bool {
	version, err := y.Version(ctx)
	if err != nil {
		y.logger.Debug("yt-dlp probe failed",
			zap.String("binary", y.config.Binary),
			zap.Error(err))
		return false
	}
	y.logger.Debug("yt-dlp available",
		zap.String("binary", y.config.Binary),
		zap.String("version", version))
	return true
}

// FetchMetadata queries the tool for the single JSON document describing source
func (y *YTDLP) FetchMetadata(ctx context.Context, source string) (*domain.Metadata, error) {
	timeout := y.config.MetadataTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	y.logger.Debug("Fetching metadata",
		zap.String("source", source),
		zap.String("command", CommandLine(y.config.Binary, MetadataArgs(source)...)))

	out, err := RunOutput(ctx, y.config.Binary, MetadataArgs(source)...)
	if err != nil {
		return nil, &domain.MetadataError{Source: source, Err: err}
	}

	var meta domain.Metadata
	if err := json.Unmarshal(out, &meta); err != nil {
		return nil, &domain.MetadataError{Source: source, Err: fmt.Errorf("malformed output: %w", err)}
	}
	meta.Raw = json.RawMessage(bytes.TrimSpace(out))
	return &meta, nil
}

// Start spawns a download for req writing to outputTemplate
func (y *YTDLP) Start(ctx context.Context, req domain.DownloadRequest, outputTemplate string) (*Process, error) {
	args := BuildArgs(req, outputTemplate)

	y.logger.Debug("Starting yt-dlp",
		zap.String("source", req.Source),
		zap.String("command", CommandLine(y.config.Binary, args...)))

	// yt-dlp is Python; without this progress arrives in bursts.
	return StartProcess(ctx, y.config.Binary, args, WithEnv("PYTHONUNBUFFERED=1", "PYTHONIOENCODING=UTF-8"))
}

func (y *YTDLP) probeTimeout() time.Duration {
	if y.config.ProbeTimeout <= 0 {
		return 5 * time.Second
	}
	return y.config.ProbeTimeout
}
