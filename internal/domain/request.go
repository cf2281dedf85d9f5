package domain

import (
	"fmt"
	"strings"
)

const (
	// QualityBest is the selector that leaves format choice to the tool
	QualityBest = "best"

	DefaultAudioFormat = "mp3"
	DefaultConcurrency = 1

	// ToolRetries is forwarded to the tool as --retries
	ToolRetries = 3
)

// DefaultSubtitleLanguages returns the default subtitle language list
func DefaultSubtitleLanguages() []string {
	return []string{"zh", "en"}
}

// DownloadRequest describes one invocation of the external downloader.
// Values are immutable once built; the With* methods return modified copies.
type DownloadRequest struct {
	Source            string   `json:"source"`
	OutputTemplate    string   `json:"output_template,omitempty"`
	Quality           string   `json:"quality"`
	ExtractAudio      bool     `json:"extract_audio"`
	AudioFormat       string   `json:"audio_format"`
	Subtitles         bool     `json:"subtitles"`
	SubtitleLanguages []string `json:"subtitle_languages,omitempty"`
	Playlist          bool     `json:"playlist"`
	Concurrency       int      `json:"concurrency"`
}

// RequestOption configures a DownloadRequest
type RequestOption func(*DownloadRequest)

// NewDownloadRequest creates a request with documented defaults applied
func NewDownloadRequest(source string, opts ...RequestOption) DownloadRequest {
	req := DownloadRequest{
		Source:            source,
		Quality:           QualityBest,
		AudioFormat:       DefaultAudioFormat,
		SubtitleLanguages: DefaultSubtitleLanguages(),
		Concurrency:       DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}

// WithOutputTemplate sets an explicit output path template
func WithOutputTemplate(tpl string) RequestOption {
	return func(r *DownloadRequest) { r.OutputTemplate = tpl }
}

// WithQuality sets the format selector. Empty means best.
func WithQuality(q string) RequestOption {
	return func(r *DownloadRequest) {
		if q == "" {
			q = QualityBest
		}
		r.Quality = q
	}
}

// WithAudio enables audio extraction into the given container
func WithAudio(format string) RequestOption {
	return func(r *DownloadRequest) {
		r.ExtractAudio = true
		if format != "" {
			r.AudioFormat = format
		}
	}
}

// WithSubtitles enables subtitles for the given languages
func WithSubtitles(langs ...string) RequestOption {
	return func(r *DownloadRequest) {
		r.Subtitles = true
		if len(langs) > 0 {
			r.SubtitleLanguages = append([]string(nil), langs...)
		}
	}
}

// WithPlaylist marks the source as a playlist
func WithPlaylist(playlist bool) RequestOption {
	return func(r *DownloadRequest) { r.Playlist = playlist }
}

// WithConcurrency sets the segment concurrency hint passed to the tool
func WithConcurrency(n int) RequestOption {
	return func(r *DownloadRequest) { r.Concurrency = n }
}

// WithSource returns a copy of the request pointing at another source
func (r DownloadRequest) WithSource(source string) DownloadRequest {
	r.SubtitleLanguages = append([]string(nil), r.SubtitleLanguages...)
	r.Source = source
	return r
}

// Validate checks the request can be turned into a command line
func (r DownloadRequest) Validate() error {
	if strings.TrimSpace(r.Source) == "" {
		return fmt.Errorf("source is required")
	}
	if strings.HasPrefix(strings.TrimSpace(r.Source), "-") {
		return fmt.Errorf("source must not start with '-': %q", r.Source)
	}
	if r.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", r.Concurrency)
	}
	if r.ExtractAudio && r.AudioFormat == "" {
		return fmt.Errorf("audio format is required when extracting audio")
	}
	if r.Subtitles && len(r.SubtitleLanguages) == 0 {
		return fmt.Errorf("at least one subtitle language is required")
	}
	return nil
}

// ParseLanguages splits a comma separated language list, dropping empty items
func ParseLanguages(s string) []string {
	var langs []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			langs = append(langs, part)
		}
	}
	return langs
}
