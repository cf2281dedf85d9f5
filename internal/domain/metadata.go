package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Metadata is the subset of the tool's single-document JSON output we surface
type Metadata struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Uploader      string   `json:"uploader,omitempty"`
	UploaderID    string   `json:"uploader_id,omitempty"`
	Channel       string   `json:"channel,omitempty"`
	Duration      float64  `json:"duration,omitempty"`
	UploadDate    string   `json:"upload_date,omitempty"` // YYYYMMDD
	ViewCount     int64    `json:"view_count,omitempty"`
	WebpageURL    string   `json:"webpage_url,omitempty"`
	Extractor     string   `json:"extractor,omitempty"`
	Thumbnail     string   `json:"thumbnail,omitempty"`
	Ext           string   `json:"ext,omitempty"`
	Type          string   `json:"_type,omitempty"`
	PlaylistTitle string   `json:"playlist_title,omitempty"`
	PlaylistCount int      `json:"playlist_count,omitempty"`
	Formats       []Format `json:"formats,omitempty"`

	// Raw is the complete document as the tool printed it
	Raw json.RawMessage `json:"-"`
}

// Format is one downloadable rendition reported by the tool
type Format struct {
	FormatID   string  `json:"format_id"`
	Ext        string  `json:"ext"`
	Resolution string  `json:"resolution,omitempty"`
	FPS        float64 `json:"fps,omitempty"`
	VCodec     string  `json:"vcodec,omitempty"`
	ACodec     string  `json:"acodec,omitempty"`
	Filesize   int64   `json:"filesize,omitempty"`
	Note       string  `json:"format_note,omitempty"`
}

// IsPlaylist reports whether the document describes a playlist
func (m *Metadata) IsPlaylist() bool {
	return m.Type == "playlist"
}

// DurationValue returns the duration as a time.Duration
func (m *Metadata) DurationValue() time.Duration {
	return time.Duration(m.Duration * float64(time.Second))
}

// UploadTime parses UploadDate, returning the zero time when absent or malformed
func (m *Metadata) UploadTime() time.Time {
	t, err := time.Parse("20060102", m.UploadDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

// HumanSize formats a byte count for display
func HumanSize(n int64) string {
	if n <= 0 {
		return "-"
	}
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
