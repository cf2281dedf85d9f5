package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteArg(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain path", "/tmp/simple/path", "/tmp/simple/path"},
		{"empty", "", "''"},
		{"spaces", "/tmp/path with spaces", "'/tmp/path with spaces'"},
		{"output template", "%(title)s.%(ext)s", "'%(title)s.%(ext)s'"},
		{"format selector", "bv*[height<=720]+ba", "'bv*[height<=720]+ba'"},
		{"single quote", "/tmp/it's a test", `'/tmp/it'"'"'s a test'`},
		{"dollar", "$HOME", "'$HOME'"},
		{"url with query", "https://example.com/watch?v=1&t=2", "'https://example.com/watch?v=1&t=2'"},
		{"safe punctuation", "en,zh-Hans:@=+", "en,zh-Hans:@=+"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, QuoteArg(tt.input))
		})
	}
}

func TestCommandLine(t *testing.T) {
	tests := []struct {
		name     string
		binary   string
		args     []string
		expected string
	}{
		{
			name:     "version probe",
			binary:   "yt-dlp",
			args:     []string{"--version"},
			expected: "yt-dlp --version",
		},
		{
			name:     "download",
			binary:   "yt-dlp",
			args:     []string{"-o", "/home/me/Downloads/%(title)s.%(ext)s", "--no-playlist", "https://example.com/a"},
			expected: "yt-dlp -o '/home/me/Downloads/%(title)s.%(ext)s' --no-playlist https://example.com/a",
		},
		{
			name:     "binary with space",
			binary:   "/opt/my tools/yt-dlp",
			args:     nil,
			expected: "'/opt/my tools/yt-dlp'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CommandLine(tt.binary, tt.args...))
		})
	}
}
