package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/ytwrap-go/internal/domain"
)

func TestParseSourceList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "comments and blanks",
			input: "https://example.com/a\n# comment\n\nhttps://example.com/b\n",
			want:  []string{"https://example.com/a", "https://example.com/b"},
		},
		{
			name:  "surrounding whitespace",
			input: "  https://example.com/a  \n\t# indented comment\n",
			want:  []string{"https://example.com/a"},
		},
		{
			name:  "crlf and bom",
			input: "\ufeffhttps://example.com/a\r\nhttps://example.com/b\r\n",
			want:  []string{"https://example.com/a", "https://example.com/b"},
		},
		{
			name:  "no trailing newline",
			input: "https://example.com/a",
			want:  []string{"https://example.com/a"},
		},
		{
			name:  "only comments",
			input: "# a\n\n   \n# b\n",
			want:  nil,
		},
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSourceList(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadSourceList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	require.NoError(t, os.WriteFile(path, []byte("https://example.com/a\n"), 0644))

	sources, err := ReadSourceList(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/a"}, sources)
}

func TestReadSourceList_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.txt")

	_, err := ReadSourceList(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSourceList)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), path)
}
