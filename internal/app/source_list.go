package app

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yourusername/ytwrap-go/internal/domain"
)

const commentMarker = "#"

// ReadSourceList reads a newline-delimited list of sources from path
func ReadSourceList(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &domain.SourceListError{Path: path, Err: err}
	}
	defer file.Close()

	sources, err := ParseSourceList(file)
	if err != nil {
		return nil, &domain.SourceListError{Path: path, Err: err}
	}
	return sources, nil
}

// ParseSourceList returns the non-blank, non-comment lines of r, trimmed
func ParseSourceList(r io.Reader) ([]string, error) {
	var sources []string

	scanner := bufio.NewScanner(r)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, commentMarker) {
			continue
		}
		sources = append(sources, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read source list: %w", err)
	}

	return sources, nil
}
