package infrastructure

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DownloadLog appends raw tool output to a per-day log file
type DownloadLog struct {
	logsDir string
	now     func() time.Time
}

// NewDownloadLog creates a download log rooted at logsDir
func NewDownloadLog(logsDir string) *DownloadLog {
	return &DownloadLog{logsDir: logsDir, now: time.Now}
}

// Path returns today's log file path
func (l *DownloadLog) Path() string {
	return filepath.Join(l.logsDir, "download-"+l.now().Format("20060102")+".log")
}

// Open starts a section for one download and writes the header.
// The returned entry is an io.Writer for the tool's output.
func (l *DownloadLog) Open(downloadID, cmdLine string) (*DownloadLogEntry, error) {
	if err := os.MkdirAll(l.logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	file, err := os.OpenFile(l.Path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open download log: %w", err)
	}

	entry := &DownloadLogEntry{file: file, now: l.now}
	fmt.Fprintf(file, "\n=== [%s] Download: %s ===\n", l.now().Format("2006-01-02 15:04:05"), downloadID)
	fmt.Fprintf(file, "$ %s\n", cmdLine)
	return entry, nil
}

// DownloadLogEntry is one download's section of the log
type DownloadLogEntry struct {
	mu   sync.Mutex
	file *os.File
	now  func() time.Time
}

func (e *DownloadLogEntry) Write(p []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.file.Write(p)
}

// WriteLine writes one line of tool output
func (e *DownloadLogEntry) WriteLine(line string) {
	e.Write([]byte(line + "\n"))
}

// Close writes the footer and closes the file
func (e *DownloadLogEntry) Close(success bool, message string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	fmt.Fprintf(e.file, "[%s] %s: %s\n", e.now().Format("2006-01-02 15:04:05"), status, message)
	fmt.Fprint(e.file, "=== END ===\n\n")
	return e.file.Close()
}
