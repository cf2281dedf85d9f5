package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourusername/ytwrap-go/internal/domain"
	"github.com/yourusername/ytwrap-go/internal/infrastructure"
)

// Delegate hands video acquisition to the external downloader.
// Every call is independent; the only state is optional history.
type Delegate struct {
	config    *domain.Config
	tool      *infrastructure.YTDLP
	installer *infrastructure.Installer
	repo      domain.DownloadRepository
	notifier  *infrastructure.NotificationService
	dlLog     *infrastructure.DownloadLog
	logger    *zap.Logger
}

// DelegateOption configures optional collaborators
type DelegateOption func(*Delegate)

// WithRepository records every download in repo
func WithRepository(repo domain.DownloadRepository) DelegateOption {
	return func(d *Delegate) { d.repo = repo }
}

// WithNotifier sends desktop notifications on completion
func WithNotifier(n *infrastructure.NotificationService) DelegateOption {
	return func(d *Delegate) { d.notifier = n }
}

// WithDownloadLog appends raw tool output to the download log
func WithDownloadLog(l *infrastructure.DownloadLog) DelegateOption {
	return func(d *Delegate) { d.dlLog = l }
}

// WithInstaller overrides the package manager installer
func WithInstaller(i *infrastructure.Installer) DelegateOption {
	return func(d *Delegate) { d.installer = i }
}

// NewDelegate creates a delegate around the configured tool
func NewDelegate(config *domain.Config, logger *zap.Logger, opts ...DelegateOption) *Delegate {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Delegate{
		config: config,
		tool:   infrastructure.NewYTDLP(&config.Tool, logger),
		logger: logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.installer == nil {
		d.installer = infrastructure.NewInstaller(logger)
	}
	return d
}

// BatchResult summarises a batch run
type BatchResult struct {
	BatchID   string `json:"batch_id"`
	Total     int    `json:"total"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Cancelled bool   `json:"cancelled"`
}

// OK reports whether at least one item succeeded
func (r BatchResult) OK() bool {
	return r.Succeeded >= 1
}

// ResolveOutputDirectory returns the download directory, creating it if needed
func (d *Delegate) ResolveOutputDirectory() (string, error) {
	dir := d.config.Download.Dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		dir = filepath.Join(home, "Downloads")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}
	return dir, nil
}

// CheckToolAvailable reports whether the downloader answers its version probe
func (d *Delegate) CheckToolAvailable(ctx context.Context) bool {
	return d.tool.Available(ctx)
}

// EnsureToolInstalled installs the downloader when it is missing.
// Returns an error wrapping domain.ErrToolUnavailable when that fails.
func (d *Delegate) EnsureToolInstalled(ctx context.Context) error {
	if d.tool.Available(ctx) {
		return nil
	}
	if !d.config.Tool.AutoInstall {
		return fmt.Errorf("%w: %s not found and auto-install is disabled", domain.ErrToolUnavailable, d.tool.Binary())
	}

	d.logger.Warn("yt-dlp not available, attempting install", zap.String("binary", d.tool.Binary()))
	return d.installer.Install(ctx, d.tool.Available)
}

// FetchMetadata queries the downloader for a description of source
func (d *Delegate) FetchMetadata(ctx context.Context, source string) (*domain.Metadata, error) {
	meta, err := d.tool.FetchMetadata(ctx, source)
	if err != nil {
		d.logger.Warn("Metadata query failed", zap.String("source", source), zap.Error(err))
		return nil, err
	}
	return meta, nil
}

// Download runs one request, streaming tool output to sink, and reports success.
// Failures are logged, never propagated.
func (d *Delegate) Download(ctx context.Context, req domain.DownloadRequest, sink io.Writer) bool {
	err := d.DownloadErr(ctx, req, sink)
	d.notifier.NotifyDownloadFinished(req.Source, err == nil)
	return err == nil
}

// DownloadErr is Download returning the failure reason
func (d *Delegate) DownloadErr(ctx context.Context, req domain.DownloadRequest, sink io.Writer) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	record := domain.NewDownload(req, "")
	d.create(record)
	return d.execute(ctx, req, record, sink)
}

// RunRecord executes a stored queued record
func (d *Delegate) RunRecord(ctx context.Context, record *domain.Download, sink io.Writer) error {
	req, err := record.DecodeRequest()
	if err == nil {
		err = req.Validate()
	}
	if err != nil {
		record.MarkFailed(-1, fmt.Errorf("invalid stored request: %w", err))
		d.save(record)
		return err
	}
	return d.execute(ctx, req, record, sink)
}

// BatchDownload downloads every source listed in listPath, one after another,
// using template for all other options.
func (d *Delegate) BatchDownload(ctx context.Context, listPath string, template domain.DownloadRequest, sink io.Writer) (BatchResult, error) {
	result := BatchResult{BatchID: uuid.New().String()}

	sources, err := ReadSourceList(listPath)
	if err != nil {
		d.logger.Error("Failed to read source list", zap.String("path", listPath), zap.Error(err))
		return result, err
	}

	log := d.logger.With(zap.String("batch_id", result.BatchID))
	if len(sources) == 0 {
		log.Warn("Source list has no entries", zap.String("path", listPath))
		return result, nil
	}
	log.Info("Starting batch", zap.String("path", listPath), zap.Int("total", len(sources)))

	for i, source := range sources {
		if ctx.Err() != nil {
			result.Cancelled = true
			break
		}

		req := template.WithSource(source)
		log.Info("Batch item",
			zap.Int("index", i+1),
			zap.Int("total", len(sources)),
			zap.String("source", source))

		err := req.Validate()
		if err == nil {
			record := domain.NewDownload(req, result.BatchID)
			d.create(record)
			err = d.execute(ctx, req, record, sink)
		}
		result.Total++

		if err == nil {
			result.Succeeded++
			continue
		}
		result.Failed++
		log.Warn("Batch item failed", zap.String("source", source), zap.Error(err))
		if errors.Is(err, domain.ErrCancelled) {
			result.Cancelled = true
			break
		}
	}

	log.Info("Batch finished",
		zap.Int("total", result.Total),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
		zap.Bool("cancelled", result.Cancelled))
	d.notifier.NotifyBatchFinished(result.Succeeded, result.Total)

	return result, nil
}

// execute runs the tool for req and keeps record in step with the outcome
func (d *Delegate) execute(ctx context.Context, req domain.DownloadRequest, record *domain.Download, sink io.Writer) error {
	if sink == nil {
		sink = io.Discard
	}
	log := d.logger.With(zap.String("id", record.ID), zap.String("source", req.Source))

	tpl := req.OutputTemplate
	if tpl == "" {
		dir, err := d.ResolveOutputDirectory()
		if err != nil {
			record.MarkFailed(-1, err)
			d.save(record)
			return err
		}
		tpl = infrastructure.OutputTemplate(dir, req.Playlist)
	}

	record.MarkProcessing()
	d.save(record)

	cmdLine := infrastructure.CommandLine(d.tool.Binary(), infrastructure.BuildArgs(req, tpl)...)
	entry := d.openLog(record.ID, cmdLine)

	log.Info("Starting download", zap.String("output", tpl))

	proc, err := d.tool.Start(ctx, req, tpl)
	if err != nil {
		err = fmt.Errorf("%w: %v", domain.ErrDownloadFailure, err)
		record.MarkFailed(-1, err)
		d.save(record)
		closeLog(entry, false, err.Error())
		log.Error("Failed to start downloader", zap.Error(err))
		return err
	}
	defer proc.Abandon()

	lines := proc.Lines()
	for lines != nil {
		select {
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			fmt.Fprintln(sink, line)
			if entry != nil {
				entry.WriteLine(line)
			}
		case <-ctx.Done():
			// Partial files stay where the tool left them.
			record.MarkCancelled()
			d.save(record)
			closeLog(entry, false, "cancelled")
			log.Warn("Download cancelled", zap.Int("pid", proc.Pid()))
			return domain.ErrCancelled
		}
	}

	code, err := proc.WaitContext(ctx)
	switch {
	case err != nil && ctx.Err() != nil:
		record.MarkCancelled()
		d.save(record)
		closeLog(entry, false, "cancelled")
		log.Warn("Download cancelled", zap.Int("pid", proc.Pid()))
		return domain.ErrCancelled
	case err != nil:
		err = fmt.Errorf("%w: %v", domain.ErrDownloadFailure, err)
		record.MarkFailed(code, err)
		d.save(record)
		closeLog(entry, false, err.Error())
		log.Error("Failed to wait for downloader", zap.Error(err))
		return err
	case code != 0:
		dlErr := &domain.DownloadError{Source: req.Source, ExitCode: code}
		record.MarkFailed(code, dlErr)
		d.save(record)
		closeLog(entry, false, dlErr.Error())
		log.Warn("Download failed", zap.Int("exit_code", code))
		return dlErr
	}

	record.MarkCompleted()
	d.save(record)
	closeLog(entry, true, "exit status 0")
	log.Info("Download completed")
	return nil
}

func (d *Delegate) openLog(id, cmdLine string) *infrastructure.DownloadLogEntry {
	if d.dlLog == nil {
		return nil
	}
	entry, err := d.dlLog.Open(id, cmdLine)
	if err != nil {
		d.logger.Warn("Failed to open download log", zap.Error(err))
		return nil
	}
	return entry
}

func closeLog(entry *infrastructure.DownloadLogEntry, success bool, msg string) {
	if entry != nil {
		entry.Close(success, msg)
	}
}

func (d *Delegate) create(record *domain.Download) {
	if d.repo == nil {
		return
	}
	if err := d.repo.Create(record); err != nil {
		d.logger.Warn("Failed to record download", zap.String("id", record.ID), zap.Error(err))
	}
}

func (d *Delegate) save(record *domain.Download) {
	if d.repo == nil {
		return
	}
	if err := d.repo.Update(record); err != nil {
		d.logger.Warn("Failed to update download record", zap.String("id", record.ID), zap.Error(err))
	}
}
