package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/ytwrap-go/internal/domain"
	"github.com/yourusername/ytwrap-go/internal/infrastructure"
)

// QueueManager feeds stored requests to the delegate one at a time
type QueueManager struct {
	repo     domain.DownloadRepository
	delegate *Delegate
	config   *domain.QueueConfig
	logger   *zap.Logger
	mu       sync.RWMutex
	running  bool
	stopChan chan struct{}
	wake     chan struct{}
	workerWg sync.WaitGroup
}

// NewQueueManager creates a new queue manager
func NewQueueManager(
	repo domain.DownloadRepository,
	delegate *Delegate,
	config *domain.QueueConfig,
	logger *zap.Logger,
) *QueueManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueManager{
		repo:     repo,
		delegate: delegate,
		config:   config,
		logger:   logger,
		stopChan: make(chan struct{}),
		wake:     make(chan struct{}, 1),
	}
}

// Start starts the single queue worker
func (qm *QueueManager) Start(ctx context.Context) error {
	qm.mu.Lock()
	if qm.running {
		qm.mu.Unlock()
		return fmt.Errorf("queue manager already running")
	}
	qm.running = true
	qm.mu.Unlock()

	qm.recoverInterrupted()
	qm.logger.Info("Queue started")

	qm.workerWg.Add(1)
	go qm.processQueue(ctx)

	return nil
}

// recoverInterrupted fails records a previous process left in processing.
// Nothing is running them anymore, and they would otherwise block new
// requests for the same source.
func (qm *QueueManager) recoverInterrupted() {
	stale, err := qm.repo.FindAll(map[string]interface{}{"status": domain.StatusProcessing})
	if err != nil {
		qm.logger.Error("Failed to look up interrupted downloads", zap.Error(err))
		return
	}
	for _, download := range stale {
		download.MarkFailed(-1, fmt.Errorf("%w: interrupted before completion", domain.ErrDownloadFailure))
		if err := qm.repo.Update(download); err != nil {
			qm.logger.Error("Failed to update interrupted download",
				zap.String("id", download.ID),
				zap.Error(err))
			continue
		}
		qm.logger.Warn("Marked interrupted download failed",
			zap.String("id", download.ID),
			zap.String("source", download.Source))
	}
}

// Stop stops the worker and waits for the current item to finish
func (qm *QueueManager) Stop() error {
	qm.mu.Lock()
	if !qm.running {
		qm.mu.Unlock()
		return fmt.Errorf("queue manager not running")
	}
	qm.running = false
	qm.mu.Unlock()

	close(qm.stopChan)
	qm.workerWg.Wait()
	qm.logger.Info("Queue stopped")

	return nil
}

// IsRunning returns whether the queue manager is running
func (qm *QueueManager) IsRunning() bool {
	qm.mu.RLock()
	defer qm.mu.RUnlock()
	return qm.running
}

// AddDownload validates and stores a request as queued
func (qm *QueueManager) AddDownload(req domain.DownloadRequest) (*domain.Download, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	if existing := qm.findActive(req.Source); existing != nil {
		qm.logger.Info("Download already queued",
			zap.String("id", existing.ID),
			zap.String("source", req.Source))
		return existing, nil
	}

	download := domain.NewDownload(req, "")
	if err := qm.repo.Create(download); err != nil {
		return nil, fmt.Errorf("failed to create download: %w", err)
	}

	qm.logger.Info("Download queued",
		zap.String("id", download.ID),
		zap.String("source", req.Source))
	qm.notify()

	return download, nil
}

// GetDownload retrieves a download by ID
func (qm *QueueManager) GetDownload(id string) (*domain.Download, error) {
	download, err := qm.repo.FindByID(id)
	if err != nil {
		if infrastructure.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load download %s: %w", id, err)
	}
	return download, nil
}

// ListDownloads lists all downloads with optional filters
func (qm *QueueManager) ListDownloads(filters map[string]interface{}) ([]*domain.Download, error) {
	return qm.repo.FindAll(filters)
}

// GetStats returns queue statistics
func (qm *QueueManager) GetStats() (*domain.DownloadStats, error) {
	return qm.repo.GetStats()
}

// CancelDownload cancels a queued download. Running downloads are left to finish.
func (qm *QueueManager) CancelDownload(id string) error {
	download, err := qm.GetDownload(id)
	if err != nil {
		return err
	}

	if download.Status != domain.StatusQueued {
		return fmt.Errorf("%w: only queued downloads can be cancelled, status is %s", domain.ErrInvalidState, download.Status)
	}

	download.MarkCancelled()
	if err := qm.repo.Update(download); err != nil {
		return fmt.Errorf("failed to update download: %w", err)
	}

	qm.logger.Info("Download cancelled", zap.String("id", id))
	return nil
}

// RetryDownload queues a failed or cancelled download again
func (qm *QueueManager) RetryDownload(id string) error {
	download, err := qm.GetDownload(id)
	if err != nil {
		return err
	}

	if !download.CanRetry() {
		return fmt.Errorf("%w: cannot retry a %s download", domain.ErrInvalidState, download.Status)
	}

	download.Requeue()
	if err := qm.repo.Update(download); err != nil {
		return fmt.Errorf("failed to update download: %w", err)
	}

	qm.logger.Info("Download queued for retry", zap.String("id", id))
	qm.notify()
	return nil
}

// DeleteDownload removes a download record that is not running
func (qm *QueueManager) DeleteDownload(id string) error {
	download, err := qm.GetDownload(id)
	if err != nil {
		return err
	}
	if download.Status == domain.StatusProcessing {
		return fmt.Errorf("%w: cannot delete a running download", domain.ErrInvalidState)
	}
	return qm.repo.Delete(id)
}

// findActive returns a queued or running record for source, if any
func (qm *QueueManager) findActive(source string) *domain.Download {
	downloads, err := qm.repo.FindAll(map[string]interface{}{"source": source})
	if err != nil {
		qm.logger.Warn("Failed to check for duplicate download", zap.Error(err))
		return nil
	}
	for _, d := range downloads {
		if d.Status == domain.StatusQueued || d.Status == domain.StatusProcessing {
			return d
		}
	}
	return nil
}

func (qm *QueueManager) notify() {
	select {
	case qm.wake <- struct{}{}:
	default:
	}
}

// processQueue runs pending downloads strictly one after another
func (qm *QueueManager) processQueue(ctx context.Context) {
	defer qm.workerWg.Done()

	ticker := time.NewTicker(qm.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			qm.logger.Info("Queue processor stopped", zap.String("reason", "context_cancelled"))
			return
		case <-qm.stopChan:
			qm.logger.Info("Queue processor stopped", zap.String("reason", "stop_signal"))
			return
		case <-ticker.C:
		case <-qm.wake:
		}

		qm.drain(ctx)
	}
}

// drain processes every pending download in order, re-checking between items
func (qm *QueueManager) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-qm.stopChan:
			return
		default:
		}

		pending, err := qm.repo.FindPending()
		if err != nil {
			qm.logger.Error("Failed to fetch pending downloads", zap.Error(err))
			return
		}
		if len(pending) == 0 {
			return
		}

		download := pending[0]
		qm.logger.Info("Download started",
			zap.String("id", download.ID),
			zap.String("source", download.Source))

		if err := qm.delegate.RunRecord(ctx, download, io.Discard); err != nil {
			qm.logger.Warn("Download failed",
				zap.String("id", download.ID),
				zap.Error(err))
		}

		// Written even when the delegate keeps its own history so the
		// record always leaves the queued state.
		if err := qm.repo.Update(download); err != nil {
			qm.logger.Error("Failed to update download", zap.String("id", download.ID), zap.Error(err))
			return
		}
	}
}
