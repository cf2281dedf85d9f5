package app

import (
	"sort"
	"sync"

	"gorm.io/gorm"

	"github.com/yourusername/ytwrap-go/internal/domain"
)

// mockRepo implements domain.DownloadRepository in memory
type mockRepo struct {
	mu        sync.Mutex
	downloads []*domain.Download
	updates   int
}

func newMockRepo() *mockRepo {
	return &mockRepo{downloads: make([]*domain.Download, 0)}
}

func (m *mockRepo) Create(download *domain.Download) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *download
	m.downloads = append(m.downloads, &cp)
	return nil
}

func (m *mockRepo) Update(download *domain.Download) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	for i, d := range m.downloads {
		if d.ID == download.ID {
			cp := *download
			m.downloads[i] = &cp
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockRepo) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, d := range m.downloads {
		if d.ID == id {
			m.downloads = append(m.downloads[:i], m.downloads[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockRepo) FindByID(id string) (*domain.Download, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.downloads {
		if d.ID == id {
			cp := *d
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRepo) FindPending() ([]*domain.Download, error) {
	return m.filter(func(d *domain.Download) bool { return d.Status == domain.StatusQueued }), nil
}

func (m *mockRepo) FindByBatch(batchID string) ([]*domain.Download, error) {
	return m.filter(func(d *domain.Download) bool { return d.BatchID == batchID }), nil
}

func (m *mockRepo) FindAll(filters map[string]interface{}) ([]*domain.Download, error) {
	return m.filter(func(d *domain.Download) bool {
		for key, value := range filters {
			switch key {
			case "status":
				if string(d.Status) != toString(value) {
					return false
				}
			case "batch_id":
				if d.BatchID != toString(value) {
					return false
				}
			case "source":
				if d.Source != toString(value) {
					return false
				}
			}
		}
		return true
	}), nil
}

func (m *mockRepo) Count() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.downloads)), nil
}

func (m *mockRepo) CountByStatus(status domain.DownloadStatus) (int64, error) {
	return int64(len(m.filter(func(d *domain.Download) bool { return d.Status == status }))), nil
}

func (m *mockRepo) GetStats() (*domain.DownloadStats, error) {
	stats := &domain.DownloadStats{}
	for _, d := range m.filter(func(*domain.Download) bool { return true }) {
		stats.Total++
		switch d.Status {
		case domain.StatusQueued:
			stats.Queued++
		case domain.StatusProcessing:
			stats.Processing++
		case domain.StatusCompleted:
			stats.Completed++
		case domain.StatusFailed:
			stats.Failed++
		case domain.StatusCancelled:
			stats.Cancelled++
		}
	}
	return stats, nil
}

func (m *mockRepo) filter(keep func(*domain.Download) bool) []*domain.Download {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Download
	for _, d := range m.downloads {
		if keep(d) {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *mockRepo) statuses() []domain.DownloadStatus {
	var out []domain.DownloadStatus
	for _, d := range m.filter(func(*domain.Download) bool { return true }) {
		out = append(out, d.Status)
	}
	return out
}

func toString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case domain.DownloadStatus:
		return string(s)
	}
	return ""
}
