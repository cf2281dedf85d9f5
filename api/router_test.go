package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/ytwrap-go/internal/app"
	"github.com/yourusername/ytwrap-go/internal/domain"
	"github.com/yourusername/ytwrap-go/internal/infrastructure"
)

const fakeInfo = `
if [ "$1" = "--dump-single-json" ]; then
  case "$5" in
    *bad*) echo "ERROR: unsupported URL" >&2; exit 1;;
  esac
  echo '{"id":"abc","title":"Clip","extractor":"generic"}'
  exit 0
fi
exit 0`

func setupTestServer(t *testing.T) (http.Handler, *app.QueueManager) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes need a POSIX shell")
	}

	dir := t.TempDir()
	tool := filepath.Join(dir, "fake-yt-dlp")
	require.NoError(t, os.WriteFile(tool, []byte("#!/bin/sh\n"+fakeInfo+"\n"), 0755))

	repo, err := infrastructure.NewSQLiteDownloadRepository(filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	config := domain.DefaultConfig()
	config.Tool.Binary = tool
	config.Download.Dir = filepath.Join(dir, "downloads")
	config.Queue.CheckInterval = time.Hour

	log := zap.NewNop()
	delegate := app.NewDelegate(config, log, app.WithRepository(repo))
	queue := app.NewQueueManager(repo, delegate, &config.Queue, log)

	return SetupRouter(queue, delegate, &config.Download, log), queue
}

func doRequest(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestHealthAndReady(t *testing.T) {
	router, queue := setupTestServer(t)

	w := doRequest(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = doRequest(t, router, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	require.NoError(t, queue.Start(context.Background()))
	defer queue.Stop()

	w = doRequest(t, router, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAddAndGetDownload(t *testing.T) {
	router, _ := setupTestServer(t)

	w := doRequest(t, router, http.MethodPost, "/api/v1/downloads", map[string]interface{}{
		"url":           "https://example.com/a",
		"extract_audio": true,
		"audio_format":  "opus",
		"subtitles":     true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[domain.Download](t, w)
	assert.Equal(t, domain.StatusQueued, created.Status)

	req, err := created.DecodeRequest()
	require.NoError(t, err)
	assert.True(t, req.ExtractAudio)
	assert.Equal(t, "opus", req.AudioFormat)
	assert.Equal(t, []string{"zh", "en"}, req.SubtitleLanguages)
	assert.Equal(t, domain.QualityBest, req.Quality)

	w = doRequest(t, router, http.MethodGet, "/api/v1/downloads/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.ID, decode[domain.Download](t, w).ID)

	w = doRequest(t, router, http.MethodGet, "/api/v1/downloads/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddDownload_BadRequest(t *testing.T) {
	router, _ := setupTestServer(t)

	w := doRequest(t, router, http.MethodPost, "/api/v1/downloads", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, router, http.MethodPost, "/api/v1/downloads", map[string]interface{}{
		"url":         "https://example.com/a",
		"concurrency": 0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, router, http.MethodPost, "/api/v1/downloads", map[string]interface{}{
		"url": "--config-location=/tmp/evil.conf",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "must not start with")
}

func TestListAndStats(t *testing.T) {
	router, queue := setupTestServer(t)

	a, err := queue.AddDownload(domain.NewDownloadRequest("https://example.com/a"))
	require.NoError(t, err)
	_, err = queue.AddDownload(domain.NewDownloadRequest("https://example.com/b"))
	require.NoError(t, err)
	require.NoError(t, queue.CancelDownload(a.ID))

	w := doRequest(t, router, http.MethodGet, "/api/v1/downloads", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.Download](t, w), 2)

	w = doRequest(t, router, http.MethodGet, "/api/v1/downloads?status=cancelled", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cancelled := decode[[]domain.Download](t, w)
	require.Len(t, cancelled, 1)
	assert.Equal(t, a.ID, cancelled[0].ID)

	w = doRequest(t, router, http.MethodGet, "/api/v1/downloads?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, router, http.MethodGet, "/api/v1/downloads/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[domain.DownloadStats](t, w)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.Queued)
	assert.Equal(t, int64(1), stats.Cancelled)
}

func TestCancelRetryDelete(t *testing.T) {
	router, queue := setupTestServer(t)

	d, err := queue.AddDownload(domain.NewDownloadRequest("https://example.com/a"))
	require.NoError(t, err)

	w := doRequest(t, router, http.MethodPost, "/api/v1/downloads/"+d.ID+"/retry", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(t, router, http.MethodPost, "/api/v1/downloads/"+d.ID+"/cancel", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, http.MethodPost, "/api/v1/downloads/"+d.ID+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(t, router, http.MethodPost, "/api/v1/downloads/"+d.ID+"/retry", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, http.MethodDelete, "/api/v1/downloads/"+d.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, http.MethodDelete, "/api/v1/downloads/"+d.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetInfo(t *testing.T) {
	router, _ := setupTestServer(t)

	w := doRequest(t, router, http.MethodGet, "/api/v1/info?url=https://example.com/a", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	meta := decode[domain.Metadata](t, w)
	assert.Equal(t, "abc", meta.ID)
	assert.Equal(t, "Clip", meta.Title)

	w = doRequest(t, router, http.MethodGet, "/api/v1/info", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, router, http.MethodGet, "/api/v1/info?url=https://example.com/bad", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestNoRoute(t *testing.T) {
	router, _ := setupTestServer(t)

	w := doRequest(t, router, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
