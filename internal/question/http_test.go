package question

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type stubStatusStore struct {
	variants map[string]int
	err      error
}

func (s *stubStatusStore) Variants(_ context.Context, subject string) (map[string]int, error) {
	return s.variants, s.err
}

type stubPoolCounter struct {
	count int
	err   error
}

func (s *stubPoolCounter) CountBySubject(_ context.Context, subject string) (int, error) {
	return s.count, s.err
}

func newTestHandler(t *testing.T, backend *stubBackend) *HTTPHandler {
	t.Helper()
	svc := newTestService(t, backend, &stubTargeted{}, &stubBulk{}, newMemOffline())
	worker := NewPrefetchWorker(svc, nil, time.Millisecond, zerolog.New(io.Discard))
	status := &stubStatusStore{variants: map[string]int{"offline": 12, "2019": 40}}
	pool := &stubPoolCounter{count: 150}
	return NewHTTPHandler(svc, worker, status, pool, nil, zerolog.New(io.Discard), HTTPHandlerOptions{
		DefaultCount: 10,
		MaxCount:     50,
	})
}

func TestHandleResolve(t *testing.T) {
	handler := newTestHandler(t, &stubBackend{records: rawBatch("b", 10)})

	rec := httptest.NewRecorder()
	handler.HandleResolve(rec, httptest.NewRequest(http.MethodGet, "/v1/questions?subject=mathematics&count=5", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp resolveResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "mathematics", resp.Subject)
	assert.Equal(t, 5, resp.Count)
	assert.Len(t, resp.Questions, 5)
}

func TestHandleResolveRequiresSubject(t *testing.T) {
	handler := newTestHandler(t, &stubBackend{})

	rec := httptest.NewRecorder()
	handler.HandleResolve(rec, httptest.NewRequest(http.MethodGet, "/v1/questions", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleResolveRejectsBadCount(t *testing.T) {
	handler := newTestHandler(t, &stubBackend{})

	rec := httptest.NewRecorder()
	handler.HandleResolve(rec, httptest.NewRequest(http.MethodGet, "/v1/questions?subject=english&count=-3", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleResolveCapsCountAtMax(t *testing.T) {
	handler := newTestHandler(t, &stubBackend{records: rawBatch("b", 80)})

	rec := httptest.NewRecorder()
	handler.HandleResolve(rec, httptest.NewRequest(http.MethodGet, "/v1/questions?subject=mathematics&count=500", nil))

	var resp resolveResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 50, resp.Count, "count is clamped to the configured maximum")
}

func TestHandleResolveDegradesToEmptyList(t *testing.T) {
	handler := newTestHandler(t, &stubBackend{})

	rec := httptest.NewRecorder()
	handler.HandleResolve(rec, httptest.NewRequest(http.MethodGet, "/v1/questions?subject=underwater-basket-weaving", nil))

	assert.Equal(t, http.StatusOK, rec.Code, "source exhaustion is not a server error")
	var resp resolveResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)
}

func TestHandleOfflineStatus(t *testing.T) {
	handler := newTestHandler(t, &stubBackend{})

	rec := httptest.NewRecorder()
	handler.HandleOfflineStatus(rec, httptest.NewRequest(http.MethodGet, "/v1/offline/status?subject=mathematics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp offlineStatusResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 12, resp.Variants["offline"])
	assert.Equal(t, 40, resp.Variants["2019"])
	assert.Equal(t, 150, resp.Pool)
}

func TestHandleOfflineStatusDegradesOnPoolFailure(t *testing.T) {
	svc := newTestService(t, &stubBackend{}, &stubTargeted{}, &stubBulk{}, newMemOffline())
	worker := NewPrefetchWorker(svc, nil, time.Millisecond, zerolog.New(io.Discard))
	status := &stubStatusStore{variants: map[string]int{"offline": 7}}
	pool := &stubPoolCounter{err: errors.New("db down")}
	handler := NewHTTPHandler(svc, worker, status, pool, nil, zerolog.New(io.Discard), HTTPHandlerOptions{})

	rec := httptest.NewRecorder()
	handler.HandleOfflineStatus(rec, httptest.NewRequest(http.MethodGet, "/v1/offline/status?subject=mathematics", nil))

	assert.Equal(t, http.StatusOK, rec.Code, "pool unavailability must not fail the status read")
	var resp offlineStatusResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 7, resp.Variants["offline"])
	assert.Equal(t, 0, resp.Pool)
}

func TestHandleOfflineDownloadQueuesAndRefusesOverlap(t *testing.T) {
	handler := newTestHandler(t, &stubBackend{})
	body := `{"subjects":["mathematics","english"],"count":20}`

	rec := httptest.NewRecorder()
	handler.HandleOfflineDownload(rec, httptest.NewRequest(http.MethodPost, "/v1/offline/download", strings.NewReader(body)))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	// No worker loop is draining; a second submit collides.
	rec = httptest.NewRecorder()
	handler.HandleOfflineDownload(rec, httptest.NewRequest(http.MethodPost, "/v1/offline/download", strings.NewReader(body)))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleOfflineDownloadRejectsGet(t *testing.T) {
	handler := newTestHandler(t, &stubBackend{})

	rec := httptest.NewRecorder()
	handler.HandleOfflineDownload(rec, httptest.NewRequest(http.MethodGet, "/v1/offline/download", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
