package question

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	httperrors "github.com/prepdesk/exam-platform/pkg/http/errors"
	"github.com/prepdesk/exam-platform/pkg/http/ws"
)

// OfflineTopic is the hub topic carrying bulk-download progress events.
const OfflineTopic = "offline"

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict origins once the web client's domains are fixed
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// OfflineStatusStore reports stored offline counts per variant.
type OfflineStatusStore interface {
	Variants(ctx context.Context, subject string) (map[string]int, error)
}

// PoolCounter reports the curated backend pool size for a subject.
type PoolCounter interface {
	CountBySubject(ctx context.Context, subject string) (int, error)
}

// HTTPHandler exposes the resolver and offline flows over REST + WebSocket.
type HTTPHandler struct {
	service      *Service
	worker       *PrefetchWorker
	status       OfflineStatusStore
	pool         PoolCounter
	hub          *ws.Hub
	logger       zerolog.Logger
	defaultCount int
	maxCount     int
	subjects     []string
	prefetchN    int
}

type HTTPHandlerOptions struct {
	DefaultCount    int
	MaxCount        int
	DefaultSubjects []string
	PrefetchCount   int
}

func NewHTTPHandler(service *Service, worker *PrefetchWorker, status OfflineStatusStore, pool PoolCounter, hub *ws.Hub, logger zerolog.Logger, opts HTTPHandlerOptions) *HTTPHandler {
	if opts.DefaultCount <= 0 {
		opts.DefaultCount = 40
	}
	if opts.MaxCount <= 0 {
		opts.MaxCount = 100
	}
	if opts.PrefetchCount <= 0 {
		opts.PrefetchCount = 60
	}
	return &HTTPHandler{
		service:      service,
		worker:       worker,
		status:       status,
		pool:         pool,
		hub:          hub,
		logger:       logger,
		defaultCount: opts.DefaultCount,
		maxCount:     opts.MaxCount,
		subjects:     opts.DefaultSubjects,
		prefetchN:    opts.PrefetchCount,
	}
}

type resolveResponse struct {
	Subject   string     `json:"subject"`
	Count     int        `json:"count"`
	Questions []Question `json:"questions"`
}

// HandleResolve serves GET /v1/questions?subject=S&count=N[&year=Y].
// Source failures never surface as 5xx; the response degrades to whatever
// the resolver could gather, possibly an empty list.
func (h *HTTPHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	subject := r.URL.Query().Get("subject")
	if subject == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeMissingSubject, "subject query parameter is required")
		return
	}

	count := h.defaultCount
	if rawCount := r.URL.Query().Get("count"); rawCount != "" {
		parsed, err := strconv.Atoi(rawCount)
		if err != nil || parsed <= 0 {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidCount, "count must be a positive integer")
			return
		}
		count = parsed
	}
	if count > h.maxCount {
		count = h.maxCount
	}

	questions := h.service.Resolve(r.Context(), ResolveRequest{
		Subject: subject,
		Count:   count,
		Year:    r.URL.Query().Get("year"),
	})

	writeJSON(w, http.StatusOK, resolveResponse{
		Subject:   subject,
		Count:     len(questions),
		Questions: questions,
	})
}

type offlineStatusResponse struct {
	Subject  string         `json:"subject"`
	Variants map[string]int `json:"variants"`
	Pool     int            `json:"pool"`
}

// HandleOfflineStatus serves GET /v1/offline/status?subject=S, reporting the
// stored offline variants plus the curated backend pool size. A pool read
// failure degrades to zero; the offline counts are the operative signal.
func (h *HTTPHandler) HandleOfflineStatus(w http.ResponseWriter, r *http.Request) {
	subject := r.URL.Query().Get("subject")
	if subject == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeMissingSubject, "subject query parameter is required")
		return
	}

	variants, err := h.status.Variants(r.Context(), subject)
	if err != nil {
		h.logger.Warn().Err(err).Str("subject", subject).Msg("offline status read failed")
		httperrors.RespondError(w, http.StatusServiceUnavailable, httperrors.ErrCodeOfflineUnavailable, "offline store unavailable")
		return
	}

	poolSize := 0
	if h.pool != nil {
		if n, err := h.pool.CountBySubject(r.Context(), subject); err != nil {
			h.logger.Warn().Err(err).Str("subject", subject).Msg("pool count failed")
		} else {
			poolSize = n
		}
	}

	writeJSON(w, http.StatusOK, offlineStatusResponse{Subject: subject, Variants: variants, Pool: poolSize})
}

type downloadRequest struct {
	Subjects []string `json:"subjects"`
	Count    int      `json:"count"`
}

// HandleOfflineDownload serves POST /v1/offline/download (admin only,
// enforced by middleware at the route). Empty body fields fall back to the
// configured defaults.
func (h *HTTPHandler) HandleOfflineDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "POST required")
		return
	}

	var req downloadRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidPayload, "malformed request body")
			return
		}
	}
	if len(req.Subjects) == 0 {
		req.Subjects = h.subjects
	}
	if req.Count <= 0 {
		req.Count = h.prefetchN
	}

	if err := h.worker.Enqueue(DownloadJob{Subjects: req.Subjects, Count: req.Count}); err != nil {
		httperrors.RespondConflict(w, httperrors.ErrCodeDownloadBusy, "a download run is already in progress")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"subjects": req.Subjects,
		"count":    req.Count,
		"status":   "queued",
	})
}

// HandleOfflineWS upgrades the connection and streams download progress
// until the client disconnects.
func (h *HTTPHandler) HandleOfflineWS(w http.ResponseWriter, r *http.Request) {
	raw, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("ws upgrade failed")
		return
	}

	conn := ws.NewConnection(raw)
	h.hub.Subscribe(OfflineTopic, conn)
	defer h.hub.Unsubscribe(OfflineTopic, conn)

	for {
		msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msg.Type == ws.TypePing {
			_ = conn.Send(ws.Message{Type: ws.TypePong})
		}
	}
}

// HubNotifier forwards prefetch progress onto the WebSocket hub.
type HubNotifier struct {
	hub *ws.Hub
}

var _ ProgressNotifier = (*HubNotifier)(nil)

func NewHubNotifier(hub *ws.Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) DownloadProgress(subject string, completed, total, stored int, failed bool) {
	n.hub.Broadcast(OfflineTopic, ws.NewMessage(ws.TypeOfflineProgress, ws.OfflineProgressPayload{
		Subject:   subject,
		Completed: completed,
		Total:     total,
		Stored:    stored,
		Failed:    failed,
	}))
}

func (n *HubNotifier) DownloadComplete(succeeded, failed int) {
	n.hub.Broadcast(OfflineTopic, ws.NewMessage(ws.TypeOfflineComplete, ws.OfflineCompletePayload{
		Succeeded: succeeded,
		Failed:    failed,
	}))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
