package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/voicepaper/voicepaper/internal/core/domain"
	"github.com/voicepaper/voicepaper/internal/core/ports"
	"github.com/voicepaper/voicepaper/internal/observability/metrics"
	"github.com/voicepaper/voicepaper/internal/speech/playback"
)

// PlaybackController is the slice of the playback engine the HTTP
// surface drives.
type PlaybackController interface {
	Play(text string, p playback.Params) error
	Pause()
	Resume()
	Stop()
	SkipToStart() error
	State() playback.State
	UnitIndex() int
	UnitCount() int
	Cursor() int
	SetRate(rate float64)
	SetPitch(pitch float64)
	SetVoice(voiceID string)
	SetLanguage(tag string)
}

// RecognitionController is the slice of the voice recognizer the HTTP
// surface drives.
type RecognitionController interface {
	Start() error
	Stop()
	Toggle() error
	SetLanguage(tag string) error
	Listening() bool
	Interim() string
	Err() string
	Language() string
	Descriptions() []string
}

type Options struct {
	Service          string
	RateLimitRPS     int
	RateLimitBurst   int
	MaxConcurrent    int
	BackpressureWait time.Duration
}

type Router struct {
	ingest      ports.DocumentIngestor
	library     ports.DocumentLibrary
	summary     ports.SummaryService
	news        ports.NewsService
	proxy       ports.NewsProxy
	playback    PlaybackController
	recognition RecognitionController
	metrics     *metrics.HTTPServerMetrics
	opts        Options
}

func NewRouter(
	ingest ports.DocumentIngestor,
	library ports.DocumentLibrary,
	summary ports.SummaryService,
	news ports.NewsService,
	proxy ports.NewsProxy,
	playbackCtl PlaybackController,
	recognitionCtl RecognitionController,
	serverMetrics *metrics.HTTPServerMetrics,
	opts Options,
) *Router {
	if opts.Service == "" {
		opts.Service = "api"
	}
	return &Router{
		ingest:      ingest,
		library:     library,
		summary:     summary,
		news:        news,
		proxy:       proxy,
		playback:    playbackCtl,
		recognition: recognitionCtl,
		metrics:     serverMetrics,
		opts:        opts,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.documents)
	mux.HandleFunc("/v1/documents/", rt.documentByID)
	mux.HandleFunc("/v1/summarize", rt.summarize)
	mux.HandleFunc("/v1/news", rt.trendingNews)
	mux.HandleFunc("/v1/news/categories", rt.newsCategories)
	mux.HandleFunc("/api/fetch-news", rt.proxyNews)

	mux.HandleFunc("/v1/playback/play", rt.playbackPlay)
	mux.HandleFunc("/v1/playback/pause", rt.playbackCommand("pause", func() { rt.playback.Pause() }))
	mux.HandleFunc("/v1/playback/resume", rt.playbackCommand("resume", func() { rt.playback.Resume() }))
	mux.HandleFunc("/v1/playback/stop", rt.playbackCommand("stop", func() { rt.playback.Stop() }))
	mux.HandleFunc("/v1/playback/restart", rt.playbackRestart)
	mux.HandleFunc("/v1/playback/settings", rt.playbackSettings)
	mux.HandleFunc("/v1/playback/status", rt.playbackStatus)

	mux.HandleFunc("/v1/recognition/start", rt.recognitionStart)
	mux.HandleFunc("/v1/recognition/stop", rt.recognitionStop)
	mux.HandleFunc("/v1/recognition/toggle", rt.recognitionToggle)
	mux.HandleFunc("/v1/recognition/language", rt.recognitionLanguage)
	mux.HandleFunc("/v1/recognition/status", rt.recognitionStatus)

	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.opts.MaxConcurrent, rt.opts.BackpressureWait)
	handler = rateLimitMiddleware(handler, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.opts.Service, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) documents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.uploadDocument(w, r)
	case http.MethodGet:
		rt.listDocuments(w, r)
	default:
		writeMethodNotAllowed(w)
	}
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.ingest.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		fileHeader.Size,
		file,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordUploadSize(rt.opts.Service, fileHeader.Size)
	}
	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	refs, err := rt.library.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": refs})
}

func (rt *Router) documentByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		doc, err := rt.library.GetByID(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	case http.MethodDelete:
		if err := rt.library.Delete(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeMethodNotAllowed(w)
	}
}

func (rt *Router) summarize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	start := time.Now()
	summary, err := rt.summary.Summarize(r.Context(), req.Text)
	if rt.metrics != nil {
		rt.metrics.RecordSummaryRequest(rt.opts.Service, time.Since(start), err)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

func (rt *Router) trendingNews(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	category := r.URL.Query().Get("category")
	articles, err := rt.news.TrendingArticles(r.Context(), category)
	if rt.metrics != nil {
		rt.metrics.RecordNewsRequest(rt.opts.Service, category, err)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"category": categoryOrAll(category),
		"articles": articles,
	})
}

func (rt *Router) newsCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": domain.NewsCategories})
}

// proxyNews mirrors the legacy /api/fetch-news contract: the upstream
// body passes through untouched, and any failure collapses to one
// fixed 500 message.
func (rt *Router) proxyNews(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req struct {
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	raw, err := rt.proxy.FetchRaw(r.Context(), req.Category)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Error fetching news"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (rt *Router) playbackPlay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req struct {
		DocumentID string  `json:"document_id"`
		Text       string  `json:"text"`
		Rate       float64 `json:"rate"`
		Pitch      float64 `json:"pitch"`
		VoiceID    string  `json:"voice_id"`
		Language   string  `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	text := req.Text
	if req.DocumentID != "" {
		doc, err := rt.library.GetByID(r.Context(), req.DocumentID)
		if err != nil {
			writeError(w, err)
			return
		}
		if doc.Transcript == "" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "document has no transcript yet"})
			return
		}
		text = doc.Transcript
	}

	err := rt.playback.Play(text, playback.Params{
		Rate:     req.Rate,
		Pitch:    req.Pitch,
		VoiceID:  req.VoiceID,
		Language: req.Language,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordPlaybackCommand(rt.opts.Service, "play")
	}
	rt.writePlaybackStatus(w)
}

func (rt *Router) playbackCommand(name string, run func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		run()
		if rt.metrics != nil {
			rt.metrics.RecordPlaybackCommand(rt.opts.Service, name)
		}
		rt.writePlaybackStatus(w)
	}
}

func (rt *Router) playbackRestart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	if err := rt.playback.SkipToStart(); err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordPlaybackCommand(rt.opts.Service, "restart")
	}
	rt.writePlaybackStatus(w)
}

func (rt *Router) playbackSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req struct {
		Rate     *float64 `json:"rate"`
		Pitch    *float64 `json:"pitch"`
		VoiceID  *string  `json:"voice_id"`
		Language *string  `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	if req.Rate != nil {
		rt.playback.SetRate(*req.Rate)
	}
	if req.Pitch != nil {
		rt.playback.SetPitch(*req.Pitch)
	}
	if req.VoiceID != nil {
		rt.playback.SetVoice(*req.VoiceID)
	}
	if req.Language != nil {
		rt.playback.SetLanguage(*req.Language)
	}
	if rt.metrics != nil {
		rt.metrics.RecordPlaybackCommand(rt.opts.Service, "settings")
	}
	rt.writePlaybackStatus(w)
}

func (rt *Router) playbackStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	rt.writePlaybackStatus(w)
}

func (rt *Router) writePlaybackStatus(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]any{
		"state":      rt.playback.State(),
		"unit_index": rt.playback.UnitIndex(),
		"unit_count": rt.playback.UnitCount(),
		"cursor":     rt.playback.Cursor(),
	})
}

func (rt *Router) recognitionStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	if err := rt.recognition.Start(); err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordRecognitionRequest(rt.opts.Service, "start")
	}
	rt.writeRecognitionStatus(w)
}

func (rt *Router) recognitionStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	rt.recognition.Stop()
	if rt.metrics != nil {
		rt.metrics.RecordRecognitionRequest(rt.opts.Service, "stop")
	}
	rt.writeRecognitionStatus(w)
}

func (rt *Router) recognitionToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	if err := rt.recognition.Toggle(); err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordRecognitionRequest(rt.opts.Service, "toggle")
	}
	rt.writeRecognitionStatus(w)
}

func (rt *Router) recognitionLanguage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req struct {
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	if err := rt.recognition.SetLanguage(req.Language); err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordRecognitionRequest(rt.opts.Service, "language")
	}
	rt.writeRecognitionStatus(w)
}

func (rt *Router) recognitionStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	rt.writeRecognitionStatus(w)
}

func (rt *Router) writeRecognitionStatus(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]any{
		"listening": rt.recognition.Listening(),
		"language":  rt.recognition.Language(),
		"interim":   rt.recognition.Interim(),
		"error":     rt.recognition.Err(),
		"commands":  rt.recognition.Descriptions(),
	})
}

func categoryOrAll(category string) string {
	if category == "" {
		return "All"
	}
	return category
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}
