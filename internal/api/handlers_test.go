package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vidfetch/orchestrator/internal/config"
	"github.com/vidfetch/orchestrator/internal/format"
	"github.com/vidfetch/orchestrator/internal/job"
	"github.com/vidfetch/orchestrator/internal/media"
)

type fakeFetcher struct {
	info *media.VideoInfo
	err  error
}

func (f *fakeFetcher) Probe(ctx context.Context, url string) (*media.VideoInfo, error) {
	return f.info, f.err
}

type runCall struct {
	id       string
	url      string
	formatID string
	trim     *media.TrimRange
}

type fakeRunner struct {
	calls chan runCall
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{calls: make(chan runCall, 1)}
}

func (f *fakeRunner) Run(ctx context.Context, id, url, formatID string, trim *media.TrimRange) {
	f.calls <- runCall{id: id, url: url, formatID: formatID, trim: trim}
}

func newTestRouter(t *testing.T, fetcher media.MetadataFetcher, runner JobRunner, merge bool) (http.Handler, *job.Store) {
	t.Helper()
	cfg := &config.Config{HTTPPort: 8000, OutputDir: t.TempDir()}
	store := job.NewStore()
	if fetcher == nil {
		fetcher = &fakeFetcher{info: &media.VideoInfo{}}
	}
	if runner == nil {
		runner = newFakeRunner()
	}
	return NewRouter(cfg, store, fetcher, runner, func() bool { return merge }), store
}

func postJSON(t *testing.T, router http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t, nil, nil, true)

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if resp := decodeBody(t, rec); resp["status"] != "healthy" {
		t.Errorf("expected healthy, got %v", resp["status"])
	}
}

func TestVideoInfo_EmptyURL(t *testing.T) {
	router, _ := newTestRouter(t, nil, nil, true)

	rec := postJSON(t, router, "/api/video-info", `{"url":"  "}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if resp := decodeBody(t, rec); resp["error"] != "URL cannot be empty" {
		t.Errorf("unexpected error: %v", resp["error"])
	}
}

func TestVideoInfo_NonYoutubeURL(t *testing.T) {
	router, _ := newTestRouter(t, nil, nil, true)

	rec := postJSON(t, router, "/api/video-info", `{"url":"https://example.com/v"}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if resp := decodeBody(t, rec); resp["error"] != "Please provide a valid YouTube URL" {
		t.Errorf("unexpected error: %v", resp["error"])
	}
}

func TestVideoInfo_ProbeFailure(t *testing.T) {
	router, _ := newTestRouter(t, &fakeFetcher{err: errors.New("unavailable")}, nil, true)

	rec := postJSON(t, router, "/api/video-info", `{"url":"https://youtube.com/watch?v=x"}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if resp := decodeBody(t, rec); resp["error"] != "Failed to fetch video information" {
		t.Errorf("unexpected error: %v", resp["error"])
	}
}

func TestVideoInfo_ListsVideoFormats(t *testing.T) {
	fetcher := &fakeFetcher{info: &media.VideoInfo{
		Title:    "Test",
		Uploader: "Someone",
		Duration: 213,
		// One audio-only stream, one duplicate (height, fps, ext) shape,
		// and three listable video formats in shuffled quality order.
		Formats: []format.Descriptor{
			{ID: "140", Ext: "m4a", VCodec: "none", ACodec: "mp4a"},
			{ID: "134", Ext: "mp4", Height: 360, FPS: 30, VCodec: "avc1"},
			{ID: "137", Ext: "mp4", Height: 1080, FPS: 30, VCodec: "avc1"},
			{ID: "137-b", Ext: "mp4", Height: 1080, FPS: 30, VCodec: "avc1"},
			{ID: "247", Ext: "webm", Height: 720, FPS: 30, VCodec: "vp9"},
		},
	}}
	router, _ := newTestRouter(t, fetcher, nil, true)

	rec := postJSON(t, router, "/api/video-info", `{"url":"https://youtu.be/x"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody(t, rec)
	if resp["title"] != "Test" {
		t.Errorf("expected title, got %v", resp["title"])
	}

	formats := resp["formats"].([]any)
	if len(formats) != 3 {
		t.Fatalf("expected 3 formats after filter and dedupe, got %d", len(formats))
	}
	first := formats[0].(map[string]any)
	if first["format_id"] != "137" {
		t.Errorf("expected best format first, got %v", first["format_id"])
	}
	last := formats[2].(map[string]any)
	if last["format_id"] != "134" {
		t.Errorf("expected lowest format last, got %v", last["format_id"])
	}
}

func TestVideoInfo_CapsListing(t *testing.T) {
	var all []format.Descriptor
	for h := 0; h < 30; h++ {
		all = append(all, format.Descriptor{ID: "f", Ext: "mp4", Height: 100 + h, VCodec: "avc1"})
	}
	router, _ := newTestRouter(t, &fakeFetcher{info: &media.VideoInfo{Formats: all}}, nil, true)

	rec := postJSON(t, router, "/api/video-info", `{"url":"https://youtu.be/x"}`)

	resp := decodeBody(t, rec)
	if got := len(resp["formats"].([]any)); got != maxListedFormats {
		t.Errorf("expected %d formats, got %d", maxListedFormats, got)
	}
}

func TestSystemInfo(t *testing.T) {
	router, _ := newTestRouter(t, nil, nil, false)

	req := httptest.NewRequest("GET", "/api/system-info", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeBody(t, rec)
	if resp["ffmpeg_available"] != false {
		t.Errorf("expected ffmpeg_available false, got %v", resp["ffmpeg_available"])
	}
	if resp["downloads_dir"] == "" || resp["downloads_dir"] == nil {
		t.Error("expected downloads_dir")
	}
}
