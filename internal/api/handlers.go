package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vidfetch/orchestrator/internal/config"
	"github.com/vidfetch/orchestrator/internal/format"
	"github.com/vidfetch/orchestrator/internal/job"
	"github.com/vidfetch/orchestrator/internal/media"
)

// maxListedFormats caps the format listing returned to the caller.
const maxListedFormats = 15

// JobRunner executes the download pipeline for an accepted job.
type JobRunner interface {
	Run(ctx context.Context, id, url, formatID string, trim *media.TrimRange)
}

type Handlers struct {
	cfg          *config.Config
	store        *job.Store
	fetcher      media.MetadataFetcher
	runner       JobRunner
	mergeCapable func() bool
}

func NewHandlers(cfg *config.Config, store *job.Store, fetcher media.MetadataFetcher, runner JobRunner, mergeCapable func() bool) *Handlers {
	return &Handlers{cfg: cfg, store: store, fetcher: fetcher, runner: runner, mergeCapable: mergeCapable}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type videoInfoRequest struct {
	URL string `json:"url"`
}

type videoInfoResponse struct {
	Title      string              `json:"title"`
	Uploader   string              `json:"uploader"`
	Duration   int                 `json:"duration"`
	Thumbnail  string              `json:"thumbnail"`
	ViewCount  int64               `json:"view_count"`
	UploadDate string              `json:"upload_date"`
	Formats    []format.Descriptor `json:"formats"`
}

func (h *Handlers) VideoInfo(w http.ResponseWriter, r *http.Request) {
	var req videoInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "URL is required")
		return
	}

	url := strings.TrimSpace(req.URL)
	if url == "" {
		writeError(w, http.StatusBadRequest, "URL cannot be empty")
		return
	}
	if !validSourceURL(url) {
		writeError(w, http.StatusBadRequest, "Please provide a valid YouTube URL")
		return
	}

	info, err := h.fetcher.Probe(r.Context(), url)
	if err != nil {
		log.Printf("probe failed for %s: %v", url, err)
		writeError(w, http.StatusBadRequest, "Failed to fetch video information")
		return
	}

	writeJSON(w, http.StatusOK, videoInfoResponse{
		Title:      info.Title,
		Uploader:   info.Uploader,
		Duration:   info.Duration,
		Thumbnail:  info.Thumbnail,
		ViewCount:  info.ViewCount,
		UploadDate: info.UploadDate,
		Formats:    listableFormats(info.Formats),
	})
}

// listableFormats keeps video-capable streams, sorts them best first, drops
// duplicate (height, fps, ext) entries and cuts the list to the top 15.
func listableFormats(all []format.Descriptor) []format.Descriptor {
	video := make([]format.Descriptor, 0, len(all))
	for _, d := range all {
		if d.HasVideo() {
			video = append(video, d)
		}
	}

	sort.SliceStable(video, func(i, j int) bool {
		if video[i].Height != video[j].Height {
			return video[i].Height > video[j].Height
		}
		return video[i].FPS > video[j].FPS
	})

	type key struct {
		height int
		fps    float64
		ext    string
	}
	seen := make(map[key]bool)
	unique := make([]format.Descriptor, 0, len(video))
	for _, d := range video {
		k := key{d.Height, d.FPS, d.Ext}
		if seen[k] {
			continue
		}
		seen[k] = true
		unique = append(unique, d)
	}

	if len(unique) > maxListedFormats {
		unique = unique[:maxListedFormats]
	}
	return unique
}

type downloadRequest struct {
	URL       string `json:"url"`
	FormatID  string `json:"format_id"`
	TrimTimes []int  `json:"trim_times,omitempty"`
}

func (h *Handlers) Download(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Request data is required")
		return
	}

	url := strings.TrimSpace(req.URL)
	formatID := strings.TrimSpace(req.FormatID)

	if url == "" {
		writeError(w, http.StatusBadRequest, "URL is required")
		return
	}
	if formatID == "" {
		writeError(w, http.StatusBadRequest, "Format ID is required")
		return
	}

	var trim *media.TrimRange
	if req.TrimTimes != nil {
		if len(req.TrimTimes) != 2 {
			writeError(w, http.StatusBadRequest, "Trim times must be a list of two values [start, end]")
			return
		}
		tr := media.TrimRange{Start: req.TrimTimes[0], End: req.TrimTimes[1]}
		if err := tr.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		trim = &tr
	}

	id := job.NewID()
	if _, err := h.store.Create(id); err != nil {
		log.Printf("create job %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// The request context dies with this response; the pipeline gets its own.
	go h.runner.Run(context.Background(), id, url, formatID, trim)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"download_id": id,
		"message":     "Download started successfully",
		"status":      "started",
	})
}

type statusResponse struct {
	DownloadID string  `json:"download_id"`
	Status     string  `json:"status"`
	Progress   int     `json:"progress"`
	Message    string  `json:"message"`
	Filename   *string `json:"filename"`
	Error      *string `json:"error"`
}

func (h *Handlers) DownloadStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	j, err := h.store.Get(id)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Download not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	resp := statusResponse{
		DownloadID: j.ID,
		Status:     string(j.Status),
		Progress:   j.Progress,
		Message:    j.Message,
	}
	if j.Filename != "" {
		resp.Filename = &j.Filename
	}
	if j.Error != "" {
		resp.Error = &j.Error
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) SystemInfo(w http.ResponseWriter, r *http.Request) {
	dir, err := filepath.Abs(h.cfg.OutputDir)
	if err != nil {
		dir = h.cfg.OutputDir
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ffmpeg_available": h.mergeCapable(),
		"downloads_dir":    dir,
	})
}

func validSourceURL(url string) bool {
	return strings.Contains(url, "youtube.com") || strings.Contains(url, "youtu.be")
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
