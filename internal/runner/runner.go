// Package runner executes the download pipeline for a single job: select a
// format expression, fetch, optionally trim, locate the artifact and
// finalize the job record.
package runner

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/vidfetch/orchestrator/internal/format"
	"github.com/vidfetch/orchestrator/internal/job"
	"github.com/vidfetch/orchestrator/internal/media"
)

// Runner owns the collaborators shared by all job pipelines. Each job runs
// as its own goroutine; the store is the only shared mutable state.
type Runner struct {
	store        *job.Store
	probe        media.MetadataFetcher
	downloader   media.Downloader
	trimmer      media.Trimmer
	mergeCapable func() bool
	outputDir    string
	preferredExt string
}

func New(store *job.Store, probe media.MetadataFetcher, dl media.Downloader, tr media.Trimmer, mergeCapable func() bool, outputDir string) *Runner {
	return &Runner{
		store:        store,
		probe:        probe,
		downloader:   dl,
		trimmer:      tr,
		mergeCapable: mergeCapable,
		outputDir:    outputDir,
		preferredExt: "mp4",
	}
}

// Run drives the job to a terminal status. Every failure past this boundary
// is captured into the job record; nothing propagates out of the goroutine.
func (r *Runner) Run(ctx context.Context, id, url, formatID string, trim *media.TrimRange) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[JOB %s] panic in pipeline: %v", id, rec)
			r.store.Fail(id, "Download failed: internal error", fmt.Sprintf("%v", rec))
		}
	}()

	r.advance(id, job.StatusDownloading, 10, "Starting download...")

	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		r.fail(id, err)
		return
	}

	if trim != nil {
		r.advance(id, "", 20, "Preparing trimmed download...")
	} else {
		r.advance(id, "", 20, "Preparing download...")
	}

	// Probe is a best-effort hint: a failed probe degrades the selection,
	// it never aborts the job.
	desc := r.probeFormat(ctx, id, url, formatID)
	merge := r.mergeCapable()
	sel := format.Select(formatID, r.preferredExt, merge, desc)

	container := ""
	if merge {
		container = sel.Container
	}

	destDir := r.outputDir
	if trim != nil {
		tempDir, err := os.MkdirTemp("", "vidfetch_")
		if err != nil {
			r.fail(id, err)
			return
		}
		defer os.RemoveAll(tempDir)
		destDir = tempDir
	}

	log.Printf("[JOB %s] fetching with selector %q into %s", id, sel.Expr, destDir)
	r.advance(id, "", 30, "Downloading video...")

	if err := r.downloader.Fetch(ctx, url, sel.Expr, destDir, container); err != nil {
		r.fail(id, err)
		return
	}

	r.advance(id, "", 90, "Finalizing...")

	name, ok := newestArtifact(destDir)
	if !ok {
		r.store.Fail(id, "Download completed but file not found", "File not found after download")
		return
	}

	if trim == nil {
		r.store.Complete(id, name, "Download completed successfully!")
		return
	}

	r.advance(id, job.StatusTrimming, 0, "Trimming video...")

	trimmedName := trimmedFilename(name, sel.Container, *trim)
	src := filepath.Join(destDir, name)
	dst := filepath.Join(r.outputDir, trimmedName)

	if err := r.trimmer.Run(ctx, src, dst, trim.Start, trim.End); err != nil {
		// Trim failure is not fatal: preserve the full download instead of
		// discarding what the user asked for.
		log.Printf("[JOB %s] trim failed, keeping full video: %v", id, err)
		if copyErr := copyFile(src, filepath.Join(r.outputDir, name)); copyErr != nil {
			r.fail(id, copyErr)
			return
		}
		r.store.Complete(id, name, "Download completed (trim failed, kept full video)")
		return
	}

	r.store.Complete(id, trimmedName, "Download completed successfully!")
}

func (r *Runner) probeFormat(ctx context.Context, id, url, formatID string) *format.Descriptor {
	info, err := r.probe.Probe(ctx, url)
	if err != nil {
		log.Printf("[JOB %s] probe failed, selecting by id only: %v", id, err)
		return nil
	}
	for i := range info.Formats {
		if info.Formats[i].ID == formatID {
			return &info.Formats[i]
		}
	}
	return nil
}

func (r *Runner) advance(id string, st job.Status, progress int, message string) {
	p := job.Patch{Message: &message}
	if st != "" {
		p.Status = &st
	}
	if progress > 0 {
		p.Progress = &progress
	}
	if err := r.store.Apply(id, p); err != nil {
		log.Printf("[JOB %s] update failed: %v", id, err)
	}
}

func (r *Runner) fail(id string, err error) {
	log.Printf("[JOB %s] pipeline error: %v", id, err)
	r.store.Fail(id, "Download failed: "+err.Error(), err.Error())
}

// trimmedFilename encodes the trim boundaries into the artifact name, e.g.
// video_trimmed_205-330.mp4 for 2:05..3:30.
func trimmedFilename(original, container string, trim media.TrimRange) string {
	base := original[:len(original)-len(filepath.Ext(original))]
	if container == "" {
		container = trimLeadingDot(filepath.Ext(original))
	}
	return fmt.Sprintf("%s_trimmed_%s-%s.%s",
		base, media.ClockCompact(trim.Start), media.ClockCompact(trim.End), container)
}

func trimLeadingDot(ext string) string {
	if len(ext) > 0 && ext[0] == '.' {
		return ext[1:]
	}
	return ext
}
