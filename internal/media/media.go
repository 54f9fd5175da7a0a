// Package media defines the contracts the job pipeline needs from the
// external fetch and trim tools, and the subprocess adapters that fulfil
// them.
package media

import (
	"context"
	"errors"
	"fmt"

	"github.com/vidfetch/orchestrator/internal/format"
)

// VideoInfo is the probed metadata for one media asset.
type VideoInfo struct {
	Title      string              `json:"title"`
	Uploader   string              `json:"uploader"`
	Duration   int                 `json:"duration"`
	Thumbnail  string              `json:"thumbnail"`
	ViewCount  int64               `json:"view_count"`
	UploadDate string              `json:"upload_date"`
	Formats    []format.Descriptor `json:"formats"`
}

// TrimRange is a requested sub-range of the asset, in seconds.
type TrimRange struct {
	Start int
	End   int
}

var (
	ErrNegativeTrim = errors.New("Trim times cannot be negative")
	ErrTrimOrder    = errors.New("End time must be after start time")
)

func (r TrimRange) Validate() error {
	if r.Start < 0 || r.End < 0 {
		return ErrNegativeTrim
	}
	if r.End <= r.Start {
		return ErrTrimOrder
	}
	return nil
}

func (r TrimRange) Duration() int {
	return r.End - r.Start
}

// MetadataFetcher probes an asset without downloading it.
type MetadataFetcher interface {
	Probe(ctx context.Context, url string) (*VideoInfo, error)
}

// Downloader fetches media into destDir according to a format-selection
// expression. container, when non-empty, names the merge target.
type Downloader interface {
	Fetch(ctx context.Context, url, formatExpr, destDir, container string) error
}

// Trimmer extracts [start, end) of inputPath into outputPath by stream copy.
type Trimmer interface {
	Run(ctx context.Context, inputPath, outputPath string, start, end int) error
}

// Clock renders seconds as M:SS.
func Clock(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// ClockCompact is Clock without the separator, for use in filenames.
func ClockCompact(seconds int) string {
	return fmt.Sprintf("%d%02d", seconds/60, seconds%60)
}
