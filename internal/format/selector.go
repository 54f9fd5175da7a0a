// Package format decides which media streams to request for a download.
package format

import (
	"fmt"
	"strings"
)

// Descriptor is probed metadata for a single stream, as reported by the
// fetch engine.
type Descriptor struct {
	ID       string  `json:"format_id"`
	Ext      string  `json:"ext"`
	Height   int     `json:"height"`
	FPS      float64 `json:"fps"`
	FileSize int64   `json:"filesize"`
	VCodec   string  `json:"vcodec"`
	ACodec   string  `json:"acodec"`
	Note     string  `json:"format_note"`
	Quality  float64 `json:"quality"`
}

func (d Descriptor) HasVideo() bool {
	return d.VCodec != "" && d.VCodec != "none"
}

func (d Descriptor) HasAudio() bool {
	return d.ACodec != "" && d.ACodec != "none"
}

// Selection is the ordered fallback expression handed verbatim to the
// downloader, plus the resolved target container.
type Selection struct {
	Expr      string
	Container string
}

func isMP4Family(ext string) bool {
	return ext == "mp4" || ext == "m4a" || ext == "mov"
}

// audioSelector returns the audio-track preference order for the target
// container: for mp4-family containers an m4a track, then an AAC-coded one,
// then anything; for webm a webm track, then Opus, then anything.
func audioSelector(container string) string {
	switch {
	case isMP4Family(container):
		return "bestaudio[ext=m4a]/bestaudio[acodec*=mp4a]/bestaudio[acodec=aac]/bestaudio"
	case container == "webm":
		return "bestaudio[ext=webm]/bestaudio[acodec=opus]/bestaudio"
	default:
		return "bestaudio"
	}
}

// progressiveSelector picks the best single stream carrying both video and
// audio, preferring the target container when it is a known one.
func progressiveSelector(container string) string {
	switch {
	case isMP4Family(container):
		return "best[ext=mp4][acodec!=none][vcodec!=none]/best[acodec!=none][vcodec!=none]"
	case container == "webm":
		return "best[ext=webm][acodec!=none][vcodec!=none]/best[acodec!=none][vcodec!=none]"
	default:
		return "best[acodec!=none][vcodec!=none]"
	}
}

// Select maps a requested format id to a fallback expression. desc is the
// probed descriptor for that id and may be nil when the probe resolved
// nothing; absence degrades the selection, it never fails.
//
// Without a merge tool separate streams cannot be combined, so a requested
// id that already carries audio is taken directly and anything else falls
// back to a progressive stream. With a merge tool the expression pairs the
// exact id with the best matching audio, then the bare id, then best overall.
// Pure function: identical inputs always yield the identical expression.
func Select(formatID, container string, mergeCapable bool, desc *Descriptor) Selection {
	c := strings.ToLower(container)

	if !mergeCapable {
		if desc != nil && desc.HasAudio() {
			return Selection{Expr: formatID, Container: c}
		}
		return Selection{Expr: progressiveSelector(c), Container: c}
	}

	expr := fmt.Sprintf("(%s+%s)/%s/best", formatID, audioSelector(c), formatID)
	return Selection{Expr: expr, Container: c}
}
