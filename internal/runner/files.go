package runner

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// artifactRecency bounds how old a file may be and still count as the
// output of the fetch that just ran, disambiguating from stale leftovers
// in a shared output directory.
const artifactRecency = 5 * time.Minute

var mediaExts = map[string]bool{
	".mp4":  true,
	".webm": true,
	".mkv":  true,
	".avi":  true,
}

// newestArtifact returns the most recently modified media file in dir that
// was written within the recency window.
func newestArtifact(dir string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	cutoff := time.Now().Add(-artifactRecency)
	var newest string
	var newestMod time.Time

	for _, entry := range entries {
		if entry.IsDir() || !mediaExts[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = entry.Name()
			newestMod = info.ModTime()
		}
	}
	return newest, newest != ""
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
