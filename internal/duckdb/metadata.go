package duckdb

import (
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for an input VCF.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime().UTC().Truncate(time.Microsecond),
	}, nil
}

// StatFiles fingerprints every path.
func StatFiles(paths []string) ([]FileFingerprint, error) {
	fps := make([]FileFingerprint, 0, len(paths))
	for _, p := range paths {
		fp, err := StatFile(p)
		if err != nil {
			return nil, fmt.Errorf("stat input: %w", err)
		}
		fps = append(fps, fp)
	}
	return fps, nil
}

// Matches reports whether the file on disk still has the same size and
// modification time. TIMESTAMP columns keep microseconds, so times are
// compared at that precision.
func (fp FileFingerprint) Matches(cur FileFingerprint) bool {
	return fp.Size == cur.Size &&
		fp.ModTime.Truncate(time.Microsecond).Equal(cur.ModTime.Truncate(time.Microsecond))
}
