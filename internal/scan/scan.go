// Package scan extracts metadata from audio files on disk.
//
// Tag values come from github.com/dhowden/tag; play length comes from a
// per-format header probe, since the tag layer does not expose it. MP3,
// FLAC, Ogg Vorbis, and MP4 containers are understood. A file with no
// tags at all still scans, with empty fields and a real length.
package scan

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/dhowden/tag"
)

// ErrorCode classifies scan failures.
type ErrorCode string

const (
	ErrCodeNotFound    ErrorCode = "FILE_NOT_FOUND"
	ErrCodeBadTags     ErrorCode = "UNREADABLE_TAGS"
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED_FORMAT"
)

// ScanError reports a file that could not be scanned.
type ScanError struct {
	Code ErrorCode
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ScanError) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s: %q is not found", e.Code, e.Path)
	case ErrCodeUnsupported:
		return fmt.Sprintf("%s: %s: audio type not understood", e.Code, e.Path)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Path, e.Err)
	}
}

// Unwrap exposes the underlying cause.
func (e *ScanError) Unwrap() error { return e.Err }

// IsScanError returns true if err came from scanning a file. Uses
// errors.As to handle wrapped errors.
func IsScanError(err error) bool {
	var se *ScanError
	return errors.As(err, &se)
}

// Info is the metadata read from one audio file.
type Info struct {
	Artist    string
	Album     string
	Title     string
	Ensemble  string
	Composer  string
	Conductor string
	TrackNum  int // 0 = no track number tag
	Length    time.Duration
}

// Seconds returns the play length rounded to whole seconds.
func (i *Info) Seconds() int {
	return int(math.Round(i.Length.Seconds()))
}

// ReadTrack scans the audio file at path. Errors are *ScanError.
func ReadTrack(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ScanError{Code: ErrCodeNotFound, Path: path, Err: err}
		}
		return nil, &ScanError{Code: ErrCodeBadTags, Path: path, Err: err}
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, &ScanError{Code: ErrCodeBadTags, Path: path, Err: err}
	}

	fm, start, err := sniffFormat(f)
	if err != nil {
		return nil, &ScanError{Code: ErrCodeBadTags, Path: path, Err: err}
	}
	if fm == formatUnknown {
		return nil, &ScanError{Code: ErrCodeUnsupported, Path: path}
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, &ScanError{Code: ErrCodeBadTags, Path: path, Err: err}
	}

	info := &Info{}
	m, err := tag.ReadFrom(f)
	switch {
	case err == nil:
		fillTags(info, m)
	case isNoTags(err):
		// untagged file: fields stay empty, length still counts
	default:
		return nil, &ScanError{Code: ErrCodeBadTags, Path: path, Err: err}
	}

	payload := io.NewSectionReader(f, start, fi.Size()-start)
	length, err := readDuration(payload, fi.Size()-start, fm)
	if err != nil {
		return nil, &ScanError{Code: ErrCodeBadTags, Path: path, Err: err}
	}
	info.Length = length
	return info, nil
}

// fillTags maps tag metadata onto Info. The conductor has no accessor in
// the tag layer, so it comes from the raw frame map: TPE3 for ID3v2.3+,
// TP3 for ID3v2.2, the conductor comment for Vorbis streams. MP4 files
// carry no conductor atom and stay empty.
func fillTags(info *Info, m tag.Metadata) {
	info.Artist = cleanTag(m.Artist())
	info.Album = cleanTag(m.Album())
	info.Title = cleanTag(m.Title())
	info.Ensemble = cleanTag(m.AlbumArtist())
	info.Composer = cleanTag(m.Composer())
	info.Conductor = cleanTag(rawString(m, "TPE3", "TP3", "conductor"))
	if info.Ensemble == "" {
		info.Ensemble = cleanTag(rawString(m, "ensemble"))
	}
	if num, _ := m.Track(); num > 0 {
		info.TrackNum = num
	}
}

// isNoTags reports the absence of any tag block, which scans fine as an
// untagged file. Real parse failures pass through as errors.
func isNoTags(err error) bool {
	return errors.Is(err, tag.ErrNoTagsFound) || errors.Is(err, tag.ErrNotID3v1)
}

// rawString returns the first of keys present in the raw tag map with a
// non-empty string value.
func rawString(m tag.Metadata, keys ...string) string {
	raw := m.Raw()
	if raw == nil {
		return ""
	}
	for _, key := range keys {
		if s, ok := raw[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// cleanTag strips the whitespace and NUL padding some taggers leave on
// values.
func cleanTag(s string) string {
	return strings.Trim(s, " \t\r\n\x00")
}
