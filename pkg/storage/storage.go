package storage

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"path"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned when no object exists under the requested name.
var ErrNotFound = errors.New("file not found")

// ErrInvalidName rejects names that would escape the storage root.
var ErrInvalidName = errors.New("invalid file name")

// Store holds uploaded file contents addressed by generated file name.
type Store interface {
	Save(ctx context.Context, name string, r io.Reader, size int64) (int64, error)
	Open(ctx context.Context, name string) (*Object, error)
	// Delete removes the named object. A missing object is not an error.
	Delete(ctx context.Context, name string) error
}

// Object is an opened stored file.
type Object struct {
	io.ReadSeekCloser
	Name    string
	Size    int64
	ModTime time.Time
}

const maxSuffix = 1_000_000_000

// UniqueName derives a storage name from a client-supplied file name as
// <base>-<unix millis>-<random><ext>.
// The suffix makes collisions unlikely; it is not a security boundary.
func UniqueName(original string) string {
	return buildName(original, time.Now(), rand.IntN(maxSuffix+1))
}

func buildName(original string, now time.Time, n int) string {
	base, ext := SplitName(BaseName(original))
	return base + "-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + strconv.Itoa(n) + ext
}

// BaseName strips any directory components a client may send with a file name.
func BaseName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return ""
	}
	name = path.Base(name)
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// SplitName separates a file name into base and extension. The extension
// keeps its case; a leading dot alone does not start an extension.
func SplitName(name string) (base, ext string) {
	ext = path.Ext(name)
	if ext == name {
		return name, ""
	}
	return strings.TrimSuffix(name, ext), ext
}

// Ext returns the lower-cased extension of name, or "" when there is none.
func Ext(name string) string {
	_, ext := SplitName(BaseName(name))
	return strings.ToLower(ext)
}

func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "\x00")
}
