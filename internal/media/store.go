package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// PublicPrefix is the URL prefix the upload directory is served under.
const PublicPrefix = "uploads"

const sniffLen = 3072

var (
	ErrTooLarge        = errors.New("File too large (max 50MB)")
	ErrUnsupportedType = errors.New("File type not allowed")
)

var allowed = map[string][]string{
	"image": {"image/jpeg", "image/png", "image/gif", "image/webp"},
	"video": {"video/mp4", "video/webm", "video/ogg"},
	"audio": {"audio/mpeg", "audio/wav", "audio/ogg", "audio/webm", "audio/mp4", "video/webm"},
}

// Stored describes a saved upload. Path is the opaque reference messages carry.
type Stored struct {
	Path     string `json:"path"`
	FileType string `json:"file_type"`
	FileName string `json:"file_name"`
	MIME     string `json:"mime"`
	Size     int64  `json:"size"`
}

// LocalStore writes uploads below a directory, one subdirectory per category.
type LocalStore struct {
	root     string
	maxBytes int64
}

// NewLocalStore builds a LocalStore.
func NewLocalStore(root string, maxBytes int64) *LocalStore {
	return &LocalStore{root: root, maxBytes: maxBytes}
}

// MaxBytes is the per-file limit.
func (s *LocalStore) MaxBytes() int64 {
	return s.maxBytes
}

// Save sniffs the content type, checks it against the category and writes
// the file under a generated name.
func (s *LocalStore) Save(category, originalName string, r io.Reader) (Stored, error) {
	accepted, ok := allowed[category]
	if !ok {
		return Stored{}, ErrUnsupportedType
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Stored{}, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return Stored{}, ErrUnsupportedType
	}

	detected := mimetype.Detect(head)
	if !matches(detected, accepted) {
		return Stored{}, ErrUnsupportedType
	}

	dir := filepath.Join(s.root, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Stored{}, fmt.Errorf("create upload dir: %w", err)
	}

	name := "c360_" + uuid.NewString() + detected.Extension()
	target := filepath.Join(dir, name)
	f, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return Stored{}, fmt.Errorf("create upload: %w", err)
	}

	written, err := io.Copy(f, io.LimitReader(io.MultiReader(bytes.NewReader(head), r), s.maxBytes+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(target)
		return Stored{}, fmt.Errorf("write upload: %w", err)
	}
	if written > s.maxBytes {
		_ = os.Remove(target)
		return Stored{}, ErrTooLarge
	}

	return Stored{
		Path:     path.Join(PublicPrefix, category, name),
		FileType: category,
		FileName: filepath.Base(originalName),
		MIME:     detected.String(),
		Size:     written,
	}, nil
}

func matches(detected *mimetype.MIME, accepted []string) bool {
	for m := detected; m != nil; m = m.Parent() {
		for _, want := range accepted {
			if m.Is(want) {
				return true
			}
		}
	}
	return false
}
