// Package upload validates multipart document uploads and hands accepted
// files to storage under collision-resistant names.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/peoplesquare/backend/internal/storage"
	"github.com/peoplesquare/backend/pkg/logger"
	"github.com/peoplesquare/backend/pkg/response"
)

const (
	// formOverhead covers non-file fields and multipart boundaries.
	formOverhead = 1 << 20
	maxMemory    = 32 << 20
	sniffLimit   = 3072
)

var AllowedMimeTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

// Office documents are often detected only as their container format.
var containerMimeTypes = []string{
	"application/zip",
	"application/x-ole-storage",
}

var (
	ErrInvalidType  = response.NewUnsupportedMediaType("Invalid file type. Only PDF, DOC, DOCX, PPT, and PPTX files are allowed.")
	ErrNoFile       = response.NewBadRequest("No file uploaded")
	ErrMalformed    = response.NewBadRequest("Malformed multipart form")
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// StoredFile describes a file accepted and written to storage.
type StoredFile struct {
	OriginalName string `json:"originalName"`
	FileName     string `json:"filename"`
	URL          string `json:"url"`
	MimeType     string `json:"mimetype"`
	Size         int64  `json:"size"`
}

type Uploader struct {
	store       storage.Storage
	maxFileSize int64
	publicURL   string
	now         func() time.Time
}

func New(store storage.Storage, maxFileSize int64, publicURL string) *Uploader {
	if publicURL == "" {
		publicURL = "/uploads"
	}
	return &Uploader{
		store:       store,
		maxFileSize: maxFileSize,
		publicURL:   strings.TrimSuffix(publicURL, "/"),
		now:         time.Now,
	}
}

func (u *Uploader) MaxFileSize() int64 { return u.maxFileSize }

func (u *Uploader) tooLarge() *response.AppError {
	return response.NewPayloadTooLarge(fmt.Sprintf("File too large. Maximum size is %dMB", u.maxFileSize>>20))
}

// ParseForm caps the request body and parses it as multipart when the
// request declares a multipart content type. It returns false for other
// content types.
func (u *Uploader) ParseForm(w http.ResponseWriter, r *http.Request, slots int) (bool, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return false, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, u.maxFileSize*int64(slots)+formOverhead)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return true, u.tooLarge()
		}
		return true, ErrMalformed
	}
	return true, nil
}

// Slots returns at most one file per named field. Extra files in a field
// are ignored.
func Slots(form *multipart.Form, names ...string) map[string]*multipart.FileHeader {
	out := make(map[string]*multipart.FileHeader)
	if form == nil {
		return out
	}
	for _, name := range names {
		if fhs := form.File[name]; len(fhs) > 0 {
			out[name] = fhs[0]
		}
	}
	return out
}

// Validate checks size, declared type and sniffed content.
func (u *Uploader) Validate(fh *multipart.FileHeader) error {
	if fh.Size > u.maxFileSize {
		return u.tooLarge()
	}

	declared, _, _ := mime.ParseMediaType(fh.Header.Get("Content-Type"))
	if !slices.Contains(AllowedMimeTypes, declared) {
		return ErrInvalidType
	}

	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	detected, err := mimetype.DetectReader(io.LimitReader(f, sniffLimit))
	if err != nil {
		return fmt.Errorf("sniff upload: %w", err)
	}
	if !acceptable(detected) {
		return ErrInvalidType
	}
	return nil
}

func acceptable(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		for _, allowed := range AllowedMimeTypes {
			if m.Is(allowed) {
				return true
			}
		}
		for _, container := range containerMimeTypes {
			if m.Is(container) {
				return true
			}
		}
	}
	return false
}

// StoredName builds "<base>-<unix millis>-<random><ext>" with whitespace in
// the base replaced by dashes.
func StoredName(original string, now time.Time) string {
	original = filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	ext := filepath.Ext(original)
	base := whitespaceRegex.ReplaceAllString(strings.TrimSuffix(original, ext), "-")
	if base == "" || base == "." {
		base = "file"
	}
	return fmt.Sprintf("%s-%d-%d%s", base, now.UnixMilli(), rand.IntN(1e9), ext)
}

// Store writes an already validated file to storage.
func (u *Uploader) Store(ctx context.Context, fh *multipart.FileHeader) (*StoredFile, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	declared, _, _ := mime.ParseMediaType(fh.Header.Get("Content-Type"))
	name := StoredName(fh.Filename, u.now())
	if err := u.store.Save(ctx, name, f, fh.Size, declared); err != nil {
		return nil, err
	}

	return &StoredFile{
		OriginalName: filepath.Base(fh.Filename),
		FileName:     name,
		URL:          u.publicURL + "/" + name,
		MimeType:     declared,
		Size:         fh.Size,
	}, nil
}

// Accept validates every file first and only then stores them, so a
// rejected file never leaves bytes behind. On a storage failure the files
// already written are removed.
func (u *Uploader) Accept(ctx context.Context, files map[string]*multipart.FileHeader) (map[string]*StoredFile, error) {
	for _, fh := range files {
		if err := u.Validate(fh); err != nil {
			return nil, err
		}
	}

	stored := make(map[string]*StoredFile, len(files))
	for slot, fh := range files {
		sf, err := u.Store(ctx, fh)
		if err != nil {
			u.Discard(ctx, stored)
			return nil, err
		}
		stored[slot] = sf
	}
	return stored, nil
}

// Discard removes stored bytes, used to compensate a failed write.
func (u *Uploader) Discard(ctx context.Context, files map[string]*StoredFile) {
	for _, sf := range files {
		if err := u.store.Delete(ctx, sf.FileName); err != nil {
			logger.Warn().Err(err).Str("file", sf.FileName).Msg("failed to discard stored file")
		}
	}
}

// Remove deletes a stored file by name, ignoring any directory part.
func (u *Uploader) Remove(ctx context.Context, name string) error {
	return u.store.Delete(ctx, name)
}
