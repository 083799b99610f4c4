package intake

import (
	"errors"
	"fmt"

	"github.com/jo-hoe/lovenotes/internal/photo"
)

var (
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported format, please use JPG, PNG, or WebP images", photo.ErrValidation)
	ErrFileTooLarge      = errors.New("file too large")

	// ErrDecodeFailed and ErrRenderContextUnavailable abort a single upload attempt
	ErrDecodeFailed             = errors.New("failed to decode image")
	ErrRenderContextUnavailable = errors.New("failed to get render context")
)

// FileTooLargeError carries the rejected size so callers can show it
type FileTooLargeError struct {
	Size  int64
	Limit int64
}

// SizeMB renders the rejected size in MiB with two decimals
func (e *FileTooLargeError) SizeMB() string {
	return fmt.Sprintf("%.2f", float64(e.Size)/(1024*1024))
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file too large (%sMB), maximum size is %s", e.SizeMB(), FormatFileSize(e.Limit))
}

func (e *FileTooLargeError) Unwrap() []error {
	return []error{photo.ErrValidation, ErrFileTooLarge}
}
