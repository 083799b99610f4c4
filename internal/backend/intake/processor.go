package intake

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"
	"math"

	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/jo-hoe/lovenotes/internal/photo"
	_ "golang.org/x/image/webp"
)

// Options tunes the intake pipeline. Zero values fall back to the defaults.
type Options struct {
	MaxFileSize   int64
	MaxDimension  int
	Quality       int
	ThumbnailSize int
}

// ProcessedImage is the normalized result of an upload
type ProcessedImage struct {
	Data        []byte
	MimeType    string
	Width       int
	Height      int
	Orientation photo.Orientation
}

// Source returns the image as an inline record source
func (p *ProcessedImage) Source() photo.InlineSource {
	return photo.InlineSource{MimeType: p.MimeType, Data: p.Data}
}

// Processor validates, downsamples and re-encodes uploads
type Processor struct {
	options Options
}

// NewProcessor creates a processor, filling unset options with defaults
func NewProcessor(options Options) *Processor {
	if options.MaxFileSize <= 0 {
		options.MaxFileSize = DefaultMaxFileSize
	}
	if options.MaxDimension <= 0 {
		options.MaxDimension = DefaultMaxDimension
	}
	if options.Quality <= 0 || options.Quality > 100 {
		options.Quality = DefaultQuality
	}
	if options.ThumbnailSize <= 0 {
		options.ThumbnailSize = DefaultThumbnailSize
	}
	return &Processor{options: options}
}

// Options returns the effective options
func (p *Processor) Options() Options {
	return p.options
}

// Validate checks format and size without touching pixel data
func (p *Processor) Validate(file File) error {
	if !IsSupportedMimeType(file.MimeType) {
		return ErrUnsupportedFormat
	}
	if file.Size > p.options.MaxFileSize {
		return &FileTooLargeError{Size: file.Size, Limit: p.options.MaxFileSize}
	}
	return nil
}

// Process validates, decodes, scales and re-encodes the upload as JPEG.
// Orientation is classified from the final dimensions.
func (p *Processor) Process(file File) (*ProcessedImage, error) {
	if err := p.Validate(file); err != nil {
		return nil, err
	}

	slog.Debug("intake: decoding image",
		"filename", file.Filename,
		"mime_type", file.MimeType,
		"input_size_bytes", len(file.Data))

	img, err := imaging.Decode(bytes.NewReader(file.Data), imaging.AutoOrientation(true))
	if err != nil {
		slog.Error("intake: failed to decode image", "filename", file.Filename, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	bounds := img.Bounds()
	width, height := computeTargetDimensions(bounds.Dx(), bounds.Dy(), p.options.MaxDimension)
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: cannot draw %dx%d image", ErrRenderContextUnavailable, bounds.Dx(), bounds.Dy())
	}

	if width != bounds.Dx() || height != bounds.Dy() {
		slog.Debug("intake: downsampling image",
			"original_width", bounds.Dx(),
			"original_height", bounds.Dy(),
			"target_width", width,
			"target_height", height)
		img = imaging.Resize(img, width, height, imaging.Lanczos)
	}

	data, err := encodeJPEG(img, p.options.Quality)
	if err != nil {
		slog.Error("intake: failed to encode image", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrRenderContextUnavailable, err)
	}

	final := img.Bounds()
	processed := &ProcessedImage{
		Data:        data,
		MimeType:    outputMimeType,
		Width:       final.Dx(),
		Height:      final.Dy(),
		Orientation: photo.ClassifyOrientation(final.Dx(), final.Dy()),
	}

	slog.Debug("intake: processing complete",
		"filename", file.Filename,
		"width", processed.Width,
		"height", processed.Height,
		"orientation", processed.Orientation,
		"output_size_bytes", len(data))

	return processed, nil
}

// Thumbnail renders a low quality JPEG preview whose longer side fits the thumbnail size
func (p *Processor) Thumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	bounds := img.Bounds()
	width, height := computeTargetDimensions(bounds.Dx(), bounds.Dy(), p.options.ThumbnailSize)
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: cannot draw %dx%d image", ErrRenderContextUnavailable, bounds.Dx(), bounds.Dy())
	}
	if width != bounds.Dx() || height != bounds.Dy() {
		img = imaging.Resize(img, width, height, imaging.Lanczos)
	}

	return encodeJPEG(img, thumbnailQuality)
}

// computeTargetDimensions shrinks the longer side to maxDimension preserving aspect ratio.
// Images already within bounds pass through unchanged.
func computeTargetDimensions(width, height, maxDimension int) (int, int) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	if width <= maxDimension && height <= maxDimension {
		return width, height
	}
	if width >= height {
		scaled := int(math.Round(float64(height) * float64(maxDimension) / float64(width)))
		return maxDimension, max(scaled, 1)
	}
	scaled := int(math.Round(float64(width) * float64(maxDimension) / float64(height)))
	return max(scaled, 1), maxDimension
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	bb := img.Bounds()
	// rough heuristic: compressed JPEG stays well under 1 byte per pixel
	buf.Grow(bb.Dx() * bb.Dy() / 4)
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
