package intake

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/jo-hoe/lovenotes/internal/photo"
)

func makePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 128, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test PNG: %v", err)
	}
	return buf.Bytes()
}

func pngFile(t *testing.T, width, height int) File {
	t.Helper()
	data := makePNG(t, width, height)
	return File{Filename: "test.png", MimeType: "image/png", Size: int64(len(data)), Data: data}
}

func TestValidate_Format(t *testing.T) {
	p := NewProcessor(Options{})
	tests := []struct {
		mimeType string
		valid    bool
	}{
		{"image/jpeg", true},
		{"image/jpg", true},
		{"image/png", true},
		{"image/webp", true},
		{"image/gif", false},
		{"image/svg+xml", false},
		{"application/pdf", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			err := p.Validate(File{MimeType: tt.mimeType, Size: 10})
			if tt.valid && err != nil {
				t.Fatalf("expected %s to be accepted, got %v", tt.mimeType, err)
			}
			if !tt.valid {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Fatalf("expected ErrUnsupportedFormat for %s, got %v", tt.mimeType, err)
				}
				if !errors.Is(err, photo.ErrValidation) {
					t.Fatalf("expected unsupported format to be a validation error")
				}
			}
		})
	}
}

func TestValidate_SizeBoundary(t *testing.T) {
	p := NewProcessor(Options{})

	if err := p.Validate(File{MimeType: "image/jpeg", Size: 5 * 1024 * 1024}); err != nil {
		t.Fatalf("expected exactly 5 MiB to be accepted, got %v", err)
	}

	err := p.Validate(File{MimeType: "image/jpeg", Size: 5*1024*1024 + 1})
	var tooLarge *FileTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("expected FileTooLargeError, got %v", err)
	}
	if !errors.Is(err, ErrFileTooLarge) || !errors.Is(err, photo.ErrValidation) {
		t.Fatalf("expected error to match ErrFileTooLarge and ErrValidation: %v", err)
	}
	if tooLarge.SizeMB() != "5.00" {
		t.Errorf("expected size 5.00, got %s", tooLarge.SizeMB())
	}
}

func TestValidate_DoesNotReadPixels(t *testing.T) {
	p := NewProcessor(Options{})
	// Data is garbage but validation only inspects type and size
	if err := p.Validate(File{MimeType: "image/png", Size: 3, Data: []byte("xyz")}); err != nil {
		t.Fatalf("expected validation to pass without decoding, got %v", err)
	}
}

func TestProcess_Downscales(t *testing.T) {
	tests := []struct {
		name                 string
		width, height        int
		maxDimension         int
		expectedW, expectedH int
		expectedOrientation  photo.Orientation
	}{
		{name: "wide", width: 400, height: 100, maxDimension: 192, expectedW: 192, expectedH: 48, expectedOrientation: photo.Landscape},
		{name: "tall", width: 100, height: 300, maxDimension: 192, expectedW: 64, expectedH: 192, expectedOrientation: photo.Portrait},
		{name: "within bounds", width: 120, height: 90, maxDimension: 192, expectedW: 120, expectedH: 90, expectedOrientation: photo.Landscape},
		{name: "square", width: 250, height: 250, maxDimension: 192, expectedW: 192, expectedH: 192, expectedOrientation: photo.Landscape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProcessor(Options{MaxDimension: tt.maxDimension})
			out, err := p.Process(pngFile(t, tt.width, tt.height))
			if err != nil {
				t.Fatalf("Process failed: %v", err)
			}
			if out.Width != tt.expectedW || out.Height != tt.expectedH {
				t.Fatalf("expected %dx%d, got %dx%d", tt.expectedW, tt.expectedH, out.Width, out.Height)
			}
			if out.Orientation != tt.expectedOrientation {
				t.Errorf("expected orientation %s, got %s", tt.expectedOrientation, out.Orientation)
			}
			if out.MimeType != "image/jpeg" {
				t.Errorf("expected image/jpeg output, got %s", out.MimeType)
			}

			decoded, err := jpeg.Decode(bytes.NewReader(out.Data))
			if err != nil {
				t.Fatalf("output is not a valid JPEG: %v", err)
			}
			b := decoded.Bounds()
			if b.Dx() != tt.expectedW || b.Dy() != tt.expectedH {
				t.Errorf("encoded JPEG is %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.expectedW, tt.expectedH)
			}
		})
	}
}

func TestProcess_DefaultMaxDimension(t *testing.T) {
	p := NewProcessor(Options{})
	out, err := p.Process(pngFile(t, 3840, 10))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if out.Width != 1920 || out.Height != 5 {
		t.Fatalf("expected 1920x5, got %dx%d", out.Width, out.Height)
	}
}

func TestProcess_RejectsBeforeDecode(t *testing.T) {
	p := NewProcessor(Options{})
	_, err := p.Process(File{MimeType: "image/gif", Size: 10, Data: []byte("GIF89a")})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestProcess_DecodeFailed(t *testing.T) {
	p := NewProcessor(Options{})
	data := []byte("definitely not an image")
	_, err := p.Process(File{MimeType: "image/png", Size: int64(len(data)), Data: data})
	if !errors.Is(err, ErrDecodeFailed) {
		t.Fatalf("expected ErrDecodeFailed, got %v", err)
	}
}

func TestProcessedImage_Source(t *testing.T) {
	p := NewProcessor(Options{})
	out, err := p.Process(pngFile(t, 4, 2))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	inline, err := photo.ParseDataURL(out.Source().DataURL())
	if err != nil {
		t.Fatalf("ParseDataURL failed: %v", err)
	}
	if inline.MimeType != "image/jpeg" || !bytes.Equal(inline.Data, out.Data) {
		t.Error("inline source does not carry the processed JPEG bytes")
	}
}

func TestThumbnail(t *testing.T) {
	p := NewProcessor(Options{ThumbnailSize: 50})
	thumb, err := p.Thumbnail(makePNG(t, 200, 100))
	if err != nil {
		t.Fatalf("Thumbnail failed: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(thumb))
	if err != nil {
		t.Fatalf("thumbnail is not a JPEG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 50 || b.Dy() != 25 {
		t.Fatalf("expected 50x25 thumbnail, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestComputeTargetDimensions(t *testing.T) {
	tests := []struct {
		w, h, max int
		ew, eh    int
	}{
		{3840, 2160, 1920, 1920, 1080},
		{2160, 3840, 1920, 1080, 1920},
		{1920, 1080, 1920, 1920, 1080},
		{1000, 1000, 1920, 1000, 1000},
		{5000, 1, 1920, 1920, 1},
		{0, 10, 1920, 0, 0},
	}
	for _, tt := range tests {
		w, h := computeTargetDimensions(tt.w, tt.h, tt.max)
		if w != tt.ew || h != tt.eh {
			t.Errorf("computeTargetDimensions(%d, %d, %d) = %dx%d, want %dx%d", tt.w, tt.h, tt.max, w, h, tt.ew, tt.eh)
		}
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := map[int64]string{
		0:               "0 Bytes",
		512:             "512 Bytes",
		1536:            "1.5 KB",
		5 * 1024 * 1024: "5 MB",
	}
	for in, expected := range tests {
		if got := FormatFileSize(in); got != expected {
			t.Errorf("FormatFileSize(%d) = %q, want %q", in, got, expected)
		}
	}
}
