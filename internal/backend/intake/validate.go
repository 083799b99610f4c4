package intake

import (
	"fmt"
	"math"
	"strings"
)

const (
	// DefaultMaxFileSize is the inclusive upload ceiling (5 MiB)
	DefaultMaxFileSize int64 = 5 * 1024 * 1024
	// DefaultMaxDimension bounds the longer side of a processed image
	DefaultMaxDimension = 1920
	// DefaultQuality matches a 0.8 compression factor
	DefaultQuality = 80
	// DefaultThumbnailSize bounds the longer side of previews
	DefaultThumbnailSize = 300
	thumbnailQuality     = 70

	outputMimeType = "image/jpeg"
)

var supportedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// File is a candidate upload. Validate only looks at MimeType and Size.
type File struct {
	Filename string
	MimeType string
	Size     int64
	Data     []byte
}

// IsSupportedMimeType reports whether the MIME type is accepted for upload
func IsSupportedMimeType(mimeType string) bool {
	return supportedMimeTypes[strings.ToLower(strings.TrimSpace(mimeType))]
}

// SupportedMimeTypes lists accepted upload types
func SupportedMimeTypes() []string {
	return []string{"image/jpeg", "image/jpg", "image/png", "image/webp"}
}

// FormatFileSize renders a byte count for humans, e.g. "1.5 MB"
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	sizes := []string{"Bytes", "KB", "MB", "GB"}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizes) {
		i = len(sizes) - 1
	}
	value := math.Round(float64(bytes)/math.Pow(1024, float64(i))*100) / 100
	return fmt.Sprintf("%s %s", strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", value), "0"), "."), sizes[i])
}
