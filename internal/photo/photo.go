package photo

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used for CapturedOn
const DateLayout = "2006-01-02"

// ErrValidation is the class of all record and upload validation failures.
// These are user-correctable and never retried.
var ErrValidation = errors.New("validation failed")

// ValidationError reports the field that failed validation
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Orientation of a photo, derived from its final dimensions at intake time
type Orientation string

const (
	Landscape Orientation = "landscape"
	Portrait  Orientation = "portrait"
)

// ClassifyOrientation returns landscape when width >= height, portrait otherwise
func ClassifyOrientation(width, height int) Orientation {
	if width >= height {
		return Landscape
	}
	return Portrait
}

func (o Orientation) valid() bool {
	return o == "" || o == Landscape || o == Portrait
}

// Origin tells bundled records apart from user-added ones.
// The set of implementations is closed: BundledOrigin and UserOrigin.
type Origin interface {
	isOrigin()
}

// BundledOrigin marks a record compiled into the application
type BundledOrigin struct{}

// UserOrigin marks a record uploaded at runtime. AddedAt is milliseconds since the Unix epoch.
type UserOrigin struct {
	AddedAt int64
}

func (BundledOrigin) isOrigin() {}
func (UserOrigin) isOrigin()    {}

// Source is where the image bytes come from.
// The set of implementations is closed: URLSource and InlineSource.
type Source interface {
	isSource()
}

// URLSource references a remote URL or a bundled static path
type URLSource struct {
	URL string
}

// InlineSource carries the encoded image itself
type InlineSource struct {
	MimeType string
	Data     []byte
}

func (URLSource) isSource()    {}
func (InlineSource) isSource() {}

// DataURL renders the inline image as a base64 data URL
func (s InlineSource) DataURL() string {
	return "data:" + s.MimeType + ";base64," + base64.StdEncoding.EncodeToString(s.Data)
}

// ParseDataURL decodes a base64 data URL into an InlineSource
func ParseDataURL(dataURL string) (InlineSource, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return InlineSource{}, fmt.Errorf("not a data URL")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return InlineSource{}, fmt.Errorf("data URL has no payload separator")
	}
	mimeType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return InlineSource{}, fmt.Errorf("data URL is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return InlineSource{}, fmt.Errorf("failed to decode data URL payload: %w", err)
	}
	return InlineSource{MimeType: mimeType, Data: data}, nil
}

// Record is a single displayable photo
type Record struct {
	ID          string
	Source      Source
	Caption     string
	CapturedOn  string
	Category    Category
	Orientation Orientation
	Origin      Origin
}

// IsUserAdded reports whether the record was uploaded at runtime
func (r *Record) IsUserAdded() bool {
	_, ok := r.Origin.(UserOrigin)
	return ok
}

// AddedAt returns the upload timestamp of a user-added record, 0 for bundled ones
func (r *Record) AddedAt() int64 {
	if o, ok := r.Origin.(UserOrigin); ok {
		return o.AddedAt
	}
	return 0
}

// Validate checks the record against the data model invariants
func (r *Record) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	if r.Source == nil {
		return &ValidationError{Field: "source", Reason: "must be set"}
	}
	switch s := r.Source.(type) {
	case URLSource:
		if s.URL == "" {
			return &ValidationError{Field: "source", Reason: "url must not be empty"}
		}
	case InlineSource:
		if len(s.Data) == 0 {
			return &ValidationError{Field: "source", Reason: "inline data must not be empty"}
		}
	}
	if strings.TrimSpace(r.Caption) == "" {
		return &ValidationError{Field: "caption", Reason: "must not be empty"}
	}
	if _, err := time.Parse(DateLayout, r.CapturedOn); err != nil {
		return &ValidationError{Field: "date", Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", r.CapturedOn)}
	}
	if !r.Category.valid() {
		return &ValidationError{Field: "category", Reason: fmt.Sprintf("%q is not a storable category", r.Category)}
	}
	if !r.Orientation.valid() {
		return &ValidationError{Field: "orientation", Reason: fmt.Sprintf("%q must be landscape or portrait", r.Orientation)}
	}
	if r.Origin == nil {
		return &ValidationError{Field: "origin", Reason: "must be set"}
	}
	return nil
}
