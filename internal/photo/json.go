package photo

import (
	"encoding/json"
	"fmt"
)

// recordJSON is the wire form shared by the HTTP API and exported snapshots
type recordJSON struct {
	ID             string      `json:"id"`
	URL            string      `json:"url"`
	ImageData      string      `json:"imageData,omitempty"`
	Caption        string      `json:"caption"`
	Date           string      `json:"date"`
	Category       Category    `json:"category"`
	Orientation    Orientation `json:"orientation,omitempty"`
	IsUserUploaded bool        `json:"isUserUploaded,omitempty"`
	UploadedAt     int64       `json:"uploadedAt,omitempty"`
}

// MarshalJSON writes inline sources as data URLs and URL sources as url
func (r *Record) MarshalJSON() ([]byte, error) {
	out := recordJSON{
		ID:          r.ID,
		Caption:     r.Caption,
		Date:        r.CapturedOn,
		Category:    r.Category,
		Orientation: r.Orientation,
	}

	switch s := r.Source.(type) {
	case URLSource:
		out.URL = s.URL
	case InlineSource:
		out.ImageData = s.DataURL()
	}

	switch o := r.Origin.(type) {
	case UserOrigin:
		out.IsUserUploaded = true
		out.UploadedAt = o.AddedAt
	case BundledOrigin:
	}

	return json.Marshal(out)
}

// UnmarshalJSON reverses MarshalJSON. It does not validate the record.
func (r *Record) UnmarshalJSON(data []byte) error {
	var in recordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	var source Source
	if in.ImageData != "" {
		inline, err := ParseDataURL(in.ImageData)
		if err != nil {
			return fmt.Errorf("photo %s: %w", in.ID, err)
		}
		source = inline
	} else {
		source = URLSource{URL: in.URL}
	}

	var origin Origin = BundledOrigin{}
	if in.IsUserUploaded {
		origin = UserOrigin{AddedAt: in.UploadedAt}
	}

	*r = Record{
		ID:          in.ID,
		Source:      source,
		Caption:     in.Caption,
		CapturedOn:  in.Date,
		Category:    in.Category,
		Orientation: in.Orientation,
		Origin:      origin,
	}
	return nil
}
