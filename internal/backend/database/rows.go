package database

import (
	"database/sql"
	"fmt"

	"github.com/jo-hoe/lovenotes/internal/photo"
)

type userPhotoRow struct {
	ID          string         `db:"id"`
	SourceURL   sql.NullString `db:"source_url"`
	ImageData   []byte         `db:"image_data"`
	MimeType    sql.NullString `db:"mime_type"`
	Caption     string         `db:"caption"`
	CapturedOn  string         `db:"captured_on"`
	Category    string         `db:"category"`
	Orientation string         `db:"orientation"`
	AddedAt     int64          `db:"added_at"`
}

const userPhotoColumns = "id, source_url, image_data, mime_type, caption, captured_on, category, orientation, added_at"

func newUserPhotoRow(record *photo.Record) (*userPhotoRow, error) {
	origin, ok := record.Origin.(photo.UserOrigin)
	if !ok {
		return nil, fmt.Errorf("photo %s is not user-added", record.ID)
	}

	row := &userPhotoRow{
		ID:          record.ID,
		Caption:     record.Caption,
		CapturedOn:  record.CapturedOn,
		Category:    string(record.Category),
		Orientation: string(record.Orientation),
		AddedAt:     origin.AddedAt,
	}

	switch s := record.Source.(type) {
	case photo.URLSource:
		row.SourceURL = sql.NullString{String: s.URL, Valid: true}
	case photo.InlineSource:
		row.ImageData = s.Data
		row.MimeType = sql.NullString{String: s.MimeType, Valid: true}
	default:
		return nil, fmt.Errorf("photo %s has no source", record.ID)
	}

	return row, nil
}

func (row *userPhotoRow) toRecord() *photo.Record {
	var source photo.Source
	if row.SourceURL.Valid {
		source = photo.URLSource{URL: row.SourceURL.String}
	} else {
		source = photo.InlineSource{MimeType: row.MimeType.String, Data: row.ImageData}
	}

	return &photo.Record{
		ID:          row.ID,
		Source:      source,
		Caption:     row.Caption,
		CapturedOn:  row.CapturedOn,
		Category:    photo.Category(row.Category),
		Orientation: photo.Orientation(row.Orientation),
		Origin:      photo.UserOrigin{AddedAt: row.AddedAt},
	}
}
