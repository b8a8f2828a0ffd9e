package models

import "time"

type Entry struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Date          string    `json:"date"`
	Timestamp     string    `json:"timestamp"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	AreaName      string    `json:"area_name"`
	ExtractedText string    `json:"extracted_text"`
	PhotoRef      PhotoRef  `json:"photo_reference"`
	PhotoURL      string    `json:"photo_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Location returns the text shown for an entry in reports: the area name
// when present, otherwise a "lat, lng" fallback.
func (e *Entry) Location() string {
	if e.AreaName != "" {
		return e.AreaName
	}
	return formatCoords(e.Latitude, e.Longitude)
}
