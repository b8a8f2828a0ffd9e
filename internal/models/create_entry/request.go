package models

type CreateEntryRequest struct {
	Name          string   `json:"name"`
	Photos        []string `json:"photos"`
	Photo         string   `json:"photo"` // legacy single-photo field
	Date          string   `json:"date"`
	Timestamp     string   `json:"timestamp"`
	Latitude      float64  `json:"latitude"`
	Longitude     float64  `json:"longitude"`
	AreaName      string   `json:"area_name"`
	ExtractedText string   `json:"extracted_text"`
}
