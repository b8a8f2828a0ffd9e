package models

type CreateEntryResponse struct {
	ID            string   `json:"id,omitempty"`
	Name          string   `json:"name"`
	Date          string   `json:"date"`
	Timestamp     string   `json:"timestamp"`
	Latitude      float64  `json:"latitude"`
	Longitude     float64  `json:"longitude"`
	AreaName      string   `json:"area_name"`
	ExtractedText string   `json:"extracted_text"`
	PhotoURLs     []string `json:"photo_urls"`
	PhotoKeys     []string `json:"photo_keys"`
	PhotoURL      string   `json:"photo_url"` // primary photo convenience field
}
