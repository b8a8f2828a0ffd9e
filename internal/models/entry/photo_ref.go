package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// PhotoRef holds the storage key(s) of an entry's photo(s). Entries
// predating multi-photo support stored a bare key; newer entries store a
// JSON-encoded list. Both forms round-trip through PhotoRef.
type PhotoRef struct {
	keys []string
}

// NewPhotoRef builds a reference from ordered storage keys.
func NewPhotoRef(keys ...string) PhotoRef {
	return PhotoRef{keys: keys}
}

// ParsePhotoRef accepts either a legacy bare key or a JSON array of keys.
func ParsePhotoRef(raw string) PhotoRef {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return PhotoRef{}
	}
	if strings.HasPrefix(trimmed, "[") {
		var keys []string
		if err := json.Unmarshal([]byte(trimmed), &keys); err == nil {
			return PhotoRef{keys: keys}
		}
		// Unparsable bracketed value: treat as a literal legacy key.
	}
	return PhotoRef{keys: []string{trimmed}}
}

// Keys returns the ordered storage keys. Never nil for a non-empty ref.
func (r PhotoRef) Keys() []string { return r.keys }

// Primary returns the representative key, the first in upload order.
func (r PhotoRef) Primary() string {
	if len(r.keys) == 0 {
		return ""
	}
	return r.keys[0]
}

func (r PhotoRef) IsEmpty() bool { return len(r.keys) == 0 }

// Encode renders the stored column value: a bare key for single-photo
// entries (legacy-reader compatible), a JSON array otherwise.
func (r PhotoRef) Encode() string {
	switch len(r.keys) {
	case 0:
		return ""
	case 1:
		return r.keys[0]
	default:
		b, _ := json.Marshal(r.keys)
		return string(b)
	}
}

func (r PhotoRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Encode())
}

func (r *PhotoRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = ParsePhotoRef(s)
		return nil
	}
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	r.keys = keys
	return nil
}

func formatCoords(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + ", " + strconv.FormatFloat(lng, 'f', -1, 64)
}
