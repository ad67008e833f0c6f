package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Coordinate is a WGS84 position. It is set when the spot is dropped on the
// map and never edited afterwards.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// Extra holds members this version does not know about.
	Extra map[string]json.RawMessage `json:"-"`
}

// Valid reports whether the coordinate lies within the WGS84 ranges.
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f, %.6f", c.Latitude, c.Longitude)
}

// Image is a photo attached to a spot. IDs are plain JSON numbers; older
// clients wrote fractional ids, so the type is float64.
type Image struct {
	ID  float64 `json:"id"`
	URI string  `json:"uri"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Spot is a user-saved fishing location.
type Spot struct {
	ID          int64      `json:"id"`
	Coordinate  Coordinate `json:"coordinate"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Images      []Image    `json:"images"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Validate checks the rules a spot must satisfy before it is persisted.
func (s Spot) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	return nil
}

// Clone returns a deep copy. Images is never nil in the copy.
func (s Spot) Clone() Spot {
	out := s
	out.Coordinate.Extra = cloneExtra(s.Coordinate.Extra)
	out.Extra = cloneExtra(s.Extra)
	out.Images = make([]Image, len(s.Images))
	for i, img := range s.Images {
		img.Extra = cloneExtra(img.Extra)
		out.Images[i] = img
	}
	return out
}

// CloneSpots deep-copies a list. The result is never nil.
func CloneSpots(spots []Spot) []Spot {
	out := make([]Spot, len(spots))
	for i, s := range spots {
		out[i] = s.Clone()
	}
	return out
}

func cloneExtra(extra map[string]json.RawMessage) map[string]json.RawMessage {
	if len(extra) == 0 {
		return nil
	}
	out := make(map[string]json.RawMessage, len(extra))
	for k, v := range extra {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// MarshalJSON writes the known members followed by preserved unknown ones.
func (c Coordinate) MarshalJSON() ([]byte, error) {
	type plain Coordinate
	return marshalWithExtra(plain(c), c.Extra)
}

// UnmarshalJSON requires numeric latitude and longitude.
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	raw, err := decodeObject(data, "coordinate")
	if err != nil {
		return err
	}
	var lat, lng *float64
	if err := takeField(raw, "latitude", &lat); err != nil {
		return err
	}
	if err := takeField(raw, "longitude", &lng); err != nil {
		return err
	}
	if lat == nil || lng == nil {
		return errors.New("coordinate: latitude and longitude are required")
	}
	*c = Coordinate{Latitude: *lat, Longitude: *lng, Extra: extraOrNil(raw)}
	return nil
}

// MarshalJSON writes the known members followed by preserved unknown ones.
func (img Image) MarshalJSON() ([]byte, error) {
	type plain Image
	return marshalWithExtra(plain(img), img.Extra)
}

// UnmarshalJSON requires a numeric id; uri defaults to "".
func (img *Image) UnmarshalJSON(data []byte) error {
	raw, err := decodeObject(data, "image")
	if err != nil {
		return err
	}
	var id *float64
	var uri *string
	if err := takeField(raw, "id", &id); err != nil {
		return err
	}
	if err := takeField(raw, "uri", &uri); err != nil {
		return err
	}
	if id == nil {
		return errors.New("image: id is required")
	}
	*img = Image{ID: *id, Extra: extraOrNil(raw)}
	if uri != nil {
		img.URI = *uri
	}
	return nil
}

// MarshalJSON writes the known members followed by preserved unknown ones.
// A nil Images slice is written as [].
func (s Spot) MarshalJSON() ([]byte, error) {
	type plain Spot
	p := plain(s)
	if p.Images == nil {
		p.Images = []Image{}
	}
	return marshalWithExtra(p, s.Extra)
}

// UnmarshalJSON decodes a stored record. id and coordinate are required;
// title, description and images default to their zero values.
func (s *Spot) UnmarshalJSON(data []byte) error {
	raw, err := decodeObject(data, "spot")
	if err != nil {
		return err
	}

	var (
		id          *int64
		coord       *Coordinate
		title, desc *string
		images      []Image
	)
	if err := takeField(raw, "id", &id); err != nil {
		return err
	}
	if err := takeField(raw, "coordinate", &coord); err != nil {
		return err
	}
	if err := takeField(raw, "title", &title); err != nil {
		return err
	}
	if err := takeField(raw, "description", &desc); err != nil {
		return err
	}
	if err := takeField(raw, "images", &images); err != nil {
		return err
	}
	if id == nil {
		return errors.New("spot: id is required")
	}
	if coord == nil {
		return fmt.Errorf("spot %d: coordinate is required", *id)
	}

	out := Spot{ID: *id, Coordinate: *coord, Images: images, Extra: extraOrNil(raw)}
	if title != nil {
		out.Title = *title
	}
	if desc != nil {
		out.Description = *desc
	}
	if out.Images == nil {
		out.Images = []Image{}
	}
	*s = out
	return nil
}

var jsonNull = []byte("null")

func decodeObject(data []byte, what string) (map[string]json.RawMessage, error) {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		return nil, fmt.Errorf("%s: null record", what)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return raw, nil
}

// takeField decodes raw[key] into dst and removes it from raw.
// A missing key or JSON null leaves dst untouched.
func takeField(raw map[string]json.RawMessage, key string, dst any) error {
	v, ok := raw[key]
	if !ok {
		return nil
	}
	delete(raw, key)
	if bytes.Equal(bytes.TrimSpace(v), jsonNull) {
		return nil
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return fmt.Errorf("field %q: %w", key, err)
	}
	return nil
}

func extraOrNil(raw map[string]json.RawMessage) map[string]json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

func marshalWithExtra(known any, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(known)
	if err != nil || len(extra) == 0 {
		return data, err
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := obj[k]; !ok {
			obj[k] = v
		}
	}
	return json.Marshal(obj)
}

// MaxID returns the highest spot id in the list, or 0 when it is empty.
func MaxID(spots []Spot) int64 {
	var max int64
	for _, s := range spots {
		if s.ID > max {
			max = s.ID
		}
	}
	return max
}

// FindSpot returns the spot with id.
func FindSpot(spots []Spot, id int64) (Spot, bool) {
	for _, s := range spots {
		if s.ID == id {
			return s.Clone(), true
		}
	}
	return Spot{}, false
}
