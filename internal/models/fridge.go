package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Reserved keys of the fridge document. They are never kept among the descriptive fields.
const (
	KeyID        = "id"
	KeyLocation  = "location"
	KeyCreatedAt = "created_at"
	KeyUpdatedAt = "updated_at"
	KeyImages    = "images"
)

// Location is a latitude/longitude pair in degrees.
type Location struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// UnmarshalJSON requires both lat and lon. A missing coordinate is an ErrValidation.
func (l *Location) UnmarshalJSON(data []byte) error {
	var raw struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.Lat == nil:
		return fmt.Errorf("%w: location.lat is required", ErrValidation)
	case raw.Lon == nil:
		return fmt.Errorf("%w: location.lon is required", ErrValidation)
	}
	*l = Location{Lat: *raw.Lat, Lon: *raw.Lon}
	return nil
}

// Fridge is a community refrigerator record. Besides its identifier and location
// it carries an open set of descriptive fields (name, status, images, ...) that
// are kept as raw JSON values so they round-trip unchanged.
type Fridge struct {
	ID        string
	Location  *Location `validate:"required"`
	Fields    map[string]json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MarshalJSON flattens the descriptive fields next to the reserved keys.
func (f Fridge) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(f.Fields)+4)
	for k, v := range f.Fields {
		doc[k] = v
	}
	if f.ID != "" {
		doc[KeyID] = f.ID
	}
	doc[KeyLocation] = f.Location
	if !f.CreatedAt.IsZero() {
		doc[KeyCreatedAt] = f.CreatedAt
	}
	if !f.UpdatedAt.IsZero() {
		doc[KeyUpdatedAt] = f.UpdatedAt
	}
	return json.Marshal(doc)
}

// UnmarshalJSON splits a flat fridge document into reserved keys and descriptive fields.
func (f *Fridge) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("fridge document must be a JSON object")
	}

	*f = Fridge{}
	if raw, ok := doc[KeyID]; ok {
		if err := json.Unmarshal(raw, &f.ID); err != nil {
			return fmt.Errorf("invalid %s: %w", KeyID, err)
		}
	}
	if raw, ok := doc[KeyLocation]; ok && !isNull(raw) {
		var loc Location
		if err := json.Unmarshal(raw, &loc); err != nil {
			return fmt.Errorf("invalid %s: %w", KeyLocation, err)
		}
		f.Location = &loc
	}
	if raw, ok := doc[KeyCreatedAt]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &f.CreatedAt); err != nil {
			return fmt.Errorf("invalid %s: %w", KeyCreatedAt, err)
		}
	}
	if raw, ok := doc[KeyUpdatedAt]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &f.UpdatedAt); err != nil {
			return fmt.Errorf("invalid %s: %w", KeyUpdatedAt, err)
		}
	}

	for k, v := range doc {
		if IsReservedKey(k) {
			continue
		}
		if f.Fields == nil {
			f.Fields = make(map[string]json.RawMessage)
		}
		f.Fields[k] = v
	}
	return nil
}

// DecodeNewFridge decodes the body of a create request. The envelope keys id,
// created_at and updated_at are assigned by the store, so their presence is an
// ErrValidation whatever the value.
func DecodeNewFridge(data []byte) (Fridge, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return Fridge{}, err
	}
	if doc == nil {
		return Fridge{}, fmt.Errorf("%w: fridge document must be a JSON object", ErrValidation)
	}
	for _, k := range []string{KeyID, KeyCreatedAt, KeyUpdatedAt} {
		if _, ok := doc[k]; ok {
			return Fridge{}, fmt.Errorf("%w: field %q is assigned by the server", ErrValidation, k)
		}
	}

	var f Fridge
	if err := json.Unmarshal(data, &f); err != nil {
		if errors.Is(err, ErrValidation) {
			return Fridge{}, err
		}
		return Fridge{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return f, nil
}

// Field decodes a descriptive field into dst. It reports false when the field is absent.
func (f *Fridge) Field(name string, dst any) (bool, error) {
	raw, ok := f.Fields[name]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

// Images returns the image URLs stored on the fridge, if any.
func (f *Fridge) Images() ([]string, error) {
	var images []string
	if _, err := f.Field(KeyImages, &images); err != nil {
		return nil, fmt.Errorf("invalid %s field: %w", KeyImages, err)
	}
	return images, nil
}

// IsReservedKey reports whether key belongs to the record envelope rather than its fields.
func IsReservedKey(key string) bool {
	switch key {
	case KeyID, KeyLocation, KeyCreatedAt, KeyUpdatedAt:
		return true
	}
	return false
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
