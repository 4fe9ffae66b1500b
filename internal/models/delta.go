package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// FieldDelta is a partial update of a fridge: each key replaces the field of the same name.
// A "location" key replaces the coordinates.
type FieldDelta map[string]json.RawMessage

// Split separates the location change, if any, from the descriptive field changes.
// Keys that may not be updated are rejected with ErrValidation.
func (d FieldDelta) Split() (*Location, map[string]json.RawMessage, error) {
	if len(d) == 0 {
		return nil, nil, fmt.Errorf("%w: update must set at least one field", ErrValidation)
	}

	var loc *Location
	fields := make(map[string]json.RawMessage, len(d))
	for k, v := range d {
		switch k {
		case KeyLocation:
			if isNull(v) {
				return nil, nil, fmt.Errorf("%w: location cannot be removed", ErrValidation)
			}
			loc = &Location{}
			if err := json.Unmarshal(v, loc); err != nil {
				if errors.Is(err, ErrValidation) {
					return nil, nil, err
				}
				return nil, nil, fmt.Errorf("%w: invalid location: %v", ErrValidation, err)
			}
		case KeyID, KeyCreatedAt, KeyUpdatedAt:
			return nil, nil, fmt.Errorf("%w: field %q is read-only", ErrValidation, k)
		case "":
			return nil, nil, fmt.Errorf("%w: empty field name", ErrValidation)
		default:
			if !json.Valid(v) {
				return nil, nil, fmt.Errorf("%w: field %q is not valid JSON", ErrValidation, k)
			}
			fields[k] = v
		}
	}
	return loc, fields, nil
}
