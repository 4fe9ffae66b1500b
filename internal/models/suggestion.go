package models

// Coordinates is a point given as longitude then latitude, the order map libraries use.
type Coordinates struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Suggestion is a candidate place returned by a geocoding provider for partial input.
type Suggestion struct {
	PlaceName string      `json:"place_name"`
	Center    Coordinates `json:"center"`
}
