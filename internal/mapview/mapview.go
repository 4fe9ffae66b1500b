package mapview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fridgemap/internal/models"

	"github.com/rs/zerolog"
)

var (
	// ErrLocationDenied is returned by a Locator when the user refuses to share a position.
	ErrLocationDenied = errors.New("mapview: location access denied")
	// ErrNothingToSubmit means a search was submitted without a selection or a resolvable text.
	ErrNothingToSubmit = errors.New("mapview: nothing to submit")
	// ErrNoSuggestion means the selected suggestion does not exist.
	ErrNoSuggestion = errors.New("mapview: no such suggestion")
)

// FridgeSource lists the fridges shown on the map.
type FridgeSource interface {
	ListFridges(ctx context.Context) ([]models.Fridge, error)
}

// Geocoder suggests places for the search box.
type Geocoder interface {
	Suggest(ctx context.Context, query string) ([]models.Suggestion, error)
}

// Locator reports the device position.
type Locator interface {
	Locate(ctx context.Context) (models.Coordinates, error)
}

// Marker is one fridge pin on the map.
type Marker struct {
	FridgeID string             `json:"fridge_id"`
	Position models.Coordinates `json:"position"`
	Link     string             `json:"link"`
}

// SearchState is the address search box: what was typed, what was picked
// and what the geocoder proposed. It resets after every completed search.
type SearchState struct {
	Text        string              `json:"text"`
	Selected    *models.Coordinates `json:"selected,omitempty"`
	Suggestions []models.Suggestion `json:"suggestions"`
}

// MapView holds the state of one map: viewport, markers and search box.
// It is not safe for concurrent use.
type MapView struct {
	fridges  FridgeSource
	geocoder Geocoder
	locator  Locator
	log      zerolog.Logger

	viewport Viewport
	search   SearchState
	// suggested is set once the geocoder answered for the current text.
	suggested bool
	markers   []Marker
	index     *markerIndex
}

// New creates a map showing initial. locator may be nil.
func New(fridges FridgeSource, geocoder Geocoder, locator Locator, initial Viewport, log zerolog.Logger) *MapView {
	return &MapView{
		fridges:  fridges,
		geocoder: geocoder,
		locator:  locator,
		log:      log,
		viewport: initial,
		index:    newMarkerIndex(nil),
	}
}

// Mount centers the map on the device position when available and loads the fridge markers.
// A refused or failed geolocation keeps the initial viewport.
func (m *MapView) Mount(ctx context.Context) error {
	if m.locator != nil {
		pos, err := m.locator.Locate(ctx)
		switch {
		case err == nil:
			m.viewport.Center = pos
		case errors.Is(err, ErrLocationDenied):
			m.log.Debug().Msg("geolocation denied, keeping initial viewport")
		default:
			m.log.Debug().Err(err).Msg("geolocation failed, keeping initial viewport")
		}
	}

	return m.Reload(ctx)
}

// Reload fetches the fridge list again and rebuilds the markers.
func (m *MapView) Reload(ctx context.Context) error {
	fridges, err := m.fridges.ListFridges(ctx)
	if err != nil {
		return fmt.Errorf("mapview: failed to load fridges: %w", err)
	}

	markers := make([]Marker, 0, len(fridges))
	for _, f := range fridges {
		if f.Location == nil {
			m.log.Warn().Str("fridge_id", f.ID).Msg("fridge without location, no marker")
			continue
		}
		markers = append(markers, Marker{
			FridgeID: f.ID,
			Position: models.Coordinates{Lon: f.Location.Lon, Lat: f.Location.Lat},
			Link:     "/details/" + f.ID,
		})
	}

	m.markers = markers
	m.index = newMarkerIndex(markers)
	return nil
}

// Type replaces the search text and refreshes the suggestions. Blank text clears them.
func (m *MapView) Type(ctx context.Context, text string) error {
	m.search.Text = text
	m.search.Selected = nil
	m.search.Suggestions = nil
	m.suggested = false

	if strings.TrimSpace(text) == "" {
		return nil
	}
	suggestions, err := m.geocoder.Suggest(ctx, text)
	if err != nil {
		return fmt.Errorf("mapview: failed to get suggestions: %w", err)
	}
	m.search.Suggestions = suggestions
	m.suggested = true
	return nil
}

// Select picks suggestion i and submits it.
func (m *MapView) Select(ctx context.Context, i int) error {
	if i < 0 || i >= len(m.search.Suggestions) {
		return fmt.Errorf("%w: %d", ErrNoSuggestion, i)
	}
	center := m.search.Suggestions[i].Center
	m.search.Selected = &center
	return m.Submit(ctx)
}

// Submit flies to the selected place, or to the best match for the typed text,
// and clears the search box. Suggestions already fetched for the text are reused.
func (m *MapView) Submit(ctx context.Context) error {
	target := m.search.Selected
	if target == nil {
		text := strings.TrimSpace(m.search.Text)
		if text == "" {
			return ErrNothingToSubmit
		}
		suggestions := m.search.Suggestions
		if !m.suggested {
			var err error
			suggestions, err = m.geocoder.Suggest(ctx, text)
			if err != nil {
				return fmt.Errorf("mapview: failed to geocode %q: %w", text, err)
			}
		}
		if len(suggestions) == 0 {
			return fmt.Errorf("%w: no place matches %q", ErrNothingToSubmit, text)
		}
		target = &suggestions[0].Center
	}

	m.FlyTo(*target)
	m.search = SearchState{}
	m.suggested = false
	return nil
}

// FlyTo centers the map on c at street level.
func (m *MapView) FlyTo(c models.Coordinates) {
	m.viewport = Viewport{Center: c, Zoom: FlyToZoom}
}

// VisibleMarkers returns the markers inside a width x height pixel map, in list order.
func (m *MapView) VisibleMarkers(width, height int) []Marker {
	positions := m.index.search(m.viewport.Bounds(width, height))
	visible := make([]Marker, 0, len(positions))
	for _, pos := range positions {
		visible = append(visible, m.markers[pos])
	}
	return visible
}

// Viewport returns the current camera.
func (m *MapView) Viewport() Viewport {
	return m.viewport
}

// Search returns the search box state.
func (m *MapView) Search() SearchState {
	return m.search
}

// Markers returns every fridge marker in list order.
func (m *MapView) Markers() []Marker {
	return m.markers
}
