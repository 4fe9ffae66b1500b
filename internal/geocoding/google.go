package geocoding

import (
	"context"
	"fmt"
	"strings"

	"fridgemap/internal/models"

	"github.com/rs/zerolog"
	"googlemaps.github.io/maps"
)

// GoogleAPIClient is the part of *maps.Client used by GoogleProvider.
type GoogleAPIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// GoogleProvider suggests places with the Google Maps Geocoding API.
type GoogleProvider struct {
	client GoogleAPIClient
	limit  int
	log    zerolog.Logger
}

// NewGoogleProvider creates a Google provider on top of a maps client.
func NewGoogleProvider(client GoogleAPIClient, limit int, log zerolog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, limit: limit, log: log}
}

// Suggest returns up to the configured number of geocoding results for query.
func (p *GoogleProvider) Suggest(ctx context.Context, query string) ([]models.Suggestion, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	results, err := p.client.Geocode(ctx, &maps.GeocodingRequest{Address: query})
	if err != nil {
		return nil, fmt.Errorf("geocoding: google request failed: %w", err)
	}
	if len(results) > p.limit {
		results = results[:p.limit]
	}

	suggestions := make([]models.Suggestion, 0, len(results))
	for _, r := range results {
		loc := r.Geometry.Location
		suggestions = append(suggestions, models.Suggestion{
			PlaceName: r.FormattedAddress,
			Center:    models.Coordinates{Lon: loc.Lng, Lat: loc.Lat},
		})
	}
	return suggestions, nil
}
