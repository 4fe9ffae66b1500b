package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"fridgemap/internal/models"

	"github.com/rs/zerolog"
)

const (
	nominatimBaseURL   = "https://nominatim.openstreetmap.org"
	nominatimUserAgent = "fridgemap/1.0"
)

// ErrInvalidCoordinates is returned when a provider answers with unparsable coordinates.
var ErrInvalidCoordinates = errors.New("geocoding: provider returned invalid coordinates")

// NominatimProvider suggests places with OpenStreetMap's Nominatim search API.
// Public Nominatim allows about one request per second.
type NominatimProvider struct {
	client  HTTPClient
	baseURL string
	limit   int
	log     zerolog.Logger
}

type nominatimResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// NewNominatimProvider creates a Nominatim provider. An empty baseURL selects the public instance.
func NewNominatimProvider(client HTTPClient, baseURL string, limit int, log zerolog.Logger) *NominatimProvider {
	if baseURL == "" {
		baseURL = nominatimBaseURL
	}
	return &NominatimProvider{client: client, baseURL: strings.TrimSuffix(baseURL, "/"), limit: limit, log: log}
}

// Suggest returns up to the configured number of OpenStreetMap places matching query.
func (p *NominatimProvider) Suggest(ctx context.Context, query string) ([]models.Suggestion, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(p.limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("geocoding: failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", nominatimUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding: nominatim request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("geocoding: nominatim returned status %d: %s", resp.StatusCode, body)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("geocoding: failed to decode nominatim response: %w", err)
	}

	suggestions := make([]models.Suggestion, 0, len(results))
	for _, r := range results {
		lat, err := strconv.ParseFloat(r.Lat, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: latitude %q", ErrInvalidCoordinates, r.Lat)
		}
		lon, err := strconv.ParseFloat(r.Lon, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: longitude %q", ErrInvalidCoordinates, r.Lon)
		}
		suggestions = append(suggestions, models.Suggestion{
			PlaceName: r.DisplayName,
			Center:    models.Coordinates{Lon: lon, Lat: lat},
		})
	}

	p.log.Debug().Str("query", query).Int("results", len(suggestions)).Msg("nominatim suggestions")
	return suggestions, nil
}
