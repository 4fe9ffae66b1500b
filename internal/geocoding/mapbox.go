package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"fridgemap/internal/models"

	"github.com/rs/zerolog"
)

const mapboxBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places/"

// MapboxProvider suggests places with the Mapbox forward geocoding API.
type MapboxProvider struct {
	client  HTTPClient
	baseURL string
	token   string
	limit   int
	log     zerolog.Logger
}

type mapboxResponse struct {
	Features []struct {
		PlaceName string    `json:"place_name"`
		Center    []float64 `json:"center"`
	} `json:"features"`
}

// NewMapboxProvider creates a Mapbox provider using the given access token.
func NewMapboxProvider(client HTTPClient, token string, limit int, log zerolog.Logger) *MapboxProvider {
	return &MapboxProvider{client: client, baseURL: mapboxBaseURL, token: token, limit: limit, log: log}
}

// WithBaseURL points the provider at another endpoint.
func (p *MapboxProvider) WithBaseURL(baseURL string) *MapboxProvider {
	p.baseURL = strings.TrimSuffix(baseURL, "/") + "/"
	return p
}

// Suggest returns up to the configured number of Mapbox places matching query.
func (p *MapboxProvider) Suggest(ctx context.Context, query string) ([]models.Suggestion, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("access_token", p.token)
	params.Set("autocomplete", "true")
	params.Set("limit", strconv.Itoa(p.limit))
	reqURL := p.baseURL + url.PathEscape(query) + ".json?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("geocoding: failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding: mapbox request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("geocoding: mapbox returned status %d: %s", resp.StatusCode, body)
	}

	var decoded mapboxResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("geocoding: failed to decode mapbox response: %w", err)
	}

	suggestions := make([]models.Suggestion, 0, len(decoded.Features))
	for _, f := range decoded.Features {
		if len(f.Center) != 2 {
			p.log.Debug().Str("place", f.PlaceName).Msg("skipping mapbox feature without center")
			continue
		}
		suggestions = append(suggestions, models.Suggestion{
			PlaceName: f.PlaceName,
			Center:    models.Coordinates{Lon: f.Center[0], Lat: f.Center[1]},
		})
	}
	return suggestions, nil
}
