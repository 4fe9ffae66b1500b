package geocoding

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"googlemaps.github.io/maps"
)

// ProviderType names a geocoding backend.
type ProviderType string

const (
	ProviderTypeMapbox    ProviderType = "mapbox"
	ProviderTypeNominatim ProviderType = "nominatim"
	ProviderTypeGoogle    ProviderType = "google"
)

// ProviderConfig holds configuration for creating a geocoding provider.
type ProviderConfig struct {
	Type         ProviderType
	MapboxToken  string
	GoogleAPIKey string
	NominatimURL string
	Limit        int
	Logger       zerolog.Logger
}

// NewProvider creates the geocoding provider named by config.Type.
func NewProvider(config ProviderConfig) (Provider, error) {
	if config.Limit <= 0 {
		config.Limit = DefaultLimit
	}

	switch config.Type {
	case ProviderTypeMapbox:
		if config.MapboxToken == "" {
			return nil, errors.New("geocoding: access token is required for mapbox provider")
		}
		return NewMapboxProvider(newHTTPClient(), config.MapboxToken, config.Limit, config.Logger), nil
	case ProviderTypeNominatim:
		return NewNominatimProvider(newHTTPClient(), config.NominatimURL, config.Limit, config.Logger), nil
	case ProviderTypeGoogle:
		if config.GoogleAPIKey == "" {
			return nil, errors.New("geocoding: API key is required for google provider")
		}
		client, err := maps.NewClient(maps.WithAPIKey(config.GoogleAPIKey))
		if err != nil {
			return nil, fmt.Errorf("geocoding: failed to create Google Maps client: %w", err)
		}
		return NewGoogleProvider(client, config.Limit, config.Logger), nil
	default:
		return nil, fmt.Errorf("geocoding: unsupported provider type: %q", config.Type)
	}
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}
