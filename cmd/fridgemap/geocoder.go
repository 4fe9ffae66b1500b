package main

import (
	"context"

	"fridgemap/internal/config"
	"fridgemap/internal/geocoding"
	"fridgemap/internal/models"

	"github.com/rs/zerolog/log"
)

// lazyGeocoder builds the configured provider on first use, so commands that
// never search do not need a geocoding token.
type lazyGeocoder struct {
	cfg      config.ClientConfig
	provider geocoding.Provider
}

func (g *lazyGeocoder) Suggest(ctx context.Context, query string) ([]models.Suggestion, error) {
	if g.provider == nil {
		provider, err := geocoding.NewProvider(geocoding.ProviderConfig{
			Type:         geocoding.ProviderType(g.cfg.GeocoderProvider),
			MapboxToken:  g.cfg.MapboxToken,
			GoogleAPIKey: g.cfg.GoogleMapsAPIKey,
			NominatimURL: g.cfg.NominatimURL,
			Logger:       log.Logger,
		})
		if err != nil {
			return nil, err
		}
		g.provider = provider
	}
	return g.provider.Suggest(ctx, query)
}
