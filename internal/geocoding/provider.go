package geocoding

import (
	"context"
	"net/http"

	"fridgemap/internal/models"
)

// DefaultLimit is the number of suggestions requested from a provider.
const DefaultLimit = 5

// Provider turns free text into an ordered list of place suggestions.
// A blank query yields no suggestions and no error.
type Provider interface {
	Suggest(ctx context.Context, query string) ([]models.Suggestion, error)
}

// HTTPClient defines the interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
