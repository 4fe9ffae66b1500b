package mapview_test

import (
	"context"
	"testing"

	"fridgemap/internal/mapview"
	"fridgemap/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFridgeSource struct {
	mock.Mock
}

func (m *MockFridgeSource) ListFridges(ctx context.Context) ([]models.Fridge, error) {
	args := m.Called(ctx)
	f, _ := args.Get(0).([]models.Fridge)
	return f, args.Error(1)
}

type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Suggest(ctx context.Context, query string) ([]models.Suggestion, error) {
	args := m.Called(ctx, query)
	s, _ := args.Get(0).([]models.Suggestion)
	return s, args.Error(1)
}

type failingLocator struct{}

func (failingLocator) Locate(context.Context) (models.Coordinates, error) {
	return models.Coordinates{}, assert.AnError
}

func fridgeAt(id string, lon, lat float64) models.Fridge {
	return models.Fridge{ID: id, Location: &models.Location{Lat: lat, Lon: lon}}
}

func TestMapView_Mount(t *testing.T) {
	ctx := context.Background()
	here := models.Coordinates{Lon: -73.98, Lat: 40.75}

	tests := []struct {
		name           string
		locator        mapview.Locator
		expectedCenter models.Coordinates
	}{
		{name: "geolocation granted", locator: mapview.StaticLocator{Position: here}, expectedCenter: here},
		{name: "geolocation denied", locator: mapview.DeniedLocator{}, expectedCenter: mapview.DefaultViewport.Center},
		{name: "geolocation failed", locator: failingLocator{}, expectedCenter: mapview.DefaultViewport.Center},
		{name: "no locator", locator: nil, expectedCenter: mapview.DefaultViewport.Center},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := new(MockFridgeSource)
			source.On("ListFridges", ctx).Return([]models.Fridge{
				fridgeAt("a", -90.07, 29.95),
				{ID: "no-location"},
				fridgeAt("b", -90.04, 29.96),
			}, nil)

			view := mapview.New(source, new(MockGeocoder), tt.locator, mapview.DefaultViewport, zerolog.Nop())
			err := view.Mount(ctx)

			require.NoError(t, err)
			assert.Equal(t, tt.expectedCenter, view.Viewport().Center)
			assert.Equal(t, mapview.DefaultViewport.Zoom, view.Viewport().Zoom)
			assert.Equal(t, []mapview.Marker{
				{FridgeID: "a", Position: models.Coordinates{Lon: -90.07, Lat: 29.95}, Link: "/details/a"},
				{FridgeID: "b", Position: models.Coordinates{Lon: -90.04, Lat: 29.96}, Link: "/details/b"},
			}, view.Markers())
		})
	}
}

func TestMapView_Mount_EmptyList(t *testing.T) {
	source := new(MockFridgeSource)
	source.On("ListFridges", mock.Anything).Return([]models.Fridge{}, nil)

	view := mapview.New(source, new(MockGeocoder), nil, mapview.DefaultViewport, zerolog.Nop())

	require.NoError(t, view.Mount(context.Background()))
	assert.Empty(t, view.Markers())
	assert.Empty(t, view.VisibleMarkers(1024, 768))
}

func TestMapView_Mount_FetchError(t *testing.T) {
	source := new(MockFridgeSource)
	source.On("ListFridges", mock.Anything).Return(nil, assert.AnError)

	view := mapview.New(source, new(MockGeocoder), nil, mapview.DefaultViewport, zerolog.Nop())

	err := view.Mount(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, view.Markers())
}

func TestMapView_SelectSuggestion(t *testing.T) {
	ctx := context.Background()
	geocoder := new(MockGeocoder)
	geocoder.On("Suggest", ctx, "French Quarter").Return([]models.Suggestion{
		{PlaceName: "French Quarter, New Orleans", Center: models.Coordinates{Lon: -90.07, Lat: 29.95}},
		{PlaceName: "French Quarter, Elsewhere", Center: models.Coordinates{Lon: 1, Lat: 2}},
	}, nil)

	view := mapview.New(new(MockFridgeSource), geocoder, nil, mapview.Viewport{Zoom: 3}, zerolog.Nop())

	require.NoError(t, view.Type(ctx, "French Quarter"))
	assert.Len(t, view.Search().Suggestions, 2)

	require.NoError(t, view.Select(ctx, 0))

	assert.Equal(t, mapview.Viewport{Center: models.Coordinates{Lon: -90.07, Lat: 29.95}, Zoom: 14}, view.Viewport())
	assert.Equal(t, "", view.Search().Text)
	assert.Equal(t, mapview.SearchState{}, view.Search())
}

func TestMapView_Select_OutOfRange(t *testing.T) {
	view := mapview.New(new(MockFridgeSource), new(MockGeocoder), nil, mapview.DefaultViewport, zerolog.Nop())

	assert.ErrorIs(t, view.Select(context.Background(), 0), mapview.ErrNoSuggestion)
	assert.Equal(t, mapview.DefaultViewport, view.Viewport())
}

func TestMapView_Type(t *testing.T) {
	ctx := context.Background()

	t.Run("blank text clears suggestions without geocoding", func(t *testing.T) {
		geocoder := new(MockGeocoder)
		geocoder.On("Suggest", ctx, "Bywater").Return([]models.Suggestion{{PlaceName: "Bywater"}}, nil).Once()
		view := mapview.New(new(MockFridgeSource), geocoder, nil, mapview.DefaultViewport, zerolog.Nop())

		require.NoError(t, view.Type(ctx, "Bywater"))
		require.NoError(t, view.Type(ctx, "  "))

		assert.Empty(t, view.Search().Suggestions)
		assert.Equal(t, "  ", view.Search().Text)
		geocoder.AssertNumberOfCalls(t, "Suggest", 1)
	})

	t.Run("geocoder error", func(t *testing.T) {
		geocoder := new(MockGeocoder)
		geocoder.On("Suggest", ctx, "x").Return(nil, assert.AnError)
		view := mapview.New(new(MockFridgeSource), geocoder, nil, mapview.DefaultViewport, zerolog.Nop())

		err := view.Type(ctx, "x")

		assert.ErrorIs(t, err, assert.AnError)
		assert.Empty(t, view.Search().Suggestions)
	})
}

func TestMapView_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("geocodes the typed text and takes the first match", func(t *testing.T) {
		geocoder := new(MockGeocoder)
		geocoder.On("Suggest", ctx, "Marigny").Return([]models.Suggestion{
			{PlaceName: "Marigny", Center: models.Coordinates{Lon: -90.05, Lat: 29.965}},
			{PlaceName: "Marigny, France", Center: models.Coordinates{Lon: 3.1, Lat: 45.2}},
		}, nil)
		view := mapview.New(new(MockFridgeSource), geocoder, nil, mapview.DefaultViewport, zerolog.Nop())

		require.NoError(t, view.Type(ctx, "Marigny"))
		require.NoError(t, view.Submit(ctx))

		assert.Equal(t, models.Coordinates{Lon: -90.05, Lat: 29.965}, view.Viewport().Center)
		assert.Equal(t, mapview.SearchState{}, view.Search())
		geocoder.AssertNumberOfCalls(t, "Suggest", 1)
	})

	t.Run("geocodes again when typing failed", func(t *testing.T) {
		geocoder := new(MockGeocoder)
		geocoder.On("Suggest", ctx, "Treme").Return(nil, assert.AnError).Once()
		geocoder.On("Suggest", ctx, "Treme").Return([]models.Suggestion{
			{PlaceName: "Treme", Center: models.Coordinates{Lon: -90.07, Lat: 29.97}},
		}, nil).Once()
		view := mapview.New(new(MockFridgeSource), geocoder, nil, mapview.DefaultViewport, zerolog.Nop())

		require.Error(t, view.Type(ctx, "Treme"))
		require.NoError(t, view.Submit(ctx))

		assert.Equal(t, models.Coordinates{Lon: -90.07, Lat: 29.97}, view.Viewport().Center)
		geocoder.AssertNumberOfCalls(t, "Suggest", 2)
	})

	t.Run("empty search", func(t *testing.T) {
		view := mapview.New(new(MockFridgeSource), new(MockGeocoder), nil, mapview.DefaultViewport, zerolog.Nop())

		assert.ErrorIs(t, view.Submit(ctx), mapview.ErrNothingToSubmit)
	})

	t.Run("no match keeps the viewport and the text", func(t *testing.T) {
		geocoder := new(MockGeocoder)
		geocoder.On("Suggest", ctx, "zzzz").Return([]models.Suggestion{}, nil)
		view := mapview.New(new(MockFridgeSource), geocoder, nil, mapview.DefaultViewport, zerolog.Nop())

		require.NoError(t, view.Type(ctx, "zzzz"))
		err := view.Submit(ctx)

		assert.ErrorIs(t, err, mapview.ErrNothingToSubmit)
		assert.Equal(t, mapview.DefaultViewport, view.Viewport())
		assert.Equal(t, "zzzz", view.Search().Text)
		geocoder.AssertNumberOfCalls(t, "Suggest", 1)
	})
}

func TestMapView_VisibleMarkers(t *testing.T) {
	ctx := context.Background()
	source := new(MockFridgeSource)
	source.On("ListFridges", ctx).Return([]models.Fridge{
		fridgeAt("center", -90.071533, 29.951065),
		fridgeAt("east-outside", -90.04, 29.951),
		fridgeAt("west-inside", -90.08, 29.95),
		fridgeAt("north-outside", -90.07, 29.97),
		fridgeAt("far-away", 2.35, 48.85),
	}, nil)

	view := mapview.New(source, new(MockGeocoder), nil, mapview.DefaultViewport, zerolog.Nop())
	require.NoError(t, view.Mount(ctx))

	var ids []string
	for _, m := range view.VisibleMarkers(1024, 768) {
		ids = append(ids, m.FridgeID)
	}
	assert.Equal(t, []string{"center", "west-inside"}, ids)

	view.FlyTo(models.Coordinates{Lon: 2.35, Lat: 48.85})
	visible := view.VisibleMarkers(1024, 768)
	require.Len(t, visible, 1)
	assert.Equal(t, "far-away", visible[0].FridgeID)
}
