package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"fridgemap/internal/mapview"
	"fridgemap/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fridgesJSON = `[
	{"id":"a","location":{"lat":29.951065,"lon":-90.071533},"name":"Corner Fridge"},
	{"id":"b","location":{"lat":29.9638,"lon":-90.0422},"name":"Bywater Fridge"}
]`

// newFakeBackend serves the fridge API and a Nominatim-compatible search endpoint.
// The returned counter tracks geocoder requests.
func newFakeBackend(t *testing.T) *atomic.Int32 {
	t.Helper()
	var searches atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/fridges/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/fridges/":
			_, _ = io.WriteString(w, fridgesJSON)
		case r.Method == http.MethodPut && r.URL.Path == "/api/fridges/a":
			var delta map[string]json.RawMessage
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&delta))
			assert.JSONEq(t, `"stocked"`, string(delta["status"]))
			assert.JSONEq(t, `{"lat":29.95,"lon":-90.07}`, string(delta["location"]))
			_, _ = io.WriteString(w, `{"id":"a","location":{"lat":29.95,"lon":-90.07},"status":"stocked"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":"fridge not found"}`)
		}
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		searches.Add(1)
		assert.Equal(t, "Bywater", r.URL.Query().Get("q"))
		_, _ = io.WriteString(w, `[{"display_name":"Bywater, New Orleans","lat":"29.9638","lon":"-90.0422"}]`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	t.Setenv("FRIDGE_API_URL", srv.URL+"/api/fridges/")
	t.Setenv("GEOCODER_PROVIDER", "nominatim")
	t.Setenv("NOMINATIM_URL", srv.URL)
	return &searches
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMapCommand(t *testing.T) {
	newFakeBackend(t)

	out, err := run(t, "map")
	require.NoError(t, err)

	var state mapState
	require.NoError(t, json.Unmarshal([]byte(out), &state))
	assert.Equal(t, models.Coordinates{Lon: -90.071533, Lat: 29.951065}, state.Viewport.Center)
	require.Len(t, state.Markers, 1)
	assert.Equal(t, mapview.Marker{
		FridgeID: "a",
		Position: models.Coordinates{Lon: -90.071533, Lat: 29.951065},
		Link:     "/details/a",
	}, state.Markers[0])
}

func TestMapCommand_Here(t *testing.T) {
	newFakeBackend(t)

	out, err := run(t, "map", "--here", "-90.0422,29.9638")
	require.NoError(t, err)

	var state mapState
	require.NoError(t, json.Unmarshal([]byte(out), &state))
	assert.Equal(t, models.Coordinates{Lon: -90.0422, Lat: 29.9638}, state.Viewport.Center)
	require.Len(t, state.Markers, 1)
	assert.Equal(t, "b", state.Markers[0].FridgeID)
}

func TestGotoCommand(t *testing.T) {
	searches := newFakeBackend(t)

	out, err := run(t, "goto", "Bywater")
	require.NoError(t, err)

	var state mapState
	require.NoError(t, json.Unmarshal([]byte(out), &state))
	assert.Equal(t, mapview.Viewport{Center: models.Coordinates{Lon: -90.0422, Lat: 29.9638}, Zoom: 14}, state.Viewport)
	require.Len(t, state.Markers, 1)
	assert.Equal(t, "b", state.Markers[0].FridgeID)
	assert.Equal(t, int32(1), searches.Load())
}

func TestSearchCommand(t *testing.T) {
	newFakeBackend(t)

	out, err := run(t, "search", "Bywater")

	require.NoError(t, err)
	assert.Equal(t, "0\tBywater, New Orleans\t-90.042200,29.963800\n", out)
}

func TestFridgesCommands(t *testing.T) {
	newFakeBackend(t)

	t.Run("list", func(t *testing.T) {
		out, err := run(t, "fridges", "list")
		require.NoError(t, err)

		var fridges []map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &fridges))
		assert.Len(t, fridges, 2)
	})

	t.Run("get unknown", func(t *testing.T) {
		_, err := run(t, "fridges", "get", "missing")

		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("update", func(t *testing.T) {
		out, err := run(t, "fridges", "update", "a", "--field", "status=stocked", "--lat", "29.95", "--lon", "-90.07")
		require.NoError(t, err)
		assert.Contains(t, out, `"status": "stocked"`)
	})

	t.Run("update needs both coordinates", func(t *testing.T) {
		_, err := run(t, "fridges", "update", "a", "--lat", "29.95")

		assert.Error(t, err)
	})
}

func TestParseFields(t *testing.T) {
	fields, err := parseFields([]string{"name=Corner Fridge", "stocked=true", `hours={"open":8}`, "note="})

	require.NoError(t, err)
	assert.Equal(t, map[string]json.RawMessage{
		"name":    json.RawMessage(`"Corner Fridge"`),
		"stocked": json.RawMessage(`true`),
		"hours":   json.RawMessage(`{"open":8}`),
		"note":    json.RawMessage(`""`),
	}, fields)

	_, err = parseFields([]string{"no-equals-sign"})
	assert.Error(t, err)

	_, err = parseFields([]string{"=value"})
	assert.Error(t, err)
}

func TestParseCoordinates(t *testing.T) {
	c, err := parseCoordinates("-90.07, 29.95")
	require.NoError(t, err)
	assert.Equal(t, models.Coordinates{Lon: -90.07, Lat: 29.95}, c)

	for _, bad := range []string{"", "-90.07", "x,1", "1,y", "200,0", "0,95"} {
		_, err := parseCoordinates(bad)
		assert.Error(t, err, bad)
	}
}
