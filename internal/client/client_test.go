package client_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"fridgemap/internal/client"
	"fridgemap/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fridgeID = "3f2b8c1e-4d5a-4b6c-9e7f-0a1b2c3d4e5f"

func newTestClient(t *testing.T, handler http.HandlerFunc) *client.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := client.New(srv.URL+"/api/fridges", nil)
	require.NoError(t, err)
	return c
}

func TestClient_ListFridges(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/fridges/", r.URL.Path)
		_, _ = io.WriteString(w, `[
			{"id":"a","location":{"lat":29.95,"lon":-90.07},"name":"Corner Fridge"},
			{"id":"b","location":{"lat":29.96,"lon":-90.04}}
		]`)
	})

	fridges, err := c.ListFridges(context.Background())

	require.NoError(t, err)
	require.Len(t, fridges, 2)
	assert.Equal(t, "a", fridges[0].ID)
	assert.Equal(t, &models.Location{Lat: 29.95, Lon: -90.07}, fridges[0].Location)
	assert.JSONEq(t, `"Corner Fridge"`, string(fridges[0].Fields["name"]))
}

func TestClient_ListFridges_Empty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})

	fridges, err := c.ListFridges(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, fridges)
	assert.Empty(t, fridges)
}

func TestClient_GetFridge(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/fridges/"+fridgeID, r.URL.Path)
			_, _ = io.WriteString(w, `{"id":"`+fridgeID+`","location":{"lat":1,"lon":2}}`)
		})

		fridge, err := c.GetFridge(context.Background(), fridgeID)

		require.NoError(t, err)
		assert.Equal(t, fridgeID, fridge.ID)
	})

	t.Run("not found", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":"fridge not found"}`)
		})

		_, err := c.GetFridge(context.Background(), fridgeID)

		var apiErr *client.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
		assert.Equal(t, "fridge not found", apiErr.Message)
		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.True(t, client.IsNotFound(err))
	})

	t.Run("server error without json body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		})

		_, err := c.GetFridge(context.Background(), fridgeID)

		var apiErr *client.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "boom", apiErr.Message)
		assert.False(t, client.IsNotFound(err))
	})
}

func TestClient_CreateFridge(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Corner Fridge", body["name"])
		assert.Equal(t, map[string]any{"lat": 29.95, "lon": -90.07}, body["location"])
		assert.NotContains(t, body, "id")

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"`+fridgeID+`","location":{"lat":29.95,"lon":-90.07},"name":"Corner Fridge"}`)
	})

	created, err := c.CreateFridge(context.Background(), models.Fridge{
		Location: &models.Location{Lat: 29.95, Lon: -90.07},
		Fields:   map[string]json.RawMessage{"name": json.RawMessage(`"Corner Fridge"`)},
	})

	require.NoError(t, err)
	assert.Equal(t, fridgeID, created.ID)
}

func TestClient_UpdateFridge(t *testing.T) {
	t.Run("updated", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/api/fridges/"+fridgeID, r.URL.Path)
			raw, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"status":"stocked"}`, string(raw))
			_, _ = io.WriteString(w, `{"id":"`+fridgeID+`","location":{"lat":1,"lon":2},"status":"stocked"}`)
		})

		updated, err := c.UpdateFridge(context.Background(), fridgeID, models.FieldDelta{"status": json.RawMessage(`"stocked"`)})

		require.NoError(t, err)
		assert.JSONEq(t, `"stocked"`, string(updated.Fields["status"]))
	})

	t.Run("validation error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"validation failed"}`)
		})

		_, err := c.UpdateFridge(context.Background(), fridgeID, models.FieldDelta{"id": json.RawMessage(`"x"`)})

		assert.ErrorIs(t, err, models.ErrValidation)
	})
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := client.New("/api/fridges/", nil)

	assert.Error(t, err)
}
