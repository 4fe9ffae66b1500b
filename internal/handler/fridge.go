package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"fridgemap/internal/models"
	"fridgemap/internal/service"
	"fridgemap/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// MaxImageSize is the largest image accepted by the upload endpoint.
const MaxImageSize = 10 << 20

// FridgeService interface for dependency injection
type FridgeService interface {
	CreateFridge(ctx context.Context, fridge models.Fridge) (*models.Fridge, error)
	GetFridgeByID(ctx context.Context, id string) (*models.Fridge, error)
	ListFridges(ctx context.Context) ([]models.Fridge, error)
	UpdateFridgeField(ctx context.Context, id string, delta models.FieldDelta) (*models.Fridge, error)
	AddFridgeImage(ctx context.Context, id string, img storage.Image) (*models.Fridge, error)
}

// FridgeHandler handles the fridge REST endpoints
type FridgeHandler struct {
	service FridgeService
	log     zerolog.Logger
}

// NewFridgeHandler creates a new fridge handler
func NewFridgeHandler(svc FridgeService, log zerolog.Logger) *FridgeHandler {
	return &FridgeHandler{service: svc, log: log}
}

// ListFridges godoc
// @Summary      List fridges
// @Description  Returns every fridge in insertion order.
// @Tags         fridges
// @Produce      json
// @Success      200  {array}   object
// @Failure      500  {object}  ErrorResponse
// @Router       /api/fridges/ [get]
func (h *FridgeHandler) ListFridges(c *gin.Context) {
	fridges, err := h.service.ListFridges(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, fridges)
}

// CreateFridge godoc
// @Summary      Create a fridge
// @Description  Stores a new fridge. The id and timestamps are assigned by the server and may not be sent.
// @Tags         fridges
// @Accept       json
// @Produce      json
// @Param        fridge  body      object  true  "fridge document with a location"
// @Success      201     {object}  object
// @Failure      400     {object}  ErrorResponse
// @Failure      500     {object}  ErrorResponse
// @Router       /api/fridges/ [post]
func (h *FridgeHandler) CreateFridge(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	fridge, err := models.DecodeNewFridge(data)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	created, err := h.service.CreateFridge(c.Request.Context(), fridge)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GetFridge godoc
// @Summary      Get a fridge
// @Tags         fridges
// @Produce      json
// @Param        id   path      string  true  "fridge id"
// @Success      200  {object}  object
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /api/fridges/{id} [get]
func (h *FridgeHandler) GetFridge(c *gin.Context) {
	fridge, err := h.service.GetFridgeByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, fridge)
}

// UpdateFridge godoc
// @Summary      Update fridge fields
// @Description  Sets the given fields. Fields not present in the body are left unchanged.
// @Tags         fridges
// @Accept       json
// @Produce      json
// @Param        id     path      string  true  "fridge id"
// @Param        delta  body      object  true  "fields to set"
// @Success      200    {object}  object
// @Failure      400    {object}  ErrorResponse
// @Failure      404    {object}  ErrorResponse
// @Failure      500    {object}  ErrorResponse
// @Router       /api/fridges/{id} [put]
func (h *FridgeHandler) UpdateFridge(c *gin.Context) {
	var delta models.FieldDelta
	if err := c.ShouldBindJSON(&delta); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if delta == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: expected a JSON object"})
		return
	}

	updated, err := h.service.UpdateFridgeField(c.Request.Context(), c.Param("id"), delta)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// UploadImage godoc
// @Summary      Upload a fridge image
// @Description  Stores the image and appends its URL to the fridge's images.
// @Tags         fridges
// @Accept       multipart/form-data
// @Produce      json
// @Param        id     path      string  true  "fridge id"
// @Param        image  formData  file    true  "jpeg, png, webp or gif image"
// @Success      200    {object}  object
// @Failure      400    {object}  ErrorResponse
// @Failure      404    {object}  ErrorResponse
// @Failure      503    {object}  ErrorResponse
// @Router       /api/fridges/{id}/images [post]
func (h *FridgeHandler) UploadImage(c *gin.Context) {
	header, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required form file 'image'"})
		return
	}
	if header.Size > MaxImageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image is too large"})
		return
	}

	file, err := header.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer file.Close()

	updated, err := h.service.AddFridgeImage(c.Request.Context(), c.Param("id"), storage.Image{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// fail maps service errors onto HTTP statuses.
func (h *FridgeHandler) fail(c *gin.Context, err error) {
	var syntaxErr *json.SyntaxError
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": models.ErrNotFound.Error()})
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrImagesUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.As(err, &syntaxErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
