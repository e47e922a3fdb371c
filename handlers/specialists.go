package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	specialistRepo "aroti/database/repository/specialist"
	"aroti/models"
	"aroti/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CatalogService is the read side of the specialist catalog.
type CatalogService interface {
	List(ctx context.Context, filter models.SpecialistFilter) ([]models.Specialist, error)
	Get(ctx context.Context, id string) (*models.Specialist, error)
	Reviews(ctx context.Context, specialistID string) ([]models.Review, error)
}

type SpecialistHandler struct {
	catalog CatalogService
	logger  *zap.Logger
}

func NewSpecialistHandler(catalog CatalogService, logger *zap.Logger) *SpecialistHandler {
	return &SpecialistHandler{catalog: catalog, logger: logger}
}

// ListSpecialists handles GET /api/specialists.
func (h *SpecialistHandler) ListSpecialists(c *gin.Context) {
	logger := getLogger(c, h.logger)

	filter, err := parseSpecialistFilter(c)
	if err != nil {
		utils.JSONError(c, logger, http.StatusBadRequest, "Invalid filter", err.Error())
		return
	}

	specialists, err := h.catalog.List(c.Request.Context(), filter)
	if err != nil {
		utils.JSONError(c, logger, http.StatusInternalServerError, "Failed to list specialists", err.Error())
		return
	}
	if specialists == nil {
		specialists = []models.Specialist{}
	}
	c.JSON(http.StatusOK, specialists)
}

// GetSpecialist handles GET /api/specialists/:id.
func (h *SpecialistHandler) GetSpecialist(c *gin.Context) {
	logger := getLogger(c, h.logger)
	id := c.Param("id")

	specialist, err := h.catalog.Get(c.Request.Context(), id)
	if errors.Is(err, specialistRepo.ErrNotFound) {
		utils.JSONError(c, logger, http.StatusNotFound, "Specialist not found", id)
		return
	}
	if err != nil {
		utils.JSONError(c, logger, http.StatusInternalServerError, "Failed to load specialist", err.Error())
		return
	}
	c.JSON(http.StatusOK, specialist)
}

// ListReviews handles GET /api/reviews/:specialistId.
func (h *SpecialistHandler) ListReviews(c *gin.Context) {
	logger := getLogger(c, h.logger)

	reviews, err := h.catalog.Reviews(c.Request.Context(), c.Param("specialistId"))
	if err != nil {
		utils.JSONError(c, logger, http.StatusInternalServerError, "Failed to list reviews", err.Error())
		return
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	c.JSON(http.StatusOK, reviews)
}

func parseSpecialistFilter(c *gin.Context) (models.SpecialistFilter, error) {
	var filter models.SpecialistFilter

	switch a := c.Query("availability"); a {
	case "", models.AvailabilityAvailable, models.AvailabilityUnavailable:
		filter.Availability = a
	default:
		return filter, errors.New("availability must be available or unavailable")
	}

	if v := c.Query("price_min"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, errors.New("price_min must be a non-negative integer")
		}
		filter.PriceMin = &n
	}
	if v := c.Query("price_max"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, errors.New("price_max must be a non-negative integer")
		}
		filter.PriceMax = &n
	}
	if filter.PriceMin != nil && filter.PriceMax != nil && *filter.PriceMin > *filter.PriceMax {
		return filter, errors.New("price_min exceeds price_max")
	}
	if v := c.Query("rating"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil || r < 0 || r > 5 {
			return filter, errors.New("rating must be between 0 and 5")
		}
		filter.MinRating = &r
	}
	if v := c.Query("languages"); v != "" {
		for _, lang := range strings.Split(v, ",") {
			if lang = strings.TrimSpace(lang); lang != "" {
				filter.Languages = append(filter.Languages, lang)
			}
		}
	}
	filter.Category = strings.TrimSpace(c.Query("category"))
	return filter, nil
}
