package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
	_ "time/tzdata" // zone names must load on hosts without zoneinfo

	"github.com/gin-gonic/gin"

	"go.ngs.io/pollen-api/internal/adapter/grid"
	"go.ngs.io/pollen-api/internal/domain"
	"go.ngs.io/pollen-api/internal/usecase"
)

// Handler handles HTTP requests for pollen forecasts.
type Handler struct {
	forecastUC *usecase.ForecastUseCase
	cache      *usecase.SnapshotCache
}

// NewHandler creates a new HTTP handler.
func NewHandler(forecastUC *usecase.ForecastUseCase, cache *usecase.SnapshotCache) *Handler {
	return &Handler{
		forecastUC: forecastUC,
		cache:      cache,
	}
}

// PollenResponse is the body of GET /v1/pollen.
type PollenResponse struct {
	Attribution string                 `json:"attribution"`
	Location    string                 `json:"location"`
	Timezone    string                 `json:"timezone"`
	FetchedAt   string                 `json:"fetched_at"`
	Pollen      []domain.Reading       `json:"pollen"`
	Days        []usecase.DailySummary `json:"days"`
}

// GetPollen handles GET /v1/pollen.
func (h *Handler) GetPollen(c *gin.Context) {
	latStr := c.Query("lat")
	lonStr := c.Query("lon")
	tzName := c.Query("tz")

	if latStr == "" || lonStr == "" {
		setCacheControl(c, h.cache.TimeUntilStale())
		c.JSON(http.StatusBadRequest, gin.H{"error": "?lat=&lon= query params missing"})
		return
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid latitude: %v", err)})
		return
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid longitude: %v", err)})
		return
	}

	req := usecase.ForecastRequest{Lat: lat, Lon: lon}
	if tzName != "" {
		loc, err := time.LoadLocation(tzName)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid timezone %q", tzName)})
			return
		}
		req.Location = loc
	}

	resp, err := h.forecastUC.Execute(req)
	if err != nil {
		var vErr *usecase.ValidationError
		switch {
		case errors.As(err, &vErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Msg})
		case errors.Is(err, grid.ErrOutOfRange):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "forecast data does not cover the requested period"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	setCacheControl(c, resp.MaxAge)
	c.JSON(http.StatusOK, PollenResponse{
		Attribution: resp.Attribution,
		Location:    resp.Location,
		Timezone:    resp.Timezone,
		FetchedAt:   resp.FetchedAt.UTC().Format(time.RFC3339),
		Pollen:      resp.Readings,
		Days:        resp.Days,
	})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	snap := h.cache.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":              "ok",
		"time":                time.Now().UTC().Format(time.RFC3339),
		"snapshot_id":         snap.ID(),
		"fetched_at":          snap.FetchedAt().UTC().Format(time.RFC3339),
		"stale":               h.cache.IsStaleFor(snap),
		"seconds_until_stale": int64(h.cache.TimeUntilStaleFor(snap).Seconds()),
	})
}

func setCacheControl(c *gin.Context, maxAge time.Duration) {
	c.Header("Cache-Control", fmt.Sprintf("public, s-maxage=%d, must-revalidate", int64(maxAge.Seconds())))
}
