package handlers

import (
	"net/http"
	"time"

	"tariff-backtest/internal/api/models"
	"tariff-backtest/internal/data"

	"github.com/gin-gonic/gin"
)

// PricesHandler serves day-ahead prices through the shared price cache.
type PricesHandler struct {
	client *data.DayAheadClient
}

func NewPricesHandler(client *data.DayAheadClient) *PricesHandler {
	return &PricesHandler{client: client}
}

// GetPrices handles GET /api/v1/prices?date=YYYY-MM-DD[&tz=Europe/Berlin]
func (h *PricesHandler) GetPrices(c *gin.Context) {
	var q models.PricesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}

	loc := time.UTC
	if q.Timezone != "" {
		l, err := time.LoadLocation(q.Timezone)
		if err != nil {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "unknown timezone: "+q.Timezone, nil)
			return
		}
		loc = l
	}
	day, err := time.ParseInLocation("2006-01-02", q.Date, loc)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid date format (expected YYYY-MM-DD)", nil)
		return
	}

	samples, err := h.client.GetDayAheadPrices(c.Request.Context(), day)
	if err != nil {
		writeProviderError(c, err)
		return
	}

	resp := models.PricesResponse{Date: q.Date, Prices: make([]models.PricePoint, 0, len(samples))}
	for _, s := range samples {
		resp.Prices = append(resp.Prices, models.PricePoint{Timestamp: s.Timestamp.In(loc), Price: s.Price})
	}
	c.JSON(http.StatusOK, resp)
}
