package handlers

import (
	"log/slog"
	"net/http"
	"path/filepath"

	"tariff-backtest/internal/api/models"
	"tariff-backtest/internal/config"

	"github.com/gin-gonic/gin"
)

// TariffHandler lists tariff presets
type TariffHandler struct {
	tariffDir string
	logger    *slog.Logger
}

func NewTariffHandler(dir string, logger *slog.Logger) *TariffHandler {
	// Convert to absolute path for reliability
	if absDir, err := filepath.Abs(dir); err == nil {
		dir = absDir
	}
	logger = logger.With("module", "tariffs")
	logger.Info("using tariff directory", slog.String("dir", dir))
	return &TariffHandler{tariffDir: dir, logger: logger}
}

// Dir returns the resolved preset directory.
func (h *TariffHandler) Dir() string {
	return h.tariffDir
}

// ListTariffs handles GET /api/v1/tariffs
func (h *TariffHandler) ListTariffs(c *gin.Context) {
	tariffs := []models.TariffInfo{}

	loaded, skipped, err := config.LoadTariffs(h.tariffDir)
	if err != nil {
		h.logger.Warn("failed to read tariff directory", slog.String("dir", h.tariffDir), slog.Any("error", err))
		c.JSON(http.StatusOK, gin.H{"tariffs": tariffs})
		return
	}
	for name, err := range skipped {
		h.logger.Warn("skipping tariff file", slog.String("file", name), slog.Any("error", err))
	}

	for _, t := range loaded {
		tariffs = append(tariffs, models.TariffInfo{
			ID:              t.ID,
			Name:            t.Name,
			Provider:        t.Provider,
			File:            t.File,
			FixedCosts:      t.FixedCosts,
			SurchargePerKWh: t.SurchargePerKWh,
			Description:     t.Description,
		})
	}
	c.JSON(http.StatusOK, gin.H{"tariffs": tariffs})
}
