package handlers

import (
	"errors"
	"net/http"

	"tariff-backtest/internal/api/models"
	"tariff-backtest/internal/backtest"
	"tariff-backtest/internal/calculator"
	"tariff-backtest/internal/data"

	"github.com/gin-gonic/gin"
)

func writeError(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// writeCalculationError maps a calculator error kind to a status and error code.
func writeCalculationError(c *gin.Context, err error) {
	var ce *calculator.Error
	if !errors.As(err, &ce) {
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error(), nil)
		return
	}

	switch ce.Kind {
	case calculator.KindValidation:
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", ce.Err.Error(), nil)
	case calculator.KindParse:
		var details map[string]interface{}
		var pe *data.ParseError
		if errors.As(ce.Err, &pe) {
			details = map[string]interface{}{}
			if pe.Line > 0 {
				details["line"] = pe.Line
			}
			if pe.Field != "" {
				details["field"] = pe.Field
			}
			if pe.Value != "" {
				details["value"] = pe.Value
			}
		}
		writeError(c, http.StatusBadRequest, "PARSE_ERROR", ce.Err.Error(), details)
	case calculator.KindSimulation:
		writeError(c, http.StatusBadRequest, "SIMULATION_ERROR", ce.Err.Error(), nil)
	case calculator.KindEvaluation:
		_ = c.Error(err)
		var details map[string]interface{}
		var ee *backtest.EvaluationError
		if errors.As(ce.Err, &ee) && ee.Msg == "" {
			details = map[string]interface{}{"index": ee.Index}
		}
		writeError(c, http.StatusInternalServerError, "EVALUATION_ERROR", ce.Err.Error(), details)
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", ce.Err.Error(), nil)
	}
}

func writeProviderError(c *gin.Context, err error) {
	var pe *data.ProviderError
	if errors.As(err, &pe) {
		status := http.StatusBadGateway
		if pe.StatusCode == http.StatusTooManyRequests {
			status = http.StatusTooManyRequests
		}
		writeError(c, status, pe.Code, pe.Message, map[string]interface{}{
			"status_code": pe.StatusCode,
			"retry_after": pe.RetryAfter,
		})
		return
	}
	_ = c.Error(err)
	writeError(c, http.StatusBadGateway, "DATA_FETCH_ERROR", err.Error(), nil)
}
