package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/existflow/habitgrid/internal/db"
	"github.com/existflow/habitgrid/internal/logger"
)

// requestLogger logs every request with the id the client sent, or the one
// the RequestID middleware generated
func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()

		err := next(c)
		if err != nil {
			// Let echo write the error so the status below is final
			c.Error(err)
		}

		res := c.Response()
		requestID := req.Header.Get(echo.HeaderXRequestID)
		if requestID == "" {
			requestID = res.Header().Get(echo.HeaderXRequestID)
		}

		fields := []logger.Field{
			logger.F("method", req.Method),
			logger.F("uri", req.RequestURI),
			logger.F("status", res.Status),
			logger.F("size", res.Size),
			logger.F("duration", time.Since(start).String()),
			logger.F("requestID", requestID),
		}
		if res.Status >= http.StatusInternalServerError {
			logger.Error("HTTP Response", fields...)
		} else {
			logger.Info("HTTP Response", fields...)
		}
		return nil
	}
}

// errorJSON writes {"error": msg} with the given status
func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

// storeError maps storage errors onto HTTP statuses
func storeError(c echo.Context, op string, err error) error {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return errorJSON(c, http.StatusNotFound, op+": not found")
	case errors.Is(err, db.ErrConflict):
		return errorJSON(c, http.StatusConflict, err.Error())
	default:
		logger.Error("Storage failure", logger.F("op", op), logger.F("error", err))
		return errorJSON(c, http.StatusInternalServerError, op+" failed")
	}
}

// idParam parses a positive integer path parameter
func idParam(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
