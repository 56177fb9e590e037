package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/givepoint/donation-gateway/internal/fulfillment"
	"github.com/givepoint/donation-gateway/internal/ingest"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

const maxEventBytes = 1 << 20 // processor events are small; 1MB is generous

// Processor runs one webhook event through the fulfillment pipeline.
type Processor interface {
	Process(ctx context.Context, body []byte) (fulfillment.Status, error)
}

// webhookHandler acknowledges processor deliveries. 200 means the event was
// received and either fulfilled or deliberately skipped; 500 tells the
// processor the notification side effect did not complete.
func webhookHandler(svc Processor) echo.HandlerFunc {
	return func(c echo.Context) error {
		body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxEventBytes))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		status, perr := svc.Process(c.Request().Context(), body)
		switch status {
		case fulfillment.StatusCompleted:
			return c.JSON(http.StatusOK, map[string]any{"received": true})
		case fulfillment.StatusIgnored:
			return c.JSON(http.StatusOK, map[string]any{"received": true, "ignored": true})
		case fulfillment.StatusDuplicate:
			return c.JSON(http.StatusOK, map[string]any{"received": true, "duplicate": true})
		default:
			var verr *ingest.ValidationError
			if errors.As(perr, &verr) {
				log.Warnf("rejected malformed event: %v", perr)
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "invalid event"})
			}

			log.Errorf("fulfillment failed: %v", perr)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "fulfillment failed"})
		}
	}
}

// livenessHandler answers the endpoint-registration probe.
func livenessHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.String(http.StatusOK, "donation-gateway webhook endpoint")
	}
}
