package notifier

import (
	"context"
	"time"
)

// DonationEvent is published for downstream consumers (analytics, donor CRM)
// after a donation is fulfilled. It never gates the webhook response.
type DonationEvent struct {
	FulfillmentID  string    `json:"fulfillment_id"`
	CaptureID      string    `json:"capture_id"`
	DonorName      string    `json:"donor_name"`
	DonorEmail     string    `json:"donor_email"`
	Amount         string    `json:"amount"`
	Currency       string    `json:"currency"`
	AcknowledgedBy string    `json:"acknowledged_by"` // generated|fallback
	CompletedAt    time.Time `json:"completed_at"`
}

type Notifier interface {
	Notify(ctx context.Context, event DonationEvent) error
	Close() error
}

// Noop is used when no broker is configured.
type Noop struct{}

func (Noop) Notify(context.Context, DonationEvent) error { return nil }
func (Noop) Close() error                                { return nil }
