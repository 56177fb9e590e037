package ingest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/givepoint/donation-gateway/internal/model"
	"github.com/givepoint/donation-gateway/internal/util"
)

// EventCaptureCompleted is the only processor event type this pipeline
// fulfills; everything else is acknowledged and filtered.
const EventCaptureCompleted = "PAYMENT.CAPTURE.COMPLETED"

type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeValidated
)

// ValidationError marks an event that can never become a donation: the
// processor may redeliver it, but the payload will not self-correct.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid event: %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Ingest parses a raw webhook body, filters by event type and reconstructs
// the donor intent embedded in the order metadata. It is a pure
// parse/validate step with no side effects.
//
// A non-capture event returns OutcomeIgnored with no error; callers must
// still acknowledge receipt to the processor.
func Ingest(body []byte) (Outcome, model.Donation, error) {
	var evt model.PaymentEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return OutcomeIgnored, model.Donation{}, invalid("body", "not a JSON event")
	}

	if evt.EventType != EventCaptureCompleted {
		return OutcomeIgnored, model.Donation{}, nil
	}

	captureID := strings.TrimSpace(evt.Resource.ID)
	if captureID == "" {
		return OutcomeIgnored, model.Donation{}, invalid("resource.id", "missing capture id")
	}

	amount, ok := util.NormalizeAmount(evt.Resource.Amount.Value)
	if !ok {
		return OutcomeIgnored, model.Donation{}, invalid("resource.amount.value", "not a positive decimal")
	}

	if len(evt.Resource.PurchaseUnits) == 0 {
		return OutcomeIgnored, model.Donation{}, invalid("resource.purchase_units", "missing")
	}

	intent, err := parseIntent(evt.Resource.PurchaseUnits[0].CustomID)
	if err != nil {
		return OutcomeIgnored, model.Donation{}, err
	}

	return OutcomeValidated, model.Donation{
		CaptureID: captureID,
		Amount:    amount,
		Donor:     intent,
	}, nil
}

func parseIntent(customID string) (model.DonorIntent, error) {
	if strings.TrimSpace(customID) == "" {
		return model.DonorIntent{}, invalid("custom_id", "missing")
	}

	var intent model.DonorIntent
	if err := json.Unmarshal([]byte(customID), &intent); err != nil {
		return model.DonorIntent{}, invalid("custom_id", "not valid JSON")
	}

	intent.Name = strings.TrimSpace(intent.Name)
	intent.Email = strings.TrimSpace(intent.Email)
	intent.Message = strings.TrimSpace(intent.Message)

	if intent.Name == "" {
		return model.DonorIntent{}, invalid("custom_id.name", "missing")
	}
	if intent.Email == "" {
		return model.DonorIntent{}, invalid("custom_id.email", "missing")
	}
	if !strings.Contains(intent.Email, "@") {
		return model.DonorIntent{}, invalid("custom_id.email", "not an email address")
	}

	return intent, nil
}
