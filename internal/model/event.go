package model

// PaymentEvent is the wire shape of a processor webhook delivery.
// Only the fields the fulfillment pipeline reads are declared; everything
// else in the payload is ignored.
type PaymentEvent struct {
	ID        string   `json:"id"`
	EventType string   `json:"event_type"`
	Resource  Resource `json:"resource"`
}

type Resource struct {
	ID            string         `json:"id"` // processor-assigned capture id
	Amount        Amount         `json:"amount"`
	PurchaseUnits []PurchaseUnit `json:"purchase_units"`
}

type Amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"` // decimal string, e.g. "25.00"
}

type PurchaseUnit struct {
	// CustomID carries the JSON-encoded DonorIntent placed on the order
	// at creation time.
	CustomID string `json:"custom_id"`
}
