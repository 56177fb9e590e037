package model

// DonorIntent is the donor-supplied metadata threaded through the payment
// processor as an opaque blob on the original order.
type DonorIntent struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message,omitempty"` // optional free-text note
}

// Donation is a validated capture-completed event, reconstructed fresh for
// every webhook delivery and never persisted.
type Donation struct {
	CaptureID string
	Amount    string // decimal string, USD
	Donor     DonorIntent
}
