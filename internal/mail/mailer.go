package mail

import "context"

// Message is a fully rendered receipt ready for the outbound transport.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Mailer is the outbound mail transport. Implementations make exactly one
// delivery attempt per call; there is no fallback channel.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// DeliveryError wraps a transport rejection. Unlike generation faults it is
// a real fulfillment failure and crosses the orchestrator boundary.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string { return "mail delivery failed: " + e.Err.Error() }
func (e *DeliveryError) Unwrap() error { return e.Err }
