package fulfillment_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/givepoint/donation-gateway/internal/content"
	"github.com/givepoint/donation-gateway/internal/fulfillment"
	"github.com/givepoint/donation-gateway/internal/ingest"
	"github.com/givepoint/donation-gateway/internal/mail"
	"github.com/givepoint/donation-gateway/internal/model"
	"github.com/givepoint/donation-gateway/internal/notifier"
	"github.com/givepoint/donation-gateway/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type stubGenerator struct {
	mu    sync.Mutex
	calls int
	text  string
}

func (g *stubGenerator) Generate(_ context.Context, d model.Donation) (string, content.Source) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.text != "" {
		return g.text, content.SourceGenerated
	}
	return content.Fallback(d.Donor.Name, d.Amount), content.SourceFallback
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return &mail.DeliveryError{Err: m.err}
	}
	m.sent = append(m.sent, msg)
	return nil
}

type brokenStore struct{}

func (brokenStore) Claim(context.Context, string) (bool, error) {
	return false, errors.New("store down")
}
func (brokenStore) Release(context.Context, string) error { return nil }

type recordingStream struct {
	mu     sync.Mutex
	events []notifier.DonationEvent
}

func (s *recordingStream) Notify(_ context.Context, e notifier.DonationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}
func (s *recordingStream) Close() error { return nil }

// ---- fixtures ----

func captureEvent(captureID, amount, customID string) []byte {
	return []byte(fmt.Sprintf(`{
		"event_type": "PAYMENT.CAPTURE.COMPLETED",
		"resource": {
			"id": %q,
			"amount": {"currency_code": "USD", "value": %q},
			"purchase_units": [{"custom_id": %q}]
		}
	}`, captureID, amount, customID))
}

func newService(gen content.Generator, mailer mail.Mailer, store repository.FulfillmentsRepository, stream notifier.Notifier) *fulfillment.Service {
	return fulfillment.New(gen, mailer, store, stream, "Thank you for your donation", "GivePoint", nil)
}

// ---- tests ----

func TestProcess_ValidEventSendsExactlyOneReceipt(t *testing.T) {
	gen := &stubGenerator{text: "Thank you, Ada!"}
	mailer := &recordingMailer{}
	stream := &recordingStream{}
	svc := newService(gen, mailer, repository.NewMemoryFulfillmentsRepository(), stream)

	status, err := svc.Process(context.Background(), captureEvent("8XB1", "25.00", `{"name":"Ada","email":"ada@x.com"}`))

	require.NoError(t, err)
	assert.Equal(t, fulfillment.StatusCompleted, status)
	assert.Equal(t, 1, gen.calls)
	require.Len(t, mailer.sent, 1)

	msg := mailer.sent[0]
	assert.Equal(t, "ada@x.com", msg.To)
	assert.Equal(t, "Thank you for your donation", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "Thank you, Ada!")
	assert.Contains(t, msg.HTMLBody, "$25.00")
	assert.Contains(t, msg.HTMLBody, "8XB1")

	require.Len(t, stream.events, 1)
	assert.Equal(t, "8XB1", stream.events[0].CaptureID)
	assert.Equal(t, "generated", stream.events[0].AcknowledgedBy)
}

// Scenario A: generator unreachable, the receipt still goes out with the
// deterministic fallback text.
func TestProcess_GeneratorUnreachableUsesFallback(t *testing.T) {
	gen := content.NewGeminiGenerator("http://127.0.0.1:1", "gemini-1.5-flash", "key", 500, 3, 15000, nil)
	mailer := &recordingMailer{}
	svc := newService(gen, mailer, repository.NewMemoryFulfillmentsRepository(), nil)

	status, err := svc.Process(context.Background(), captureEvent("8XB1", "25.00", `{"name":"Ada","email":"ada@x.com"}`))

	require.NoError(t, err)
	assert.Equal(t, fulfillment.StatusCompleted, status)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ada@x.com", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].HTMLBody, "Ada")
	assert.Contains(t, mailer.sent[0].HTMLBody, "$25.00")
	assert.Contains(t, mailer.sent[0].HTMLBody, content.Fallback("Ada", "25.00"))
}

// Scenario B: unrecognized event type is acknowledged with zero downstream calls.
func TestProcess_UnrecognizedTypeIgnored(t *testing.T) {
	gen := &stubGenerator{}
	mailer := &recordingMailer{}
	svc := newService(gen, mailer, repository.NewMemoryFulfillmentsRepository(), nil)

	status, err := svc.Process(context.Background(), []byte(`{"event_type":"CHECKOUT.ORDER.APPROVED","resource":{}}`))

	require.NoError(t, err)
	assert.Equal(t, fulfillment.StatusIgnored, status)
	assert.Zero(t, gen.calls)
	assert.Empty(t, mailer.sent)
}

// Scenario C: unparseable donor metadata fails the event, no email.
func TestProcess_BadMetadataFailsWithoutEmail(t *testing.T) {
	gen := &stubGenerator{}
	mailer := &recordingMailer{}
	svc := newService(gen, mailer, repository.NewMemoryFulfillmentsRepository(), nil)

	status, err := svc.Process(context.Background(), captureEvent("8XB1", "25.00", "not-json"))

	assert.Equal(t, fulfillment.StatusFailed, status)
	assert.Empty(t, mailer.sent)
	assert.Zero(t, gen.calls)

	var verr *ingest.ValidationError
	assert.ErrorAs(t, err, &verr)
}

// Scenario D: transport rejection is a real fulfillment failure even though
// generation succeeded.
func TestProcess_DeliveryErrorSurfaces(t *testing.T) {
	gen := &stubGenerator{text: "Thank you!"}
	mailer := &recordingMailer{err: errors.New("recipient rejected")}
	svc := newService(gen, mailer, repository.NewMemoryFulfillmentsRepository(), nil)

	status, err := svc.Process(context.Background(), captureEvent("8XB1", "25.00", `{"name":"Ada","email":"ada@x.com"}`))

	assert.Equal(t, fulfillment.StatusFailed, status)
	assert.Equal(t, 1, gen.calls)

	var derr *mail.DeliveryError
	assert.ErrorAs(t, err, &derr)
}

func TestProcess_RedeliverySuppressedAfterFulfillment(t *testing.T) {
	gen := &stubGenerator{text: "Thank you!"}
	mailer := &recordingMailer{}
	svc := newService(gen, mailer, repository.NewMemoryFulfillmentsRepository(), nil)

	body := captureEvent("8XB1", "25.00", `{"name":"Ada","email":"ada@x.com"}`)

	status, err := svc.Process(context.Background(), body)
	require.NoError(t, err)
	require.Equal(t, fulfillment.StatusCompleted, status)

	status, err = svc.Process(context.Background(), body)
	require.NoError(t, err)
	assert.Equal(t, fulfillment.StatusDuplicate, status)
	assert.Len(t, mailer.sent, 1)
	assert.Equal(t, 1, gen.calls)
}

func TestProcess_ClaimReleasedAfterDeliveryFailure(t *testing.T) {
	gen := &stubGenerator{text: "Thank you!"}
	mailer := &recordingMailer{err: errors.New("connection refused")}
	svc := newService(gen, mailer, repository.NewMemoryFulfillmentsRepository(), nil)

	body := captureEvent("8XB1", "25.00", `{"name":"Ada","email":"ada@x.com"}`)

	status, _ := svc.Process(context.Background(), body)
	require.Equal(t, fulfillment.StatusFailed, status)

	// transport recovers; the processor's webhook retry must go through
	mailer.err = nil
	status, err := svc.Process(context.Background(), body)
	require.NoError(t, err)
	assert.Equal(t, fulfillment.StatusCompleted, status)
	assert.Len(t, mailer.sent, 1)
}

func TestProcess_StoreErrorFailsOpen(t *testing.T) {
	gen := &stubGenerator{text: "Thank you!"}
	mailer := &recordingMailer{}
	svc := newService(gen, mailer, brokenStore{}, nil)

	status, err := svc.Process(context.Background(), captureEvent("8XB1", "25.00", `{"name":"Ada","email":"ada@x.com"}`))

	require.NoError(t, err)
	assert.Equal(t, fulfillment.StatusCompleted, status)
	assert.Len(t, mailer.sent, 1)
}
