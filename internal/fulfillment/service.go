package fulfillment

import (
	"context"
	"time"

	"github.com/givepoint/donation-gateway/internal/content"
	"github.com/givepoint/donation-gateway/internal/ingest"
	"github.com/givepoint/donation-gateway/internal/mail"
	"github.com/givepoint/donation-gateway/internal/metrics"
	"github.com/givepoint/donation-gateway/internal/model"
	"github.com/givepoint/donation-gateway/internal/notifier"
	"github.com/givepoint/donation-gateway/internal/repository"
	"github.com/givepoint/donation-gateway/internal/util"
	"go.uber.org/zap"
)

// Status is the terminal state of one event's fulfillment. The whole state
// machine lives inside a single Process call; nothing is persisted between
// steps.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusIgnored   Status = "ignored"
	StatusDuplicate Status = "duplicate"
	StatusFailed    Status = "failed"
)

func (s Status) String() string { return string(s) }

// Service sequences ingest → claim → generate → deliver for one webhook
// event. Concurrent events run as independent instances; the injected
// handles are the only shared state and are safe for concurrent use.
type Service struct {
	gen          content.Generator
	mailer       mail.Mailer
	fulfillments repository.FulfillmentsRepository
	stream       notifier.Notifier

	subject   string
	causeName string
	log       *zap.Logger
}

func New(
	gen content.Generator,
	mailer mail.Mailer,
	fulfillments repository.FulfillmentsRepository,
	stream notifier.Notifier,
	subject, causeName string,
	log *zap.Logger,
) *Service {
	if stream == nil {
		stream = notifier.Noop{}
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		gen:          gen,
		mailer:       mailer,
		fulfillments: fulfillments,
		stream:       stream,
		subject:      subject,
		causeName:    causeName,
		log:          log,
	}
}

// Process runs the full pipeline for one raw webhook body.
//
// Returned errors are either *ingest.ValidationError or *mail.DeliveryError;
// generation faults never surface here. StatusIgnored and StatusDuplicate
// are successful acknowledgements with no email.
func (s *Service) Process(ctx context.Context, body []byte) (Status, error) {
	fid := util.New()
	log := s.log.With(zap.String("fulfillment_id", fid))

	outcome, donation, err := ingest.Ingest(body)
	if err != nil {
		// Malformed metadata will not self-correct on redelivery; log the
		// event for manual inspection and surface the failure.
		log.Warn("event failed validation", zap.Error(err), zap.ByteString("event", body))
		metrics.EventsTotal.WithLabelValues("invalid").Inc()
		return StatusFailed, err
	}

	if outcome == ingest.OutcomeIgnored {
		metrics.EventsTotal.WithLabelValues("ignored").Inc()
		return StatusIgnored, nil
	}

	log = log.With(zap.String("capture_id", donation.CaptureID))

	first, err := s.fulfillments.Claim(ctx, donation.CaptureID)
	if err != nil {
		// Fail open: a duplicate receipt beats a donor who never gets one.
		log.Warn("idempotency claim failed, proceeding", zap.Error(err))
		first = true
	}
	if !first {
		log.Info("duplicate delivery, receipt already fulfilled")
		metrics.EventsTotal.WithLabelValues("duplicate").Inc()
		return StatusDuplicate, nil
	}

	ack, source := s.gen.Generate(ctx, donation)
	metrics.AcknowledgementsTotal.WithLabelValues(source.String()).Inc()

	if err := s.deliver(ctx, donation, ack); err != nil {
		s.release(donation.CaptureID)
		log.Error("receipt delivery failed", zap.Error(err))
		metrics.EmailsTotal.WithLabelValues("failed").Inc()
		metrics.EventsTotal.WithLabelValues("failed").Inc()
		return StatusFailed, err
	}

	metrics.EmailsTotal.WithLabelValues("sent").Inc()
	metrics.EventsTotal.WithLabelValues("completed").Inc()
	log.Info("donation fulfilled",
		zap.String("donor_email", donation.Donor.Email),
		zap.String("amount", donation.Amount),
		zap.String("ack_source", source.String()),
	)

	s.publish(fid, donation, source)

	return StatusCompleted, nil
}

func (s *Service) deliver(ctx context.Context, d model.Donation, ack string) error {
	html, err := mail.RenderReceipt(mail.ReceiptData{
		DonorName:       d.Donor.Name,
		Amount:          util.FormatUSD(d.Amount),
		CauseName:       s.causeName,
		TransactionID:   d.CaptureID,
		Acknowledgement: ack,
	})
	if err != nil {
		return &mail.DeliveryError{Err: err}
	}

	return s.mailer.Send(ctx, mail.Message{
		To:       d.Donor.Email,
		Subject:  s.subject,
		HTMLBody: html,
	})
}

// release hands the idempotency claim back so a processor-level webhook
// retry can re-attempt delivery. Best effort.
func (s *Service) release(captureID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.fulfillments.Release(ctx, captureID); err != nil {
		s.log.Warn("release claim failed", zap.String("capture_id", captureID), zap.Error(err))
	}
}

func (s *Service) publish(fid string, d model.Donation, source content.Source) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	event := notifier.DonationEvent{
		FulfillmentID:  fid,
		CaptureID:      d.CaptureID,
		DonorName:      d.Donor.Name,
		DonorEmail:     d.Donor.Email,
		Amount:         d.Amount,
		Currency:       "USD",
		AcknowledgedBy: source.String(),
		CompletedAt:    time.Now().UTC(),
	}
	if err := s.stream.Notify(ctx, event); err != nil {
		s.log.Warn("donation stream publish failed", zap.String("capture_id", d.CaptureID), zap.Error(err))
	}
}
