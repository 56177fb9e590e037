package content

import (
	"context"
	"fmt"

	"github.com/givepoint/donation-gateway/internal/model"
	"github.com/givepoint/donation-gateway/internal/util"
)

// Source tells which path produced an acknowledgement.
type Source string

const (
	SourceGenerated Source = "generated"
	SourceFallback  Source = "fallback"
)

func (s Source) String() string { return string(s) }

// Generator produces a short personalized acknowledgement for a donation.
// Generate never fails outward: any fault in the external call is absorbed
// and the deterministic fallback text is returned instead.
type Generator interface {
	Generate(ctx context.Context, d model.Donation) (string, Source)
}

// Fallback is the fixed dependency-free acknowledgement, reproducible for a
// given name and amount.
func Fallback(name, amount string) string {
	return fmt.Sprintf(
		"Dear %s, thank you so much for your generous donation of %s. Your support means the world to us.",
		name, util.FormatUSD(amount),
	)
}
