package telephony

import (
	"context"

	"github.com/acme/lead-call-relay/internal/domain"
)

// Result captures the outcome of a call placement.
type Result struct {
	// CallID is the remote identifier; the remote may omit it.
	CallID *string
}

// Provider abstracts the telephony integration.
type Provider interface {
	PlaceCall(ctx context.Context, cmd domain.CallCommand) (Result, error)
}
