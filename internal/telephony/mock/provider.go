package mock

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/acme/lead-call-relay/internal/domain"
	"github.com/acme/lead-call-relay/internal/telephony"
)

// Provider accepts every call without network I/O and remembers the
// commands it received.
type Provider struct {
	mu    sync.Mutex
	calls []domain.CallCommand
	err   error
}

// NewProvider constructs a mock provider.
func NewProvider() *Provider {
	return &Provider{}
}

// FailWith makes subsequent calls return err.
func (p *Provider) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// PlaceCall records the command and returns a synthetic call id.
func (p *Provider) PlaceCall(ctx context.Context, cmd domain.CallCommand) (telephony.Result, error) {
	if err := ctx.Err(); err != nil {
		return telephony.Result{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, cmd)
	if p.err != nil {
		return telephony.Result{}, p.err
	}

	id := "mock_" + uuid.NewString()
	return telephony.Result{CallID: &id}, nil
}

// Calls returns a copy of the commands received so far.
func (p *Provider) Calls() []domain.CallCommand {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.CallCommand, len(p.calls))
	copy(out, p.calls)
	return out
}
