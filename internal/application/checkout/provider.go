package checkout

import (
	"context"
	"sync"

	"github.com/cos/backend/internal/domain/payment"
	"github.com/cos/backend/internal/domain/shared/valueobject"
)

// ReplacementRequest describes the declined attempt a replacement is asked for
type ReplacementRequest struct {
	CustomerID   string
	Attempt      int // 1-based number of the declined attempt
	AttemptsLeft int
	Reason       payment.DeclineReason
	Amount       valueobject.Money
}

// InstrumentProvider is the caller's side of the retry loop: after a decline
// with attempts remaining it either supplies a replacement instrument or
// returns ErrAbort. Checkout never holds a lock while waiting on it.
type InstrumentProvider interface {
	ReplacementInstrument(ctx context.Context, req ReplacementRequest) (payment.Instrument, error)
}

// ProviderFunc adapts a function to InstrumentProvider
type ProviderFunc func(ctx context.Context, req ReplacementRequest) (payment.Instrument, error)

// ReplacementInstrument implements InstrumentProvider
func (f ProviderFunc) ReplacementInstrument(ctx context.Context, req ReplacementRequest) (payment.Instrument, error) {
	return f(ctx, req)
}

// NoReplacement aborts at the first decline
var NoReplacement InstrumentProvider = ProviderFunc(func(context.Context, ReplacementRequest) (payment.Instrument, error) {
	return payment.Instrument{}, ErrAbort
})

// InstrumentQueue hands out a fixed list of instruments, one per decline, and
// aborts once the list is used up. The HTTP adapter builds one from the
// replacement cards sent with the checkout request.
type InstrumentQueue struct {
	mu    sync.Mutex
	items []payment.Instrument
	next  int
}

// NewInstrumentQueue creates a queue over the given instruments
func NewInstrumentQueue(instruments ...payment.Instrument) *InstrumentQueue {
	return &InstrumentQueue{items: instruments}
}

// ReplacementInstrument implements InstrumentProvider
func (q *InstrumentQueue) ReplacementInstrument(ctx context.Context, _ ReplacementRequest) (payment.Instrument, error) {
	if err := ctx.Err(); err != nil {
		return payment.Instrument{}, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.next >= len(q.items) {
		return payment.Instrument{}, ErrAbort
	}
	instr := q.items[q.next]
	q.next++
	return instr, nil
}

// Used returns how many instruments were handed out
func (q *InstrumentQueue) Used() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.next
}
