package notifier

import (
	"context"
	"sync"

	"github.com/mrops-br/product-upsert-api/internal/app/dto"
)

// RecordingNotifier keeps every event it receives. When a failure is set,
// events are still recorded and the failure is returned.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []dto.ProductUpdatedDto
	err    error
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

func (n *RecordingNotifier) NotifyProductUpdated(ctx context.Context, product dto.ProductUpdatedDto) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, product)
	return n.err
}

// FailWith makes subsequent calls return err. Pass nil to succeed again.
func (n *RecordingNotifier) FailWith(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.err = err
}

// Events returns a copy of the recorded events in arrival order.
func (n *RecordingNotifier) Events() []dto.ProductUpdatedDto {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]dto.ProductUpdatedDto, len(n.events))
	copy(out, n.events)
	return out
}

func (n *RecordingNotifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = nil
	n.err = nil
}
