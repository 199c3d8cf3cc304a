package unitest

import (
	"context"
	"errors"
	"sync"

	"github.com/nssmahe/portal/business/sdk/mailer"
)

// Mailer is a mailer.Sender that records messages. When Fail is set every
// delivery reports failure.
type Mailer struct {
	mu   sync.Mutex
	Fail bool
	sent []mailer.Message
}

// Send implements mailer.Sender.
func (m *Mailer) Send(ctx context.Context, msg mailer.Message) mailer.Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail {
		return mailer.Result{Err: errors.New("smtp unavailable")}
	}

	m.sent = append(m.sent, msg)

	return mailer.Result{Success: true}
}

// Sent returns the delivered messages.
func (m *Mailer) Sent() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]mailer.Message, len(m.sent))
	copy(out, m.sent)

	return out
}
