package mail

import (
	"context"
	"errors"
	"sync"

	"timely/internal/core/port"
)

// MemoryMailer records messages instead of sending them. Tests use it to
// assert on reset-link dispatch and to simulate delivery failures.
type MemoryMailer struct {
	mu       sync.Mutex
	messages []port.MailMessage

	FailNext bool
}

func NewMemoryMailer() *MemoryMailer {
	return &MemoryMailer{}
}

func (m *MemoryMailer) Send(ctx context.Context, msg port.MailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailNext {
		m.FailNext = false
		return errors.New("simulated delivery failure")
	}

	m.messages = append(m.messages, msg)
	return nil
}

func (m *MemoryMailer) Messages() []port.MailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]port.MailMessage, len(m.messages))
	copy(out, m.messages)
	return out
}

func (m *MemoryMailer) LastMessage() (port.MailMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.messages) == 0 {
		return port.MailMessage{}, false
	}

	return m.messages[len(m.messages)-1], true
}
