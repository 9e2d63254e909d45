package port

import "context"

type MailMessage struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer is the outbound mail collaborator. A failed Send must propagate;
// the caller never marks a reset request as sent on error.
type Mailer interface {
	Send(ctx context.Context, msg MailMessage) error
}
