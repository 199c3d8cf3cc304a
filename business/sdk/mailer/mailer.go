// Package mailer delivers notification e-mails. Senders never fail loudly:
// every delivery reports a Result and the caller decides what a failure means.
package mailer

import (
	"context"
	"fmt"

	"github.com/nssmahe/portal/foundation/logger"
	"github.com/nssmahe/portal/foundation/otel"
	gomail "github.com/wneessen/go-mail"
	"go.opentelemetry.io/otel/attribute"
)

// Message is a single e-mail.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Result reports the outcome of a delivery.
type Result struct {
	Success bool
	Err     error
}

func failed(err error) Result {
	return Result{Err: err}
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) Result
}

// =============================================================================

// Config holds the SMTP settings.
type Config struct {
	Host     string
	Port     int
	Secure   bool
	Username string
	Password string
	From     string
}

// SMTP delivers messages through an SMTP relay.
type SMTP struct {
	log *logger.Logger
	cfg Config
}

// NewSMTP constructs an SMTP sender.
func NewSMTP(log *logger.Logger, cfg Config) *SMTP {
	return &SMTP{
		log: log,
		cfg: cfg,
	}
}

// Send implements Sender.
func (s *SMTP) Send(ctx context.Context, msg Message) (res Result) {
	ctx, span := otel.AddSpan(ctx, "business.sdk.mailer.send", attribute.String("subject", msg.Subject))
	defer span.End()

	defer func() {
		if rec := recover(); rec != nil {
			res = failed(fmt.Errorf("send: panic: %v", rec))
		}
	}()

	m := gomail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return failed(fmt.Errorf("from: %w", err))
	}
	if err := m.To(msg.To); err != nil {
		return failed(fmt.Errorf("to: %w", err))
	}

	m.Subject(msg.Subject)

	switch {
	case msg.Text != "" && msg.HTML != "":
		m.SetBodyString(gomail.TypeTextPlain, msg.Text)
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
	case msg.HTML != "":
		m.SetBodyString(gomail.TypeTextHTML, msg.HTML)
	default:
		m.SetBodyString(gomail.TypeTextPlain, msg.Text)
	}

	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}

	if s.cfg.Secure {
		opts = append(opts, gomail.WithSSL())
	}

	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}

	client, err := gomail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return failed(fmt.Errorf("newclient: %w", err))
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		s.log.Error(ctx, "mailer: send failed", "to", msg.To, "subject", msg.Subject, "err", err)
		return failed(fmt.Errorf("dialandsend: %w", err))
	}

	s.log.Info(ctx, "mailer: sent", "to", msg.To, "subject", msg.Subject)

	return Result{Success: true}
}

// =============================================================================

// Log writes messages to the log instead of delivering them. It is used in
// development when no SMTP relay is configured.
type Log struct {
	log *logger.Logger
}

// NewLog constructs a log-only sender.
func NewLog(log *logger.Logger) *Log {
	return &Log{
		log: log,
	}
}

// Send implements Sender. Bodies are never logged since they carry
// onboarding links.
func (l *Log) Send(ctx context.Context, msg Message) Result {
	l.log.Info(ctx, "mailer: log only", "to", msg.To, "subject", msg.Subject)
	return Result{Success: true}
}
