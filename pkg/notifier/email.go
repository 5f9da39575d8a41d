package notifier

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/dtnitsch/vacancy-watch/models"
	"github.com/dtnitsch/vacancy-watch/pkg/logger"
	"github.com/wneessen/go-mail"
)

// Email sends plain-text messages over SMTP with mandatory STARTTLS.
type Email struct {
	cfg models.EmailConfig
	log logger.Logger

	// tlsConfig replaces go-mail's default STARTTLS config when set.
	tlsConfig *tls.Config
}

func NewEmail(cfg models.EmailConfig, log logger.Logger) *Email {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.Host == "" {
		cfg.Host = models.DefaultSMTPHost
	}
	if cfg.Subject == "" {
		cfg.Subject = models.DefaultEmailSubject
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = models.DefaultSMTPTimeout
	}
	return &Email{
		cfg: cfg,
		log: log.With(logger.String("channel", "email")),
	}
}

func (e *Email) Name() string { return "email" }

func (e *Email) Notify(ctx context.Context, msg Message) bool {
	subject := msg.Subject
	if subject == "" {
		subject = e.cfg.Subject
	}
	return e.Send(ctx, subject, msg.Body)
}

// Send opens one SMTP session, authenticates, sends one message and closes
// the session whatever happened.
func (e *Email) Send(ctx context.Context, subject, body string) bool {
	if !e.cfg.Configured() {
		e.log.Warn("email not configured, skipping")
		return false
	}

	if err := e.send(ctx, subject, body); err != nil {
		e.log.Error("email send failed",
			logger.String("host", e.cfg.Host),
			logger.Int("port", e.cfg.PortNumber()),
			logger.Error(err),
		)
		return false
	}
	return true
}

func (e *Email) buildMessage(subject, body string) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(e.cfg.User); err != nil {
		return nil, fmt.Errorf("set from: %w", err)
	}
	if err := m.To(e.cfg.Recipients()...); err != nil {
		return nil, fmt.Errorf("set to: %w", err)
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextPlain, body)
	return m, nil
}

func (e *Email) send(ctx context.Context, subject, body string) (err error) {
	m, err := e.buildMessage(subject, body)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(e.cfg.PortNumber()),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(e.cfg.User),
		mail.WithPassword(e.cfg.Password),
		mail.WithTimeout(e.cfg.Timeout),
	}
	if e.tlsConfig != nil {
		opts = append(opts, mail.WithTLSConfig(e.tlsConfig))
	}
	client, err := mail.NewClient(e.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialWithContext(ctx); err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil && err == nil {
			e.log.Warn("smtp close failed", logger.Error(closeErr))
		}
	}()

	if err := client.Send(m); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}
