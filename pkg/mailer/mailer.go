// Package mailer sends plain-text email over SMTP.
package mailer

import (
	"context"

	"github.com/rotisserie/eris"
	"gopkg.in/gomail.v2"
)

// Mailer sends email messages.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Config holds SMTP connection settings.
type Config struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	From     string `yaml:"from" mapstructure:"from"`
}

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

// New creates an SMTP-backed Mailer.
func New(cfg Config) Mailer {
	return &smtpMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// SendEmail delivers one plain-text message. gomail has no context
// support; the dial-and-send runs in a goroutine so cancellation still
// bounds the caller.
func (m *smtpMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	done := make(chan error, 1)
	go func() {
		done <- m.dialer.DialAndSend(msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return eris.Wrapf(err, "mailer: send to %s", to)
		}
		return nil
	case <-ctx.Done():
		return eris.Wrap(ctx.Err(), "mailer: send cancelled")
	}
}
