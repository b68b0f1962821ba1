package mailer

import (
	"context"
	"errors"

	zlog "github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"github.com/phenrril/skinstore/internal/domain"
)

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// SMTP renders and delivers order emails through a plain SMTP relay.
type SMTP struct {
	Renderer
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTP(cfg SMTPConfig, r Renderer) *SMTP {
	return &SMTP{Renderer: r, cfg: cfg, dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)}
}

func (m *SMTP) SendOrderEmail(ctx context.Context, kind domain.EmailKind, o *domain.Order) error {
	if o.CustomerEmail == "" {
		return errors.New("order has no customer email")
	}
	subject, body, err := m.Render(kind, o)
	if err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", o.CustomerEmail)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.dialer.DialAndSend(msg)
}

// Log renders the email and only logs it. Used when no SMTP relay is set.
type Log struct {
	Renderer
}

func (m Log) SendOrderEmail(_ context.Context, kind domain.EmailKind, o *domain.Order) error {
	subject, body, err := m.Render(kind, o)
	if err != nil {
		return err
	}
	zlog.Info().Str("kind", string(kind)).Str("order_id", o.ID.String()).
		Str("to", o.CustomerEmail).Str("subject", subject).Int("bytes", len(body)).
		Msg("email not sent: smtp not configured")
	return nil
}
