// Package notification implementa el puerto ports.Notifier.
package notification

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"net/textproto"
	"time"

	"github.com/jordan-wright/email"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/jhoicas/facturabodega-api/internal/application/ports"
	"github.com/jhoicas/facturabodega-api/pkg/config"
)

var _ ports.Notifier = (*SMTPNotifier)(nil)

// SMTPNotifier envía correos HTML por SMTP con reintentos exponenciales.
type SMTPNotifier struct {
	from       string
	maxRetries uint64
	baseDelay  time.Duration
	log        zerolog.Logger
	send       func(e *email.Email) error
}

// NewSMTPNotifier construye el notificador a partir de la configuración SMTP.
func NewSMTPNotifier(cfg config.SMTPConfig, log zerolog.Logger) *SMTPNotifier {
	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	if cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.FromName, from)
	}
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}
	addr := cfg.Addr()
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &SMTPNotifier{
		from:       from,
		maxRetries: uint64(retries),
		baseDelay:  200 * time.Millisecond,
		log:        log,
		send:       func(e *email.Email) error { return e.Send(addr, auth) },
	}
}

// Send entrega msg. Los fallos de red se reintentan; un destinatario rechazado
// por el servidor (5xx) no.
func (n *SMTPNotifier) Send(ctx context.Context, msg ports.Message) error {
	if msg.ToAddress == "" {
		return errors.New("notification: destinatario vacío")
	}
	e := email.NewEmail()
	e.From = n.from
	if msg.ToName != "" {
		e.To = []string{fmt.Sprintf("%s <%s>", msg.ToName, msg.ToAddress)}
	} else {
		e.To = []string{msg.ToAddress}
	}
	e.Subject = msg.Subject
	e.HTML = []byte(msg.HTMLBody)

	backoff := retry.WithMaxRetries(n.maxRetries, retry.NewExponential(n.baseDelay))
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := n.send(e); err != nil {
			if permanent(err) {
				return err
			}
			n.log.Warn().Err(err).Int("attempt", attempt).Str("to", msg.ToAddress).Msg("envío de correo fallido, reintentando")
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("notification: enviar correo a %s: %w", msg.ToAddress, err)
	}
	n.log.Debug().Str("to", msg.ToAddress).Str("subject", msg.Subject).Msg("correo enviado")
	return nil
}

// permanent rechazo definitivo del servidor SMTP.
func permanent(err error) bool {
	var tpErr *textproto.Error
	return errors.As(err, &tpErr) && tpErr.Code >= 500
}
