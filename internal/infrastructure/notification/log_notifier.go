package notification

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jhoicas/facturabodega-api/internal/application/ports"
	"github.com/jhoicas/facturabodega-api/pkg/config"
)

var _ ports.Notifier = (*LogNotifier)(nil)

// LogNotifier registra el correo en el log en lugar de enviarlo. Se usa cuando SMTP_HOST
// está vacío (desarrollo local).
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(_ context.Context, msg ports.Message) error {
	n.log.Info().
		Str("to", msg.ToAddress).
		Str("subject", msg.Subject).
		Int("body_bytes", len(msg.HTMLBody)).
		Msg("correo no enviado: SMTP sin configurar")
	return nil
}

// New elige el notificador según la configuración: sin host SMTP solo se registra en el log.
func New(cfg config.SMTPConfig, log zerolog.Logger) ports.Notifier {
	if cfg.Host == "" {
		return NewLogNotifier(log)
	}
	return NewSMTPNotifier(cfg, log)
}
