package notification

import (
	"bytes"
	"context"
	"errors"
	"net/textproto"
	"testing"
	"time"

	"github.com/jordan-wright/email"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturabodega-api/internal/application/ports"
	"github.com/jhoicas/facturabodega-api/pkg/config"
)

func testNotifier(retries int, send func(e *email.Email) error) *SMTPNotifier {
	n := NewSMTPNotifier(config.SMTPConfig{
		Host: "smtp.local", Port: 587, From: "no-reply@facturabodega.co",
		FromName: "Facturación", MaxRetries: retries,
	}, zerolog.Nop())
	n.baseDelay = time.Millisecond
	n.send = send
	return n
}

var msg = ports.Message{
	ToAddress: "facu@yopmail.com",
	ToName:    "Facundo",
	Subject:   "Recuperación de contraseña",
	HTMLBody:  "<p>hola</p>",
}

// ── SMTPNotifier ──────────────────────────────────────────────────────────────

func TestSend_ArmaElCorreo(t *testing.T) {
	var got *email.Email
	n := testNotifier(0, func(e *email.Email) error { got = e; return nil })

	require.NoError(t, n.Send(context.Background(), msg))
	require.NotNil(t, got)
	assert.Equal(t, "Facturación <no-reply@facturabodega.co>", got.From)
	assert.Equal(t, []string{"Facundo <facu@yopmail.com>"}, got.To)
	assert.Equal(t, msg.Subject, got.Subject)
	assert.True(t, bytes.Equal([]byte(msg.HTMLBody), got.HTML))
}

func TestSend_ReintentaFallosTransitorios(t *testing.T) {
	calls := 0
	n := testNotifier(3, func(*email.Email) error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	})

	require.NoError(t, n.Send(context.Background(), msg))
	assert.Equal(t, 3, calls)
}

func TestSend_AgotaReintentos(t *testing.T) {
	calls := 0
	n := testNotifier(2, func(*email.Email) error { calls++; return errors.New("timeout") })

	err := n.Send(context.Background(), msg)
	require.Error(t, err)
	assert.Equal(t, 3, calls, "intento inicial más dos reintentos")
}

func TestSend_RechazoPermanenteNoSeReintenta(t *testing.T) {
	calls := 0
	n := testNotifier(3, func(*email.Email) error {
		calls++
		return &textproto.Error{Code: 550, Msg: "mailbox unavailable"}
	})

	require.Error(t, n.Send(context.Background(), msg))
	assert.Equal(t, 1, calls)
}

func TestSend_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n := testNotifier(3, func(*email.Email) error { return nil })

	assert.Error(t, n.Send(ctx, msg))
}

func TestSend_SinDestinatario(t *testing.T) {
	n := testNotifier(0, func(*email.Email) error { return nil })
	assert.Error(t, n.Send(context.Background(), ports.Message{Subject: "x"}))
}

// ── Selección ─────────────────────────────────────────────────────────────────

func TestNew_SinHostUsaLog(t *testing.T) {
	n := New(config.SMTPConfig{}, zerolog.Nop())

	_, isLog := n.(*LogNotifier)
	assert.True(t, isLog)
	assert.NoError(t, n.Send(context.Background(), msg))
}

func TestNew_ConHostUsaSMTP(t *testing.T) {
	n := New(config.SMTPConfig{Host: "smtp.local", Port: 25}, zerolog.Nop())

	_, isSMTP := n.(*SMTPNotifier)
	assert.True(t, isSMTP)
}
