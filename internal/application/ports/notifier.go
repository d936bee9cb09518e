package ports

import "context"

// Message notificación saliente con asunto y cuerpo HTML.
type Message struct {
	ToAddress string
	ToName    string
	Subject   string
	HTMLBody  string
}

// Notifier canal de salida de notificaciones (correo). Send reporta éxito o fallo;
// el caller decide si el fallo es tolerable.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}
