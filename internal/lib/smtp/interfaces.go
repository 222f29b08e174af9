// Package smtp оборачивает net/smtp в интерфейсы, подменяемые в тестах.
package smtp

import "io"

// Client шаги SMTP-диалога, нужные сервису отправки писем.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// TransportInterface устанавливает соединение и знает адрес отправителя.
type TransportInterface interface {
	Connect() (Client, error)
	GetSMTPUser() string
}
