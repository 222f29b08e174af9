package smtp

import (
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/smtp"

	"github.com/magabrotheeeer/account-service/internal/config"
	"github.com/magabrotheeeer/account-service/internal/lib/sl"
)

// Transport устанавливает STARTTLS-соединения с SMTP сервером
// и отдает готовый к отправке клиент.
type Transport struct {
	host string
	port string
	user string
	pass string
	log  *slog.Logger
}

// NewTransport создает транспорт из SMTP-секции конфигурации.
func NewTransport(cfg *config.Config, log *slog.Logger) *Transport {
	return &Transport{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		log:  log,
	}
}

// smtpClientWrapper обертка для *smtp.Client, реализующая интерфейс Client.
type smtpClientWrapper struct {
	client *smtp.Client
}

func (w *smtpClientWrapper) Mail(from string) error { return w.client.Mail(from) }

func (w *smtpClientWrapper) Rcpt(to string) error { return w.client.Rcpt(to) }

func (w *smtpClientWrapper) Data() (io.WriteCloser, error) { return w.client.Data() }

func (w *smtpClientWrapper) Quit() error { return w.client.Quit() }

func (w *smtpClientWrapper) Close() error { return w.client.Close() }

// Connect подключается к серверу, переходит на TLS и аутентифицируется.
func (t *Transport) Connect() (Client, error) {
	conn, err := net.Dial("tcp", net.JoinHostPort(t.host, t.port))
	if err != nil {
		t.log.Error("failed to dial SMTP server", sl.Err(err))
		return nil, fmt.Errorf("failed to dial SMTP server: %w", err)
	}

	client, err := smtp.NewClient(conn, t.host)
	if err != nil {
		t.closeQuietly(conn)
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	if err := t.secure(client); err != nil {
		t.closeQuietly(client)
		return nil, err
	}

	auth := smtp.PlainAuth("", t.user, t.pass, t.host)
	if err := client.Auth(auth); err != nil {
		t.log.Error("smtp auth failed", sl.Err(err))
		t.closeQuietly(client)
		return nil, fmt.Errorf("smtp auth failed: %w", err)
	}

	return &smtpClientWrapper{client: client}, nil
}

// secure переводит соединение на TLS; сервер без STARTTLS отвергается.
func (t *Transport) secure(client *smtp.Client) error {
	if ok, _ := client.Extension("STARTTLS"); !ok {
		t.log.Error("SMTP server does not support STARTTLS")
		return fmt.Errorf("smtp server does not support STARTTLS")
	}

	tlsConfig := &tls.Config{
		ServerName: t.host,
		MinVersion: tls.VersionTLS12,
	}
	if err := client.StartTLS(tlsConfig); err != nil {
		t.log.Error("failed to start TLS", sl.Err(err))
		return fmt.Errorf("failed to start TLS: %w", err)
	}
	return nil
}

func (t *Transport) closeQuietly(c io.Closer) {
	if err := c.Close(); err != nil {
		t.log.Error("failed to close SMTP connection", sl.Err(err))
	}
}

// GetSMTPUser возвращает имя пользователя SMTP, оно же адрес отправителя.
func (t *Transport) GetSMTPUser() string {
	return t.user
}
