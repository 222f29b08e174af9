// Package services реализует отправку писем, разобранных из очереди
// уведомлений: проверочные коды и одноразовые пароли супер-администратора.
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/account-service/internal/lib/sl"
	"github.com/magabrotheeeer/account-service/internal/lib/smtp"
	"github.com/magabrotheeeer/account-service/internal/models"
)

// SenderService собирает и отправляет письма через SMTP-транспорт.
type SenderService struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(log *slog.Logger, transport smtp.TransportInterface) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// SendConfirmationCode отправляет письмо с проверочным кодом почты.
func (s *SenderService) SendConfirmationCode(body []byte) error {
	var message models.EmailMessage
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	return s.sendEmail(mail{
		to:      []string{message.Email},
		subject: "Код подтверждения электронной почты",
		body: fmt.Sprintf("Здравствуйте, %s!\n\nВаш код подтверждения: %s.\n\nУ вас есть три попытки ввода. Если вы не запрашивали код, проигнорируйте это письмо.",
			message.Username, message.Code),
	})
}

// SendSuperAdminPassword отправляет одноразовый пароль супер-администратора.
func (s *SenderService) SendSuperAdminPassword(body []byte) error {
	var message models.EmailMessage
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	return s.sendEmail(mail{
		to:      []string{message.Email},
		subject: "Доступ супер-администратора",
		body: fmt.Sprintf("Здравствуйте, %s!\n\nДля вас создана учетная запись супер-администратора.\nОдноразовый пароль: %s.\n\nСмените пароль после первого входа.",
			message.Username, message.Password),
	})
}

// mail письмо до сборки в MIME-сообщение.
type mail struct {
	to      []string
	subject string
	body    string
}

// compose собирает простое текстовое MIME-сообщение в кодировке UTF-8.
func (m mail) compose(from string) []byte {
	lines := []string{
		"From: " + from,
		"To: " + strings.Join(m.to, ";"),
		"Subject: " + m.subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		m.body,
	}
	return []byte(strings.Join(lines, "\r\n"))
}

func (s *SenderService) sendEmail(m mail) error {
	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	from := s.transport.GetSMTPUser()
	if err := client.Mail(from); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return err
	}
	for _, addr := range m.to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to open DATA writer", sl.Err(err))
		return err
	}
	if _, err := wc.Write(m.compose(from)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err := wc.Close(); err != nil {
		s.log.Error("failed to close DATA writer", sl.Err(err))
		return err
	}

	if err := client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP session", sl.Err(err))
		return err
	}

	s.log.Info("email sent", slog.String("subject", m.subject), slog.Any("to", m.to))
	return nil
}
