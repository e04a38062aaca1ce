package mailer

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/smtp"

	"github.com/homenest/homenest-api/pkg/logger"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// EmailSender is the outbound mail capability used by the services
type EmailSender interface {
	Send(to, subject, body string, isHTML bool) error
}

// Config holds SMTP and SendGrid configuration
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string

	SendGridAPIKey string // when set, mail goes through the SendGrid API instead of SMTP
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer handles sending emails
type Mailer struct {
	config   Config
	sendgrid *sendgrid.Client
	sendMail sendMailFunc
}

// New creates a new Mailer instance
func New(cfg Config) *Mailer {
	m := &Mailer{config: cfg, sendMail: smtp.SendMail}
	if cfg.SendGridAPIKey != "" {
		m.sendgrid = sendgrid.NewSendClient(cfg.SendGridAPIKey)
	}
	return m
}

// Transport names the active delivery path
func (m *Mailer) Transport() string {
	if m.sendgrid != nil {
		return "sendgrid"
	}
	return "smtp"
}

// Send delivers one message
func (m *Mailer) Send(to, subject, body string, isHTML bool) error {
	var err error
	if m.sendgrid != nil {
		err = m.sendViaSendGrid(to, subject, body, isHTML)
	} else {
		err = m.sendViaSMTP(to, subject, body, isHTML)
	}
	if err != nil {
		logger.Error(context.Background(), "Failed to send email",
			zap.String("to", to),
			zap.String("transport", m.Transport()),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	logger.Info(context.Background(), "Email sent",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("transport", m.Transport()),
	)
	return nil
}

func (m *Mailer) sendViaSendGrid(to, subject, body string, isHTML bool) error {
	from := mail.NewEmail(m.config.FromName, m.config.From)
	recipient := mail.NewEmail("", to)

	plain, html := body, ""
	if isHTML {
		plain, html = "", body
	}
	resp, err := m.sendgrid.Send(mail.NewSingleEmail(from, subject, recipient, plain, html))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

func (m *Mailer) sendViaSMTP(to, subject, body string, isHTML bool) error {
	addr := fmt.Sprintf("%s:%s", m.config.Host, m.config.Port)

	var auth smtp.Auth
	if m.config.Username != "" && m.config.Password != "" {
		auth = smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	}
	return m.sendMail(addr, auth, m.config.From, []string{to}, m.buildMessage(to, subject, body, isHTML))
}

func (m *Mailer) buildMessage(to, subject, body string, isHTML bool) []byte {
	contentType := "text/plain; charset=\"utf-8\""
	if isHTML {
		contentType = "text/html; charset=\"utf-8\""
	}

	headers := [][2]string{
		{"From", fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", m.config.FromName), m.config.From)},
		{"To", to},
		{"Subject", mime.QEncoding.Encode("utf-8", subject)},
		{"MIME-Version", "1.0"},
		{"Content-Type", contentType},
	}

	var msg bytes.Buffer
	for _, h := range headers {
		msg.WriteString(fmt.Sprintf("%s: %s\r\n", h[0], h[1]))
	}
	msg.WriteString("\r\n")
	msg.WriteString(body)
	return msg.Bytes()
}
