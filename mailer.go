package eventsync

import (
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPConfig holds the connection details for an SMTP relay
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer delivers messages through a plain SMTP relay
type SMTPMailer struct {
	config SMTPConfig
}

var _ Mailer = &SMTPMailer{}

// NewSMTPMailer creates a mailer backed by the given relay
func NewSMTPMailer(config SMTPConfig) *SMTPMailer {
	return &SMTPMailer{config: config}
}

func (m *SMTPMailer) Send(subject, to, body string) error {
	addr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)
	auth := smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)

	msg := strings.Join([]string{
		"From: " + m.config.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(addr, auth, m.config.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}

	return nil
}

// LogMailer writes outgoing messages to the logger instead of delivering
// them. Meant for development setups without an SMTP relay.
type LogMailer struct {
	logger Logger
}

var _ Mailer = &LogMailer{}

func NewLogMailer(logger Logger) *LogMailer {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(subject, to, body string) error {
	m.logger.Info("mail out", "to", to, "subject", subject, "body", body)
	return nil
}
