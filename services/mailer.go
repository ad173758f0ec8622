// services/mailer.go
package services

import (
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/dushop/dushop_backend/config"
)

// Mailer delivers a one-time password to a recipient. The OTP service
// depends only on this interface so the channel stays swappable.
type Mailer interface {
	SendOTP(email, code string) error
}

// SMTPMailer sends OTP emails over SMTP.
type SMTPMailer struct {
	host string
	port int
	user string
	pass string
	from string
	ttl  time.Duration
}

// NewSMTPMailer creates a mailer from the SMTP configuration.
func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		from: cfg.FromEmail,
		ttl:  cfg.OTPTTL,
	}
}

// SendOTP sends the code to the given address.
func (m *SMTPMailer) SendOTP(email, code string) error {
	if m.host == "" || m.user == "" || m.pass == "" || m.from == "" {
		return fmt.Errorf("missing SMTP configuration")
	}

	minutes := int(m.ttl.Minutes())
	if minutes < 1 {
		minutes = 1
	}

	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Your OTP Code</h2>
			<p>Your OTP code is:</p>
			<h3 style="background-color: #f0f0f0; padding: 10px; font-size: 24px; letter-spacing: 5px; text-align: center;">%s</h3>
			<p>This code will expire in %d minutes.</p>
			<p>If you did not request this code, please ignore this email.</p>
			<p>Thank you,<br>The DU-Shop Team</p>
		</body>
		</html>
	`, code, minutes)

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", "Your OTP Code")
	msg.SetBody("text/html", body)

	d := gomail.NewDialer(m.host, m.port, m.user, m.pass)

	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
