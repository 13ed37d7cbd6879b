package mailservice

import (
	"time"

	"github.com/go-mail/mail/v2"
)

const smtpTimeout = 5 * time.Second

// NewMailer returns a Mail that renders embedded templates and delivers them over SMTP.
func NewMailer(host string, port int, username, password, sender string, tp TemplateRenderer) *Mail {
	dialer := mail.NewDialer(host, port, username, password)
	dialer.Timeout = smtpTimeout

	return &Mail{dialer: dialer, sender: sender, renderer: tp}
}

func (m *Mail) compose(recipient string, r *Rendered) *mail.Message {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.sender)
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", r.Subject)
	msg.SetBody("text/plain", r.Plain)
	msg.AddAlternative("text/html", r.HTML)
	return msg
}

func (m *Mail) send(recipient string, data any, templateFile string) error {
	r, err := m.renderer.Render(templateFile, data)
	if err != nil {
		return err
	}

	// A dialer holds one SMTP session at a time.
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.dialer.DialAndSend(m.compose(recipient, r))
}
