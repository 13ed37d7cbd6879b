package mailservice

import (
	"context"
	"sync"
	"time"

	"github.com/go-mail/mail/v2"

	"github.com/sushihentaime/quill/internal/common"
)

const passwordResetTemplate = "password_reset.html"

type MailService struct {
	mb     common.MessageConsumer
	m      Mailer
	logger MailLogger
	ctx    context.Context
	cancel context.CancelFunc

	maxRetries int
	baseDelay  time.Duration
}

type MailLogger interface {
	Error(msg string, args ...any)
	Info(msg string, args ...any)
}

// PasswordResetData is the payload of a password reset event.
type PasswordResetData struct {
	Email string
	Name  string
	Link  string
}

type Mail struct {
	mu       sync.Mutex
	dialer   Dialer
	renderer TemplateRenderer
	sender   string
}

type Mailer interface {
	send(recipient string, data any, templateFile string) error
}

type Dialer interface {
	DialAndSend(m ...*mail.Message) error
}

type TemplateRenderer interface {
	Render(name string, data any) (*Rendered, error)
}
