package mailservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sushihentaime/quill/internal/common"
	"golang.org/x/exp/rand"
)

const (
	defaultMaxRetries = 5
	defaultBaseDelay  = 500 * time.Millisecond
)

func NewMailService(mb common.MessageConsumer, host, username, password, sender string, port int, logger *slog.Logger) *MailService {
	ctx, cancel := context.WithCancel(context.Background())
	return &MailService{
		mb:         mb,
		m:          NewMailer(host, port, username, password, sender, NewTemplate()),
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
	}
}

// SendPasswordResetEmail starts consuming password reset events and mails the reset link
// to each recipient. It returns once the consumer goroutine is running.
func (s *MailService) SendPasswordResetEmail() error {
	msgs, err := s.mb.Consume(common.PasswordResetKey, common.UserExchange, common.PasswordResetQueue)
	if err != nil {
		s.logger.Error("could not consume message", slog.String("error", err.Error()))
		return err
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				s.handlePasswordReset(msg)

			case <-s.ctx.Done():
				s.logger.Info("stopping SendPasswordResetEmail due to context cancellation")
				return
			}
		}
	}()

	return nil
}

// handlePasswordReset sends one reset mail, retrying with jittered exponential backoff.
// The delivery is acked either way so a broken address cannot block the queue.
func (s *MailService) handlePasswordReset(msg amqp.Delivery) {
	defer msg.Ack(false)

	var data PasswordResetData
	if err := json.Unmarshal(msg.Body, &data); err != nil {
		s.logger.Error("could not unmarshal message", slog.String("error", err.Error()))
		return
	}

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err := s.m.send(data.Email, data, passwordResetTemplate)
		if err == nil {
			s.logger.Info("password reset email sent", slog.String("email", data.Email))
			return
		}

		delay := time.Duration(rand.Int63n(int64(s.baseDelay) << uint(attempt)))
		s.logger.Info("delaying password reset email", slog.String("email", data.Email), slog.Int("attempt", attempt), slog.Duration("delay", delay))

		select {
		case <-time.After(delay):
		case <-s.ctx.Done():
			return
		}
	}

	s.logger.Error("could not send password reset email", slog.String("email", data.Email))
}

func (s *MailService) Close() {
	s.cancel()
}
