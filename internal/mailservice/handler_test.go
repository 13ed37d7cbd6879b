package mailservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/quill/internal/common"
)

func newTestMailService(mc common.MessageConsumer, m Mailer) *MailService {
	ctx, cancel := context.WithCancel(context.Background())
	return &MailService{
		mb:         mc,
		m:          m,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		ctx:        ctx,
		cancel:     cancel,
		maxRetries: 3,
		baseDelay:  time.Millisecond,
	}
}

func TestSendPasswordResetEmail(t *testing.T) {
	mockMC := &MockMessageConsumer{Bodies: [][]byte{
		[]byte(`{"Email": "test@example.com", "Name": "Test", "Link": "http://localhost:3000/reset-password/token"}`),
	}}
	mockMC.On("Consume", common.PasswordResetKey, common.UserExchange, common.PasswordResetQueue).Return(nil)

	sent := make(chan struct{})
	mockMailer := new(MockMailer)
	want := PasswordResetData{Email: "test@example.com", Name: "Test", Link: "http://localhost:3000/reset-password/token"}
	mockMailer.On("send", "test@example.com", want, passwordResetTemplate).
		Return(nil).
		Run(func(mock.Arguments) { close(sent) })

	s := newTestMailService(mockMC, mockMailer)
	t.Cleanup(s.Close)

	require.NoError(t, s.SendPasswordResetEmail())

	select {
	case <-sent:
	case <-time.After(5 * time.Second):
		t.Fatal("password reset email was not sent")
	}

	mockMC.AssertExpectations(t)
	mockMailer.AssertExpectations(t)
}

func TestSendPasswordResetEmailConsumeError(t *testing.T) {
	mockMC := new(MockMessageConsumer)
	mockMC.On("Consume", common.PasswordResetKey, common.UserExchange, common.PasswordResetQueue).Return(errors.New("channel closed"))

	s := newTestMailService(mockMC, new(MockMailer))
	t.Cleanup(s.Close)

	assert.Error(t, s.SendPasswordResetEmail())
}

func TestHandlePasswordReset(t *testing.T) {
	testCases := []struct {
		name      string
		body      string
		sendErr   error
		wantCalls int
	}{
		{name: "sent first try", body: `{"Email": "a@example.com"}`, wantCalls: 1},
		{name: "retries until exhausted", body: `{"Email": "a@example.com"}`, sendErr: errors.New("dial timeout"), wantCalls: 3},
		{name: "malformed body", body: `not json`, wantCalls: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockMailer := new(MockMailer)
			mockMailer.On("send", "a@example.com", mock.Anything, passwordResetTemplate).Return(tc.sendErr)

			s := newTestMailService(new(MockMessageConsumer), mockMailer)
			t.Cleanup(s.Close)

			s.handlePasswordReset(amqp.Delivery{Body: []byte(tc.body)})

			mockMailer.AssertNumberOfCalls(t, "send", tc.wantCalls)
		})
	}
}
