package mailservice

import (
	"github.com/go-mail/mail/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/mock"
	"github.com/sushihentaime/quill/internal/common"
)

type MockTemplate struct {
	mock.Mock
}

func (m *MockTemplate) Render(name string, data any) (*Rendered, error) {
	args := m.Called(name, data)
	r, _ := args.Get(0).(*Rendered)
	return r, args.Error(1)
}

type MockDialer struct {
	mock.Mock
}

func (d *MockDialer) DialAndSend(m ...*mail.Message) error {
	args := d.Called(m)
	return args.Error(0)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) send(recipient string, data any, templateFile string) error {
	args := m.Called(recipient, data, templateFile)
	return args.Error(0)
}

// MockMessageConsumer delivers Bodies once and then closes the channel.
type MockMessageConsumer struct {
	mock.Mock
	Bodies [][]byte
}

func (m *MockMessageConsumer) Consume(key common.BindingKey, exchange common.Exchange, queue common.Queue) (<-chan amqp.Delivery, error) {
	args := m.Called(key, exchange, queue)
	if err := args.Error(0); err != nil {
		return nil, err
	}

	msgsChan := make(chan amqp.Delivery)

	go func() {
		defer close(msgsChan)

		for _, body := range m.Bodies {
			msgsChan <- amqp.Delivery{Body: body}
		}
	}()

	return msgsChan, nil
}
