package storage

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Store(ctx context.Context, body io.Reader, contentType string) (string, error) {
	args := m.Called(ctx, body, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, urlOrPublicID string) (bool, error) {
	args := m.Called(ctx, urlOrPublicID)
	return args.Bool(0), args.Error(1)
}
