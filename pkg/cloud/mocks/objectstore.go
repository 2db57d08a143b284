package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockObjectStore is a mock implementation of the cloud.ObjectStore interface
type MockObjectStore struct {
	mock.Mock
}

// ListArchives lists the archive keys for a symbol
func (m *MockObjectStore) ListArchives(ctx context.Context, symbol string) ([]string, error) {
	args := m.Called(ctx, symbol)
	var keys []string
	if v := args.Get(0); v != nil {
		keys = v.([]string)
	}

	return keys, args.Error(1)
}

// Download fetches an archive to a local path
func (m *MockObjectStore) Download(ctx context.Context, key, dest string) error {
	args := m.Called(ctx, key, dest)

	return args.Error(0)
}
