package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockKeyValueStore is a mock implementation of ports.KeyValueStore.
type MockKeyValueStore struct {
	mock.Mock
}

// NewMockKeyValueStore creates a mock and registers expectation assertions on cleanup.
func NewMockKeyValueStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockKeyValueStore {
	m := &MockKeyValueStore{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// MockKeyValueStore_Expecter exposes typed expectation helpers.
type MockKeyValueStore_Expecter struct {
	mock *mock.Mock
}

// EXPECT returns the typed expecter.
func (_m *MockKeyValueStore) EXPECT() *MockKeyValueStore_Expecter {
	return &MockKeyValueStore_Expecter{mock: &_m.Mock}
}

// Get provides a mock function.
func (_m *MockKeyValueStore) Get(ctx context.Context, key string) (string, error) {
	ret := _m.Called(ctx, key)

	return ret.String(0), ret.Error(1)
}

// Set provides a mock function.
func (_m *MockKeyValueStore) Set(ctx context.Context, key, value string) error {
	ret := _m.Called(ctx, key, value)

	return ret.Error(0)
}

// Delete provides a mock function.
func (_m *MockKeyValueStore) Delete(ctx context.Context, key string) error {
	ret := _m.Called(ctx, key)

	return ret.Error(0)
}

// MockKeyValueStore_Get_Call is a typed *mock.Call.
type MockKeyValueStore_Get_Call struct {
	*mock.Call
}

// Get registers an expectation.
func (_e *MockKeyValueStore_Expecter) Get(ctx any, key any) *MockKeyValueStore_Get_Call {
	return &MockKeyValueStore_Get_Call{Call: _e.mock.On("Get", ctx, key)}
}

// Return sets the return values.
func (_c *MockKeyValueStore_Get_Call) Return(value string, err error) *MockKeyValueStore_Get_Call {
	_c.Call.Return(value, err)
	return _c
}

// MockKeyValueStore_Set_Call is a typed *mock.Call.
type MockKeyValueStore_Set_Call struct {
	*mock.Call
}

// Set registers an expectation.
func (_e *MockKeyValueStore_Expecter) Set(ctx any, key any, value any) *MockKeyValueStore_Set_Call {
	return &MockKeyValueStore_Set_Call{Call: _e.mock.On("Set", ctx, key, value)}
}

// Return sets the return value.
func (_c *MockKeyValueStore_Set_Call) Return(err error) *MockKeyValueStore_Set_Call {
	_c.Call.Return(err)
	return _c
}

// MockKeyValueStore_Delete_Call is a typed *mock.Call.
type MockKeyValueStore_Delete_Call struct {
	*mock.Call
}

// Delete registers an expectation.
func (_e *MockKeyValueStore_Expecter) Delete(ctx any, key any) *MockKeyValueStore_Delete_Call {
	return &MockKeyValueStore_Delete_Call{Call: _e.mock.On("Delete", ctx, key)}
}

// Return sets the return value.
func (_c *MockKeyValueStore_Delete_Call) Return(err error) *MockKeyValueStore_Delete_Call {
	_c.Call.Return(err)
	return _c
}
