package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tesfalem/quotewidget/internal/domain"
)

// MockQuotePublisher is a mock implementation of ports.QuotePublisher.
type MockQuotePublisher struct {
	mock.Mock
}

// NewMockQuotePublisher creates a mock and registers expectation assertions on cleanup.
func NewMockQuotePublisher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockQuotePublisher {
	m := &MockQuotePublisher{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// MockQuotePublisher_Expecter exposes typed expectation helpers.
type MockQuotePublisher_Expecter struct {
	mock *mock.Mock
}

// EXPECT returns the typed expecter.
func (_m *MockQuotePublisher) EXPECT() *MockQuotePublisher_Expecter {
	return &MockQuotePublisher_Expecter{mock: &_m.Mock}
}

// PushQuotes provides a mock function.
func (_m *MockQuotePublisher) PushQuotes(ctx context.Context, quotes domain.Collection) error {
	ret := _m.Called(ctx, quotes)

	if fn, ok := ret.Get(0).(func(context.Context, domain.Collection) error); ok {
		return fn(ctx, quotes)
	}

	return ret.Error(0)
}

// MockQuotePublisher_PushQuotes_Call is a typed *mock.Call.
type MockQuotePublisher_PushQuotes_Call struct {
	*mock.Call
}

// PushQuotes registers an expectation.
func (_e *MockQuotePublisher_Expecter) PushQuotes(ctx any, quotes any) *MockQuotePublisher_PushQuotes_Call {
	return &MockQuotePublisher_PushQuotes_Call{Call: _e.mock.On("PushQuotes", ctx, quotes)}
}

// Return sets the return value.
func (_c *MockQuotePublisher_PushQuotes_Call) Return(err error) *MockQuotePublisher_PushQuotes_Call {
	_c.Call.Return(err)
	return _c
}
