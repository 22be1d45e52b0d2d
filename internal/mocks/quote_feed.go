// Package mocks holds testify mocks for the ports interfaces, written in the
// mockery expecter style.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tesfalem/quotewidget/internal/domain"
)

// MockQuoteFeed is a mock implementation of ports.QuoteFeed.
type MockQuoteFeed struct {
	mock.Mock
}

// NewMockQuoteFeed creates a mock and registers expectation assertions on cleanup.
func NewMockQuoteFeed(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockQuoteFeed {
	m := &MockQuoteFeed{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// MockQuoteFeed_Expecter exposes typed expectation helpers.
type MockQuoteFeed_Expecter struct {
	mock *mock.Mock
}

// EXPECT returns the typed expecter.
func (_m *MockQuoteFeed) EXPECT() *MockQuoteFeed_Expecter {
	return &MockQuoteFeed_Expecter{mock: &_m.Mock}
}

// FetchQuotes provides a mock function.
func (_m *MockQuoteFeed) FetchQuotes(ctx context.Context) ([]domain.Quote, error) {
	ret := _m.Called(ctx)

	if fn, ok := ret.Get(0).(func(context.Context) ([]domain.Quote, error)); ok {
		return fn(ctx)
	}

	var quotes []domain.Quote
	if v := ret.Get(0); v != nil {
		quotes = v.([]domain.Quote)
	}

	return quotes, ret.Error(1)
}

// MockQuoteFeed_FetchQuotes_Call is a typed *mock.Call.
type MockQuoteFeed_FetchQuotes_Call struct {
	*mock.Call
}

// FetchQuotes registers an expectation.
func (_e *MockQuoteFeed_Expecter) FetchQuotes(ctx any) *MockQuoteFeed_FetchQuotes_Call {
	return &MockQuoteFeed_FetchQuotes_Call{Call: _e.mock.On("FetchQuotes", ctx)}
}

// Return sets the return values.
func (_c *MockQuoteFeed_FetchQuotes_Call) Return(quotes []domain.Quote, err error) *MockQuoteFeed_FetchQuotes_Call {
	_c.Call.Return(quotes, err)
	return _c
}

// RunAndReturn computes the return values from fn.
func (_c *MockQuoteFeed_FetchQuotes_Call) RunAndReturn(fn func(context.Context) ([]domain.Quote, error)) *MockQuoteFeed_FetchQuotes_Call {
	_c.Call.Return(fn)
	return _c
}
