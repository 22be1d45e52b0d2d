package ports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockChecker implements HealthChecker for testing.
type mockChecker struct {
	name     string
	err      error
	optional bool
	delay    time.Duration
}

func (m *mockChecker) Name() string {
	return m.name
}

func (m *mockChecker) Check(ctx context.Context) error {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return m.err
}

func (m *mockChecker) Optional() bool {
	return m.optional
}

func TestNewHealthRegistry(t *testing.T) {
	registry := NewHealthRegistry(0)

	require.NotNil(t, registry)
	assert.NotNil(t, registry.checkers)
	assert.Empty(t, registry.checkers)
}

func TestRegister_DuplicateName(t *testing.T) {
	registry := NewHealthRegistry(0)

	require.NoError(t, registry.Register(&mockChecker{name: "sqlite"}))

	err := registry.Register(&mockChecker{name: "sqlite"})

	require.Error(t, err)
	require.ErrorIs(t, err, ErrDuplicateChecker)
	assert.Contains(t, err.Error(), "sqlite")
	assert.Len(t, registry.checkers, 1)
}

func TestCheckAll_NoCheckers(t *testing.T) {
	result := NewHealthRegistry(0).CheckAll(context.Background())

	require.NotNil(t, result)
	assert.Equal(t, HealthStatusHealthy, result.Status)
	assert.Empty(t, result.Checks)
	assert.False(t, result.Timestamp.IsZero())
}

func TestCheckAll_Statuses(t *testing.T) {
	tests := []struct {
		name     string
		checkers []*mockChecker
		want     HealthStatus
	}{
		{
			name: "all healthy",
			checkers: []*mockChecker{
				{name: "sqlite"},
				{name: "quote-feed", optional: true},
			},
			want: HealthStatusHealthy,
		},
		{
			name: "optional failure degrades",
			checkers: []*mockChecker{
				{name: "sqlite"},
				{name: "quote-feed", optional: true, err: errors.New("HTTP 502")},
			},
			want: HealthStatusDegraded,
		},
		{
			name: "required failure is unhealthy",
			checkers: []*mockChecker{
				{name: "sqlite", err: errors.New("database is locked")},
				{name: "quote-feed", optional: true},
			},
			want: HealthStatusUnhealthy,
		},
		{
			name: "required failure wins over optional failure",
			checkers: []*mockChecker{
				{name: "sqlite", err: errors.New("database is locked")},
				{name: "quote-feed", optional: true, err: errors.New("HTTP 502")},
			},
			want: HealthStatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewHealthRegistry(0)
			for _, c := range tt.checkers {
				require.NoError(t, registry.Register(c))
			}

			result := registry.CheckAll(context.Background())

			assert.Equal(t, tt.want, result.Status)
			assert.Len(t, result.Checks, len(tt.checkers))

			for _, c := range tt.checkers {
				check := result.Checks[c.name]
				require.NotNil(t, check)
				assert.Equal(t, c.optional, check.Optional)

				if c.err != nil {
					assert.Equal(t, HealthStatusUnhealthy, check.Status)
					assert.Equal(t, c.err.Error(), check.Message)
				} else {
					assert.Empty(t, check.Message)
				}
			}
		})
	}
}

func TestCheckAll_TimeoutBoundsSlowCheck(t *testing.T) {
	registry := NewHealthRegistry(20 * time.Millisecond)
	require.NoError(t, registry.Register(&mockChecker{name: "slow", delay: time.Second}))

	start := time.Now()
	result := registry.CheckAll(context.Background())

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, HealthStatusUnhealthy, result.Status)
	assert.Contains(t, result.Checks["slow"].Message, "deadline exceeded")
}
