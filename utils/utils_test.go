package utils

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Circuit Breaker Tests

func TestCircuitBreaker_NewCircuitBreaker(t *testing.T) {
	cb := NewCircuitBreaker("test")

	assert.Equal(t, "test", cb.Name())
	assert.Equal(t, uint32(100), cb.maxRequests)
	assert.Equal(t, 60*time.Second, cb.interval)
	assert.Equal(t, 60*time.Second, cb.timeout)
	assert.Equal(t, 0.6, cb.failureRatio)
	assert.Equal(t, StateClosed, cb.state)
	assert.False(t, cb.expiry.IsZero())
}

func TestCircuitBreaker_Options(t *testing.T) {
	cb := NewCircuitBreaker("options",
		WithMaxRequests(3),
		WithInterval(0),
		WithTimeout(time.Second),
		WithFailureRatio(0.5),
	)

	assert.Equal(t, uint32(3), cb.maxRequests)
	assert.Equal(t, time.Duration(0), cb.interval)
	assert.Equal(t, time.Second, cb.timeout)
	assert.Equal(t, 0.5, cb.failureRatio)
	assert.True(t, cb.expiry.IsZero())
}

func TestCircuitBreaker_ExecuteSuccess(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx := context.Background()

	expectedResult := "success"
	result, err := cb.Execute(ctx, func() (any, error) {
		return expectedResult, nil
	})

	assert.NoError(t, err)
	assert.Equal(t, expectedResult, result)
	assert.Equal(t, StateClosed, cb.state)
	assert.Equal(t, uint32(1), cb.counts.Requests)
	assert.Equal(t, uint32(1), cb.counts.TotalSuccesses)
	assert.Equal(t, uint32(0), cb.counts.TotalFailures)
}

func TestCircuitBreaker_ExecuteFailure(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx := context.Background()

	expectedError := errors.New("test error")
	result, err := cb.Execute(ctx, func() (any, error) {
		return nil, expectedError
	})

	assert.Error(t, err)
	assert.Equal(t, expectedError, err)
	assert.Nil(t, result)
	assert.Equal(t, uint32(1), cb.counts.Requests)
	assert.Equal(t, uint32(0), cb.counts.TotalSuccesses)
	assert.Equal(t, uint32(1), cb.counts.TotalFailures)
}

func TestCircuitBreaker_StateTransition_ClosedToOpen(t *testing.T) {
	cb := NewCircuitBreaker("test", WithMaxRequests(5), WithFailureRatio(0.6))
	ctx := context.Background()

	// Execute some successful requests first
	for i := 0; i < 2; i++ {
		_, err := cb.Execute(ctx, func() (any, error) {
			return "success", nil
		})
		assert.NoError(t, err)
	}

	// Three failures out of five requests reaches the ratio
	for i := 0; i < 3; i++ {
		_, err := cb.Execute(ctx, func() (any, error) {
			return nil, errors.New("failure")
		})
		assert.Error(t, err)
	}

	assert.Equal(t, StateOpen, cb.State())

	// Next request should be rejected without executing
	_, err := cb.Execute(ctx, func() (any, error) {
		t.Fatal("This should not be executed when circuit is open")
		return nil, nil
	})

	assert.ErrorIs(t, err, ErrOpenState)
}

func TestCircuitBreaker_StateTransition_OpenToHalfOpen(t *testing.T) {
	cb := NewCircuitBreaker("test",
		WithMaxRequests(5),
		WithFailureRatio(0.6),
		WithTimeout(100*time.Millisecond),
	)
	ctx := context.Background()

	// Force circuit to open
	for i := 0; i < 5; i++ {
		cb.Execute(ctx, func() (any, error) {
			return nil, errors.New("failure")
		})
	}

	assert.Equal(t, StateOpen, cb.State())

	// Wait for timeout
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, cb.State())

	_, err := cb.Execute(ctx, func() (any, error) {
		return "success", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenToOpen(t *testing.T) {
	cb := NewCircuitBreaker("test",
		WithMaxRequests(2),
		WithFailureRatio(0.5),
		WithTimeout(100*time.Millisecond),
	)
	ctx := context.Background()

	// Force circuit to open
	for i := 0; i < 2; i++ {
		cb.Execute(ctx, func() (any, error) {
			return nil, errors.New("failure")
		})
	}

	// Wait for timeout to transition to half-open
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, cb.State())

	// A single failed trial request opens the circuit again
	_, err := cb.Execute(ctx, func() (any, error) {
		return nil, errors.New("failure")
	})

	assert.Error(t, err)
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_HalfOpenLimitsTrialRequests(t *testing.T) {
	cb := NewCircuitBreaker("test",
		WithMaxRequests(1),
		WithFailureRatio(1),
		WithTimeout(50*time.Millisecond),
	)
	ctx := context.Background()

	cb.Execute(ctx, func() (any, error) {
		return nil, errors.New("failure")
	})
	require.Equal(t, StateOpen, cb.State())
	time.Sleep(80 * time.Millisecond)

	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		cb.Execute(ctx, func() (any, error) {
			<-release
			return "slow trial", nil
		})
	}()

	// Wait for the trial request to be admitted
	assert.Eventually(t, func() bool {
		cb.mutex.Lock()
		defer cb.mutex.Unlock()
		return cb.counts.Requests == 1
	}, time.Second, 5*time.Millisecond)

	_, err := cb.Execute(ctx, func() (any, error) {
		t.Fatal("second trial request should be rejected")
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrTooManyRequests)

	close(release)
	<-done
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_IntervalClearsCounts(t *testing.T) {
	cb := NewCircuitBreaker("test",
		WithMaxRequests(2),
		WithFailureRatio(1),
		WithInterval(50*time.Millisecond),
	)
	ctx := context.Background()

	cb.Execute(ctx, func() (any, error) {
		return nil, errors.New("failure")
	})
	time.Sleep(80 * time.Millisecond)

	// The earlier failure belongs to an expired window
	cb.Execute(ctx, func() (any, error) {
		return nil, errors.New("failure")
	})

	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, uint32(1), cb.counts.TotalFailures)
}

func TestCircuitBreaker_ConcurrentAccess(t *testing.T) {
	cb := NewCircuitBreaker("concurrent-test")
	ctx := context.Background()

	var wg sync.WaitGroup
	numGoroutines := 100
	successCount := 0
	mu := sync.Mutex{}

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			_, err := cb.Execute(ctx, func() (any, error) {
				// Simulate some work
				time.Sleep(time.Millisecond)
				if id%10 == 0 { // 10% failure rate
					return nil, errors.New("simulated failure")
				}
				return "success", nil
			})

			if err == nil {
				mu.Lock()
				successCount++
				mu.Unlock()
			}
		}(i)
	}

	wg.Wait()

	assert.Equal(t, 90, successCount)
	assert.Equal(t, uint32(numGoroutines), cb.counts.Requests)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_PanicRecovery(t *testing.T) {
	cb := NewCircuitBreaker("panic-test")
	ctx := context.Background()

	assert.Panics(t, func() {
		cb.Execute(ctx, func() (any, error) {
			panic("test panic")
		})
	})

	// Circuit breaker should still function after panic
	result, err := cb.Execute(ctx, func() (any, error) {
		return "recovery", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "recovery", result)
	assert.Equal(t, uint32(1), cb.counts.TotalFailures)
}

func TestCircuitBreaker_ReadyToTrip(t *testing.T) {
	cb := NewCircuitBreaker("trip-test")

	tests := []struct {
		name           string
		requests       uint32
		failures       uint32
		maxRequests    uint32
		failureRatio   float64
		expectedResult bool
	}{
		{
			name:           "Not enough requests",
			requests:       5,
			failures:       5,
			maxRequests:    10,
			failureRatio:   0.5,
			expectedResult: false,
		},
		{
			name:           "High failure ratio",
			requests:       10,
			failures:       8,
			maxRequests:    10,
			failureRatio:   0.6,
			expectedResult: true,
		},
		{
			name:           "Low failure ratio",
			requests:       10,
			failures:       3,
			maxRequests:    10,
			failureRatio:   0.6,
			expectedResult: false,
		},
		{
			name:           "Exact failure ratio threshold",
			requests:       10,
			failures:       6,
			maxRequests:    10,
			failureRatio:   0.6,
			expectedResult: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb.maxRequests = tt.maxRequests
			cb.failureRatio = tt.failureRatio
			cb.counts.Requests = tt.requests
			cb.counts.TotalFailures = tt.failures

			result := cb.readyToTrip()
			assert.Equal(t, tt.expectedResult, result)
		})
	}
}

func TestCircuitBreaker_StateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "unknown", State(42).String())
}

// Redis Client Tests

func TestRedisHealthCheck_Success(t *testing.T) {
	db, mock := redismock.NewClientMock()

	mock.ExpectPing().SetVal("PONG")

	err := RedisHealthCheck(context.Background(), db)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisHealthCheck_Failure(t *testing.T) {
	db, mock := redismock.NewClientMock()

	expectedError := errors.New("connection failed")
	mock.ExpectPing().SetErr(expectedError)

	err := RedisHealthCheck(context.Background(), db)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis health check failed")
	assert.Contains(t, err.Error(), "connection failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	client, err := NewRedisClient(context.Background(), "redis://127.0.0.1:1/0")

	assert.Nil(t, client)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to redis at 127.0.0.1:1")
}

// Benchmark Tests

func BenchmarkCircuitBreaker_Execute_Success(b *testing.B) {
	cb := NewCircuitBreaker("benchmark")
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cb.Execute(ctx, func() (any, error) {
			return "success", nil
		})
	}
}

func BenchmarkCircuitBreaker_Execute_Concurrent(b *testing.B) {
	cb := NewCircuitBreaker("benchmark-concurrent")
	ctx := context.Background()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			cb.Execute(ctx, func() (any, error) {
				return "success", nil
			})
		}
	})
}
