package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerOpensAfterThreeFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", time.Minute, nil)
	failure := errors.New("broker down")

	for i := 0; i < 3; i++ {
		_, err := cb.Execute(func() (interface{}, error) { return nil, failure })
		require.ErrorIs(t, err, failure)
	}

	assert.Equal(t, gobreaker.StateOpen, cb.State())
	_, err := cb.Execute(func() (interface{}, error) { return nil, nil })
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestNoopPublisher(t *testing.T) {
	p := NewNoopPublisher(nil)
	require.NoError(t, p.Publish(context.Background(), Message{RoutingKey: "booking.confirmed"}))
	require.NoError(t, p.Close())
}
