package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanfit-commerce/shipping-service/pkg/logging"
)

func TestNewEventEnvelope(t *testing.T) {
	payload := map[string]string{"cartId": "cart-1"}
	env := NewEventEnvelope("com.vanfit.shipping.quotes.requested", "shipping-service", "cart/cart-1", payload)

	assert.NotEmpty(t, env.ID)
	assert.Equal(t, "com.vanfit.shipping.quotes.requested", env.Type)
	assert.Equal(t, "shipping-service", env.Source)
	assert.Equal(t, "cart/cart-1", env.Subject)
	assert.WithinDuration(t, time.Now().UTC(), env.Time, time.Minute)
	assert.Empty(t, env.CorrelationID)
}

func TestNewEventEnvelopeFromContext(t *testing.T) {
	ctx := logging.ContextWithCorrelationID(context.Background(), "corr-42")

	env := NewEventEnvelopeFromContext(ctx, "com.vanfit.shipping.quotes.returned", "shipping-service", "cart/cart-3", nil)
	assert.Equal(t, "corr-42", env.CorrelationID)

	// The correlation header reaches the wire.
	msg, err := toMessage(env)
	require.NoError(t, err)
	var header string
	for _, h := range msg.Headers {
		if h.Key == "correlation-id" {
			header = string(h.Value)
		}
	}
	assert.Equal(t, "corr-42", header)

	// No correlation on the context means none on the envelope.
	env = NewEventEnvelopeFromContext(context.Background(), "com.vanfit.shipping.quotes.returned", "shipping-service", "cart/cart-3", nil)
	assert.Empty(t, env.CorrelationID)
}

func TestToMessageKeyedBySubject(t *testing.T) {
	env := NewEventEnvelope("com.vanfit.shipping.quotes.returned", "shipping-service", "cart/cart-9", map[string]int{"quotes": 3})

	msg, err := toMessage(env)
	require.NoError(t, err)

	assert.Equal(t, []byte("cart/cart-9"), msg.Key)
	assert.Equal(t, env.Time, msg.Time)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "com.vanfit.shipping.quotes.returned", headers["event-type"])
	assert.Equal(t, "shipping-service", headers["event-source"])
	assert.Equal(t, env.ID, headers["event-id"])
	assert.Equal(t, "application/json", headers["content-type"])
	assert.NotContains(t, headers, "correlation-id")

	var decoded EventEnvelope
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, env.ID, decoded.ID)
}

func TestToMessageCorrelationHeader(t *testing.T) {
	env := NewEventEnvelope("com.vanfit.shipping.quote.selected", "shipping-service", "cart/cart-2", nil)
	env.CorrelationID = "corr-7"

	msg, err := toMessage(env)
	require.NoError(t, err)

	found := false
	for _, h := range msg.Headers {
		if h.Key == "correlation-id" {
			found = true
			assert.Equal(t, "corr-7", string(h.Value))
		}
	}
	assert.True(t, found)
}
