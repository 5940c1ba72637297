package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestProducer_Publish(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	p := &Producer{writer: w, topic: "cart_events"}

	total := decimal.RequireFromString("25.50")
	ev := New(TypeCartCheckedOut, 42)
	ev.Total = &total
	ev.CheckoutID = "abc"

	require.NoError(t, p.Publish(context.Background(), ev))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "42", string(w.msgs[0].Key))
	assert.Equal(t, "type", w.msgs[0].Headers[0].Key)
	assert.Equal(t, TypeCartCheckedOut, string(w.msgs[0].Headers[0].Value))

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, "cart_checked_out", got["type"])
	assert.EqualValues(t, 42, got["owner_id"])
	assert.Equal(t, "abc", got["checkout_id"])
	assert.NotEmpty(t, got["id"])
	assert.NotContains(t, got, "item_id")

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_PublishError(t *testing.T) {
	t.Parallel()

	boom := errors.New("broker down")
	p := &Producer{writer: &fakeWriter{err: boom}, topic: "cart_events"}

	err := p.Publish(context.Background(), New(TypeItemAdded, 1))
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "item_added")
}

func TestNewProducer_Validates(t *testing.T) {
	t.Parallel()

	_, err := NewProducer(nil, "cart_events")
	require.Error(t, err)

	_, err = NewProducer([]string{"localhost:9092"}, "")
	require.Error(t, err)

	p, err := NewProducer([]string{"localhost:9092"}, "cart_events")
	require.NoError(t, err)
	require.NoError(t, p.Close())
}
