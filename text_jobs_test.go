package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleTextJob(t *testing.T) {
	gateway := newTestGateway()

	res, err := gateway.handleTextJob([]byte(`{"id":"j1","op":"encode","field":"MST.Msg","text":"Ω"}`))
	require.NoError(t, err)
	assert.Equal(t, "j1", res.ID)
	assert.Equal(t, 64, res.Size)
	assert.Equal(t, []byte{'^', 'G', 0xD9, 0}, res.Data[:4])
	assert.Equal(t, 3, res.Written)
	assert.Empty(t, res.Error)
	assert.False(t, res.ProcessedAt.IsZero())

	res, err = gateway.handleTextJob([]byte(`{"id":"j2","op":"decode","data":"XkfZAA=="}`))
	require.NoError(t, err)
	assert.Equal(t, "^GΩ", res.Text)

	res, err = gateway.handleTextJob([]byte(`{"op":"split","size":6,"text":"Hello world"}`))
	require.NoError(t, err)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, []string{"Hello", " worl", "d"}, res.Segments)

	res, err = gateway.handleTextJob([]byte(`{"id":"j4","op":"encode","field":"BAD.Field","text":"x"}`))
	require.NoError(t, err)
	assert.Contains(t, res.Error, "unknown string field")

	_, err = gateway.handleTextJob([]byte(`{"id":"j5","op":"reverse"}`))
	assert.ErrorIs(t, err, ErrUnknownOp)

	_, err = gateway.handleTextJob([]byte(`{`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestProcessDeliveryDropsUnreadableJob(t *testing.T) {
	gateway := newTestGateway()

	var acked, nacked, requeued bool
	gateway.processDelivery(context.Background(), []byte(`garbage`),
		func(context.Context, string, []byte) error { t.Fatal("published unreadable job"); return nil },
		func(bool) error { acked = true; return nil },
		func(_, requeue bool) error { nacked = true; requeued = requeue; return nil },
	)

	assert.False(t, acked)
	assert.True(t, nacked)
	assert.False(t, requeued)
}

type recordedDelivery struct {
	queue    string
	body     []byte
	acked    bool
	nacked   bool
	multiple bool
	requeued bool
}

func (r *recordedDelivery) publish(_ context.Context, queue string, body []byte) error {
	r.queue = queue
	r.body = body
	return nil
}

func (r *recordedDelivery) ack(multiple bool) error {
	r.acked = true
	r.multiple = multiple
	return nil
}

func (r *recordedDelivery) nack(multiple, requeue bool) error {
	r.nacked = true
	r.multiple = multiple
	r.requeued = requeue
	return nil
}

func TestProcessDeliveryPublishesResult(t *testing.T) {
	gateway := newTestGateway()
	gateway.Config.ResultsQueue = "text_results"

	var rec recordedDelivery
	gateway.processDelivery(context.Background(),
		[]byte(`{"id":"j1","op":"split","size":6,"text":"Hello world"}`),
		rec.publish, rec.ack, rec.nack)

	assert.True(t, rec.acked)
	assert.False(t, rec.multiple)
	assert.False(t, rec.nacked)
	assert.Equal(t, "text_results", rec.queue)

	var res TextJobResult
	require.NoError(t, json.Unmarshal(rec.body, &res))
	assert.Equal(t, "j1", res.ID)
	assert.Equal(t, []string{"Hello", " worl", "d"}, res.Segments)
}

func TestProcessDeliveryRequeuesOnPublishError(t *testing.T) {
	gateway := newTestGateway()

	var rec recordedDelivery
	gateway.processDelivery(context.Background(),
		[]byte(`{"id":"j1","op":"encode","size":8,"text":"hi"}`),
		func(context.Context, string, []byte) error { return errors.New("broker gone") },
		rec.ack, rec.nack)

	assert.False(t, rec.acked)
	assert.True(t, rec.nacked)
	assert.False(t, rec.multiple)
	assert.True(t, rec.requeued)
}
