package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoprec/pkg/errorutil"
	"shoprec/pkg/logger"
)

// recordingSource 记录 Ack 调用的假消息源
type recordingSource struct {
	acked []string
}

func (r *recordingSource) Consume(queue string, timeout, ttr time.Duration) (*Message, error) {
	return nil, nil
}

func (r *recordingSource) Ack(queue string, jobID string) error {
	r.acked = append(r.acked, jobID)
	return nil
}

func jobData(t *testing.T, actionType string, data interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	payload, err := json.Marshal(Job{
		Payload: &JobPayload{
			Data: &JobPayloadData{
				RequestID:  "req-1",
				ActionType: actionType,
				Data:       raw,
			},
		},
	})
	require.NoError(t, err)
	return payload
}

func newTestProcessor(handlers map[string]Handler, source MessageSource) *Processor {
	cfg := &ProcessorConfig{Concurrency: 1, BufferSize: 1, Timeout: time.Second}
	return NewProcessor(cfg, handlers, source, logger.NewNopLogger())
}

func TestProcessor_SuccessAcks(t *testing.T) {
	source := &recordingSource{}
	var handled json.RawMessage
	handlers := map[string]Handler{
		"noop": func(ctx context.Context, payload json.RawMessage) error {
			handled = payload
			return nil
		},
	}
	p := newTestProcessor(handlers, source)

	msg := &Message{ID: "job-1", Queue: "q", Data: jobData(t, "noop", map[string]int{"n": 1})}
	p.process(context.Background(), msg, 0)

	assert.Equal(t, []string{"job-1"}, source.acked)
	assert.JSONEq(t, `{"n":1}`, string(handled))
}

func TestProcessor_RetryableFailureSkipsAck(t *testing.T) {
	source := &recordingSource{}
	handlers := map[string]Handler{
		"flaky": func(ctx context.Context, payload json.RawMessage) error {
			return errorutil.Retriable("downstream unavailable")
		},
	}
	p := newTestProcessor(handlers, source)

	msg := &Message{ID: "job-2", Queue: "q", Data: jobData(t, "flaky", nil)}
	p.process(context.Background(), msg, 0)

	assert.Empty(t, source.acked, "retryable failure must leave the job for TTR redelivery")
}

func TestProcessor_NonRetryableFailureAcks(t *testing.T) {
	source := &recordingSource{}
	handlers := map[string]Handler{
		"bad": func(ctx context.Context, payload json.RawMessage) error {
			return errorutil.NonRetriable("malformed payload")
		},
	}
	p := newTestProcessor(handlers, source)

	msg := &Message{ID: "job-3", Queue: "q", Data: jobData(t, "bad", nil)}
	p.process(context.Background(), msg, 0)

	assert.Equal(t, []string{"job-3"}, source.acked)
}

func TestProcessor_UnknownActionAcks(t *testing.T) {
	source := &recordingSource{}
	p := newTestProcessor(map[string]Handler{}, source)

	msg := &Message{ID: "job-4", Queue: "q", Data: jobData(t, "ghost", nil)}
	p.process(context.Background(), msg, 0)

	// 未知 action 是坏消息，重投也不会成功
	assert.Equal(t, []string{"job-4"}, source.acked)
}

func TestProcessor_MalformedJobAcks(t *testing.T) {
	source := &recordingSource{}
	p := newTestProcessor(map[string]Handler{}, source)

	tests := []struct {
		name string
		data []byte
	}{
		{"not json", []byte("not-json")},
		{"missing payload", []byte(`{}`)},
		{"missing payload data", []byte(`{"payload":{}}`)},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &Message{ID: tt.name, Queue: "q", Data: tt.data}
			p.process(context.Background(), msg, 0)
			assert.Len(t, source.acked, i+1)
		})
	}
}

func TestProcessor_PanicRecovered(t *testing.T) {
	source := &recordingSource{}
	handlers := map[string]Handler{
		"boom": func(ctx context.Context, payload json.RawMessage) error {
			panic("handler exploded")
		},
	}
	p := newTestProcessor(handlers, source)

	msg := &Message{ID: "job-5", Queue: "q", Data: jobData(t, "boom", nil)}

	assert.NotPanics(t, func() {
		p.process(context.Background(), msg, 0)
	})
	assert.Equal(t, []string{"job-5"}, source.acked)
}

func TestProcessor_NilMessageIgnored(t *testing.T) {
	source := &recordingSource{}
	p := newTestProcessor(map[string]Handler{}, source)

	p.process(context.Background(), nil, 0)

	assert.Empty(t, source.acked)
}
