package kafka

import (
	"testing"
	"time"

	"github.com/couchcryptid/hydro-assess-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("req-1"),
		Value:     []byte(`{"area_m2":150}`),
		Topic:     "site-assessment-requests",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "request_id", Value: []byte("abc-123")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("req-1"), raw.Key)
	assert.JSONEq(t, `{"area_m2":150}`, string(raw.Value))
	assert.Equal(t, "site-assessment-requests", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "abc-123", raw.Headers["request_id"])
	assert.Nil(t, raw.Commit)
}

func TestToMessage(t *testing.T) {
	event := domain.OutputEvent{
		Key:   []byte("0b4c6a1e-assessment"),
		Value: []byte(`{"id":"0b4c6a1e-assessment"}`),
		Headers: map[string]string{
			"strategy":    "Hybrid System",
			"assessed_at": "2026-05-01T06:00:00Z",
			"request_id":  "abc-123",
		},
	}

	msg := toMessage(event)

	assert.Equal(t, event.Key, msg.Key)
	assert.Equal(t, event.Value, msg.Value)
	assert.Equal(t, []kafkago.Header{
		{Key: "assessed_at", Value: []byte("2026-05-01T06:00:00Z")},
		{Key: "request_id", Value: []byte("abc-123")},
		{Key: "strategy", Value: []byte("Hybrid System")},
	}, msg.Headers)
}

func TestToMessage_NoHeaders(t *testing.T) {
	msg := toMessage(domain.OutputEvent{Key: []byte("k"), Value: []byte("{}")})
	assert.Empty(t, msg.Headers)
}
