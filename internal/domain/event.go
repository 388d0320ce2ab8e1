package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// ParseSiteInput decodes a site request from a raw message. Field validation
// happens later when the input is resolved into SiteParameters.
func ParseSiteInput(raw RawEvent) (SiteInput, error) {
	var in SiteInput
	if err := json.Unmarshal(raw.Value, &in); err != nil {
		return SiteInput{}, fmt.Errorf("parse site input: %w", err)
	}
	return in, nil
}

// SerializeAssessment encodes an assessment for the sink topic, keyed by its ID.
func SerializeAssessment(a Assessment) (OutputEvent, error) {
	value, err := json.Marshal(a)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize assessment: %w", err)
	}
	return OutputEvent{
		Key:   []byte(a.ID),
		Value: value,
		Headers: map[string]string{
			"strategy":    string(a.Recommendation.Strategy),
			"assessed_at": a.AssessedAt.Format(time.RFC3339),
		},
	}, nil
}
