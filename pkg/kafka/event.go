package kafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// TopicPrefix is the prefix shared by every topic this service publishes to.
const TopicPrefix = "ecommerce"

// Topic builds a topic name such as "ecommerce.cart.updated".
func Topic(domain, action string) string {
	return TopicPrefix + "." + strings.ToLower(domain) + "." + strings.ToLower(action)
}

// Message header keys.
const (
	HeaderEventType     = "event_type"
	HeaderSource        = "source"
	HeaderCorrelationID = "correlation_id"
	HeaderUserID        = "user_id"
)

// Aggregate names the entity an event is about.
type Aggregate struct {
	Type string
	ID   string
}

// Event is the JSON envelope written as the value of every message.
type Event struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	Version       int             `json:"version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Source        string          `json:"source,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	UserID        string          `json:"user_id,omitempty"`
	Data          json.RawMessage `json:"data"`

	key string
}

// Option customises an event built by NewEvent.
type Option func(*Event)

// WithSource records the publishing service.
func WithSource(source string) Option {
	return func(e *Event) { e.Source = source }
}

// WithCorrelationID ties the event to the request that caused it.
func WithCorrelationID(id string) Option {
	return func(e *Event) { e.CorrelationID = id }
}

// WithUserID records the shopper the event belongs to.
func WithUserID(id string) Option {
	return func(e *Event) { e.UserID = id }
}

// WithPartitionKey overrides the message key. By default events are keyed
// by aggregate ID.
func WithPartitionKey(key string) Option {
	return func(e *Event) { e.key = key }
}

// NewEvent wraps data in an envelope with a fresh ID and timestamp.
func NewEvent(eventType string, agg Aggregate, data any, opts ...Option) (*Event, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	e := &Event{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		AggregateType: agg.Type,
		AggregateID:   agg.ID,
		Version:       1,
		OccurredAt:    time.Now().UTC(),
		Data:          payload,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Validate reports a missing event type or aggregate.
func (e *Event) Validate() error {
	var errs []error
	if e.EventType == "" {
		errs = append(errs, errors.New("event type is required"))
	}
	if e.AggregateType == "" || e.AggregateID == "" {
		errs = append(errs, errors.New("aggregate type and id are required"))
	}
	return errors.Join(errs...)
}

// PartitionKey returns the message key: the explicit key when one was set,
// otherwise the aggregate ID.
func (e *Event) PartitionKey() string {
	if e.key != "" {
		return e.key
	}
	return e.AggregateID
}

// Headers returns the message headers consumers route on without decoding
// the value. Empty fields are omitted.
func (e *Event) Headers() []kafka.Header {
	headers := []kafka.Header{{Key: HeaderEventType, Value: []byte(e.EventType)}}
	for _, h := range []struct{ key, value string }{
		{HeaderSource, e.Source},
		{HeaderCorrelationID, e.CorrelationID},
		{HeaderUserID, e.UserID},
	} {
		if h.value != "" {
			headers = append(headers, kafka.Header{Key: h.key, Value: []byte(h.value)})
		}
	}
	return headers
}

// Marshal serializes the event to JSON.
func (e *Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalEvent decodes a message value. The partition key is not part of
// the value and is left empty.
func UnmarshalEvent(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return &e, nil
}

// UnmarshalData decodes the payload into target.
func (e *Event) UnmarshalData(target any) error {
	return json.Unmarshal(e.Data, target)
}
