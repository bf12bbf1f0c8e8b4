package arena

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event is a match event mirrored to a Redis Stream for replay and
// post-match inspection. The stream is advisory; broadcasting to live
// clients never depends on it.
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

// NewEvent creates a new event with timestamp
func NewEvent(eventType string, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		Type:      eventType,
		Payload:   payloadBytes,
		Timestamp: time.Now().Unix(),
	}, nil
}

// PublishEvent appends an event to the match's stream, bounded by an
// approximate MAXLEN so history cannot grow without limit.
func PublishEvent(matchID string, event *Event) error {
	client := GetRedisClient()
	if client == nil {
		return fmt.Errorf("Redis client not available")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	streamKey := fmt.Sprintf("match:%s:events", matchID)
	_, err = client.XAdd(GetContext(), &redis.XAddArgs{
		Stream: streamKey,
		Values: map[string]interface{}{
			"data": string(data),
		},
		MaxLen: 10000,
		Approx: true,
	}).Result()

	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
