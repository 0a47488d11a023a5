package queue

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Payload carries the message body of an envelope. On the wire it is either
// a single JSON string or an array of strings (one element per batched
// message, in arrival order).
type Payload []string

// UnmarshalJSON accepts both a plain string and an array of strings.
func (p *Payload) UnmarshalJSON(data []byte) error {
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*p = many
		return nil
	}

	var one string
	if err := json.Unmarshal(data, &one); err != nil {
		return fmt.Errorf("payload must be a string or an array of strings: %w", err)
	}
	*p = Payload{one}
	return nil
}

// MarshalJSON emits a plain string for single-message payloads and an array
// otherwise, matching what producers on both ends of the queue expect.
func (p Payload) MarshalJSON() ([]byte, error) {
	if len(p) == 1 {
		return json.Marshal(p[0])
	}
	return json.Marshal([]string(p))
}

// Join concatenates the payload messages with newlines, preserving order.
func (p Payload) Join() string {
	return strings.Join(p, "\n")
}

// Envelope is one unit of work on the durable queue, inbound or outbound.
type Envelope struct {
	ID          string  `json:"id,omitempty"`
	PhoneNumber string  `json:"phone_number"`
	Message     Payload `json:"message"`
	Timestamp   string  `json:"timestamp"`
	IsOutbound  bool    `json:"is_outbound,omitempty"`
}

// NewInbound builds an inbound envelope for a batch of messages from one
// sender, stamped with the current time.
func NewInbound(phoneNumber string, messages []string) *Envelope {
	return &Envelope{
		ID:          ulid.Make().String(),
		PhoneNumber: phoneNumber,
		Message:     Payload(messages),
		Timestamp:   formatTimestamp(time.Now()),
	}
}

// NewOutbound builds an outbound envelope carrying one reply.
func NewOutbound(phoneNumber, message string) *Envelope {
	return &Envelope{
		ID:          ulid.Make().String(),
		PhoneNumber: phoneNumber,
		Message:     Payload{message},
		Timestamp:   formatTimestamp(time.Now()),
		IsOutbound:  true,
	}
}

func formatTimestamp(t time.Time) string {
	return strconv.FormatFloat(float64(t.UnixNano())/1e9, 'f', 6, 64)
}

// Encode serializes the envelope for the wire.
func (e *Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEnvelope parses a wire item. A decode failure wraps
// ErrMalformedEnvelope so consumers can drop the item instead of retrying it.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env.PhoneNumber == "" {
		return nil, fmt.Errorf("%w: missing phone_number", ErrMalformedEnvelope)
	}
	return &env, nil
}
