package database

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList is a []string stored as a JSON array in a TEXT column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal string list: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	return scanJSON(src, (*[]string)(l), "string list")
}

// Vector is a numeric embedding stored as a JSON array in a TEXT column.
// The core never interprets its values, only passes them through.
type Vector []float32

// Value implements driver.Valuer.
func (v Vector) Value() (driver.Value, error) {
	if v == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]float32(v))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal vector: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (v *Vector) Scan(src any) error {
	return scanJSON(src, (*[]float32)(v), "vector")
}

// ProfileDraft holds the partial profile accumulated during onboarding,
// stored as a JSON object in a TEXT column.
type ProfileDraft struct {
	Username string `json:"username,omitempty"`
	Location string `json:"location,omitempty"`
	Bio      string `json:"bio,omitempty"`
}

// Value implements driver.Valuer.
func (d ProfileDraft) Value() (driver.Value, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile draft: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (d *ProfileDraft) Scan(src any) error {
	return scanJSON(src, d, "profile draft")
}

// ConversationMessage is one entry in a conversation's message log.
type ConversationMessage struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationMessages is the append-only message log of a conversation,
// stored as a JSON array in a TEXT column.
type ConversationMessages []ConversationMessage

// Value implements driver.Valuer.
func (m ConversationMessages) Value() (driver.Value, error) {
	if m == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]ConversationMessage(m))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal conversation messages: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (m *ConversationMessages) Scan(src any) error {
	return scanJSON(src, (*[]ConversationMessage)(m), "conversation messages")
}

func scanJSON(src any, dst any, what string) error {
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	default:
		return fmt.Errorf("cannot scan %T into %s", src, what)
	}
}

// UserProfile represents a completed user profile keyed by the sender's
// phone number. It is created exactly once by onboarding termination and
// thereafter mutated only through the merge policy in the profile package.
type UserProfile struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	UserID          string     `db:"user_id"`
	Username        string     `db:"username"`
	Location        string     `db:"location"`
	Timezone        string     `db:"timezone"`
	Bio             string     `db:"bio"`
	Education       string     `db:"education"`
	Occupation      string     `db:"occupation"`
	Interests       StringList `db:"interests"`
	Skills          StringList `db:"skills"`
	CurrentProjects StringList `db:"current_projects"`
	Goals           StringList `db:"goals"`
	Embedding       Vector     `db:"embedding"`
}

// OnboardingState is the per-sender persisted onboarding position: step
// counter, partial profile, and the raw messages accumulated so far. The row
// is deleted in the same transaction that materializes the profile.
type OnboardingState struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	UserID              string       `db:"user_id"`
	Step                int          `db:"step"`
	PartialProfile      ProfileDraft `db:"partial_profile"`
	AccumulatedMessages StringList   `db:"accumulated_messages"`
}

// Conversation is the active message log for one user.
type Conversation struct {
	ID        uint                 `db:"id"`
	UserID    string               `db:"user_id"`
	Messages  ConversationMessages `db:"messages"`
	StartedAt time.Time            `db:"started_at"`
	EndedAt   time.Time            `db:"ended_at"`
}

// ConversationArchive holds messages rotated out of an active conversation
// once it exceeds the configured history limit.
type ConversationArchive struct {
	ID        string               `db:"id"`
	UserID    string               `db:"user_id"`
	Messages  ConversationMessages `db:"messages"`
	StartedAt time.Time            `db:"started_at"`
	EndedAt   time.Time            `db:"ended_at"`
}

// Opportunity is one recommendable item with its ranking embedding.
type Opportunity struct {
	ID          string       `db:"id"`
	Title       string       `db:"title"`
	Description string       `db:"description"`
	Type        string       `db:"type"`
	City        string       `db:"city"`
	State       string       `db:"state"`
	Deadline    sql.NullTime `db:"deadline"`
	Tags        StringList   `db:"tags"`
	Embedding   Vector       `db:"embedding"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
}

// Recommendation records that an opportunity was recommended to a user.
type Recommendation struct {
	ID            uint      `db:"id"`
	UserID        string    `db:"user_id"`
	OpportunityID string    `db:"opportunity_id"`
	Score         float64   `db:"score"`
	Status        string    `db:"status"`
	CreatedAt     time.Time `db:"created_at"`
}
