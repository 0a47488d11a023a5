// Package intent defines the tagged union of reply intents produced by the
// conversation classifier. Every intent carries an explicit kind
// discriminant; consumers switch on Kind and never inspect field presence
// or ordering to infer the intent.
package intent

import (
	"encoding/json"
	"fmt"

	"github.com/oppscout/oppscout/internal/profile"
)

// Kind discriminates the intent variants.
type Kind string

const (
	// KindCasualChat is ordinary conversation with no side effects.
	KindCasualChat Kind = "casual_chat"

	// KindNewRecommendation is the model volunteering a recommendation.
	KindNewRecommendation Kind = "new_recommendation"

	// KindNewRecommendationRequest is the user asking for a recommendation.
	KindNewRecommendationRequest Kind = "new_recommendation_request"

	// KindProfileUpdate carries profile field deltas to merge.
	KindProfileUpdate Kind = "profile_update"

	// KindAdviceRequest is the user asking for advice, answered directly.
	KindAdviceRequest Kind = "advice_request"
)

// Valid reports whether k is a known intent kind.
func (k Kind) Valid() bool {
	switch k {
	case KindCasualChat, KindNewRecommendation, KindNewRecommendationRequest,
		KindProfileUpdate, KindAdviceRequest:
		return true
	}
	return false
}

// Filters narrows a recommendation request.
type Filters struct {
	TopK           int    `json:"top_k,omitempty"`
	DeadlineBefore string `json:"deadline_before,omitempty"`
}

// Intent is one classified reply intent.
type Intent struct {
	Kind Kind `json:"kind"`

	// Reply is the conversational text to send for chat and advice intents.
	Reply string `json:"reply,omitempty"`

	// ProfileDelta is set only for KindProfileUpdate.
	ProfileDelta *profile.Delta `json:"profile_delta,omitempty"`

	// Filters is set only for recommendation intents.
	Filters *Filters `json:"filters,omitempty"`
}

// Parse decodes a classifier JSON document into an Intent. A missing or
// unknown kind is an error; callers fall back to a plain chat reply rather
// than guessing.
func Parse(data []byte) (*Intent, error) {
	var in Intent
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("failed to parse intent JSON: %w", err)
	}
	if !in.Kind.Valid() {
		return nil, fmt.Errorf("unknown intent kind %q", in.Kind)
	}
	return &in, nil
}
