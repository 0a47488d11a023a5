// Package profile implements the merge policy for user profile mutations.
// Deltas never clobber populated fields: scalar values only fill blanks,
// list values are unioned, and the biography is replaced wholesale only when
// the producer explicitly signals a rewrite.
package profile

import "github.com/oppscout/oppscout/internal/database"

// Background holds the profile field candidates produced by the extraction
// collaborator at the end of onboarding.
type Background struct {
	Username string `json:"username"`
	Location string `json:"location"`
	Bio      string `json:"bio"`
}

// Delta is a requested profile mutation from the conversation pipeline.
// Empty scalar fields and nil lists mean "no change".
type Delta struct {
	Username        string   `json:"username,omitempty"`
	Location        string   `json:"location,omitempty"`
	Timezone        string   `json:"timezone,omitempty"`
	Bio             string   `json:"bio,omitempty"`
	BioRewrite      bool     `json:"bio_rewrite,omitempty"`
	Education       string   `json:"education,omitempty"`
	Occupation      string   `json:"occupation,omitempty"`
	Interests       []string `json:"interests,omitempty"`
	Skills          []string `json:"skills,omitempty"`
	CurrentProjects []string `json:"current_projects,omitempty"`
	Goals           []string `json:"goals,omitempty"`
}

// IsZero reports whether the delta requests no change at all.
func (d *Delta) IsZero() bool {
	if d == nil {
		return true
	}
	return d.Username == "" && d.Location == "" && d.Timezone == "" && d.Bio == "" &&
		d.Education == "" && d.Occupation == "" &&
		len(d.Interests) == 0 && len(d.Skills) == 0 &&
		len(d.CurrentProjects) == 0 && len(d.Goals) == 0
}

// Merge applies a delta to a profile in place and reports whether the
// biography changed (callers re-embed on biography changes).
func Merge(p *database.UserProfile, d *Delta) (bioChanged bool) {
	if p == nil || d == nil {
		return false
	}

	p.Username = fillBlank(p.Username, d.Username)
	p.Location = fillBlank(p.Location, d.Location)
	p.Timezone = fillBlank(p.Timezone, d.Timezone)
	p.Education = fillBlank(p.Education, d.Education)
	p.Occupation = fillBlank(p.Occupation, d.Occupation)

	p.Interests = unionList(p.Interests, d.Interests)
	p.Skills = unionList(p.Skills, d.Skills)
	p.CurrentProjects = unionList(p.CurrentProjects, d.CurrentProjects)
	p.Goals = unionList(p.Goals, d.Goals)

	if d.Bio != "" {
		if d.BioRewrite {
			if p.Bio != d.Bio {
				p.Bio = d.Bio
				bioChanged = true
			}
		} else if p.Bio == "" {
			p.Bio = d.Bio
			bioChanged = true
		}
	}
	return bioChanged
}

// MergeBackground folds extraction candidates into an onboarding draft.
// Candidates win over blanks only.
func MergeBackground(draft database.ProfileDraft, bg *Background) database.ProfileDraft {
	if bg == nil {
		return draft
	}
	draft.Username = fillBlank(draft.Username, bg.Username)
	draft.Location = fillBlank(draft.Location, bg.Location)
	draft.Bio = fillBlank(draft.Bio, bg.Bio)
	return draft
}

func fillBlank(existing, candidate string) string {
	if existing != "" || candidate == "" {
		return existing
	}
	return candidate
}

func unionList(existing database.StringList, additions []string) database.StringList {
	if len(additions) == 0 {
		return existing
	}

	seen := make(map[string]bool, len(existing))
	for _, item := range existing {
		seen[item] = true
	}
	for _, item := range additions {
		if item == "" || seen[item] {
			continue
		}
		existing = append(existing, item)
		seen[item] = true
	}
	return existing
}
