package sim

// Tone captures a coaching voice the simulator can reply in.
type Tone struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Style       string `json:"style"`
	PromptHint  string `json:"promptHint"`
	OpeningLine string `json:"openingLine"`
}

// ToneStore exposes tone retrieval for handlers and the reply picker.
type ToneStore interface {
	List() []Tone
	FindByID(id string) (Tone, bool)
}

// MemoryToneStore implements ToneStore with an in-memory slice.
type MemoryToneStore struct {
	items []Tone
}

// NewMemoryToneStore returns a store preloaded with the supplied tones.
func NewMemoryToneStore(items []Tone) *MemoryToneStore {
	return &MemoryToneStore{items: append([]Tone(nil), items...)}
}

// List returns the configured tones.
func (s *MemoryToneStore) List() []Tone {
	return append([]Tone(nil), s.items...)
}

// FindByID looks up a tone by identifier.
func (s *MemoryToneStore) FindByID(id string) (Tone, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Tone{}, false
}

// SeedTones provides the default coaching voices.
func SeedTones() []Tone {
	return []Tone{
		{
			ID:          "supportive",
			Name:        "Supportive",
			Style:       "warm, encouraging, practical",
			PromptHint:  "Acknowledge the feeling first, then point at the smallest next step. Offer the micro-version before letting a task slip.",
			OpeningLine: "Hello! I'm your AI Coach. How can I help you with your discipline today?",
		},
		{
			ID:          "drill",
			Name:        "Drill Sergeant",
			Style:       "blunt, high-energy, no excuses",
			PromptHint:  "Short sentences. Call out the excuse, restate the commitment, demand a start time.",
			OpeningLine: "Report in. What's on the board today and what's already done?",
		},
		{
			ID:          "stoic",
			Name:        "Stoic",
			Style:       "calm, measured, principle-driven",
			PromptHint:  "Separate what is in the user's control from what is not. Frame the task as today's small duty.",
			OpeningLine: "The day is yours to shape. What obstacle are we examining?",
		},
	}
}
