package api

import (
	"context"
	"net/http"
)

// Tone is a coaching voice offered by the backend; OpeningLine seeds the
// chat screen's greeting.
type Tone struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Style       string `json:"style"`
	PromptHint  string `json:"promptHint"`
	OpeningLine string `json:"openingLine"`
}

// Tones lists the coaching voices the backend serves.
func (c *Client) Tones(ctx context.Context) ([]Tone, error) {
	var out []Tone
	if err := c.doJSON(ctx, http.MethodGet, "tones/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
