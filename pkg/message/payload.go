// Package message defines the chat payloads exchanged with Cliq: a text body,
// an optional card header, and optional table slides.
package message

import "strings"

// Theme selects the visual styling of a card.
type Theme string

const (
	// ThemeInline is the default, neutral card styling.
	ThemeInline Theme = "modern-inline"
	// ThemePrompt is the urgent styling used for warnings and failures.
	ThemePrompt Theme = "prompt"
)

// Card is the titled header rendered above the text body.
type Card struct {
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	Theme     Theme  `json:"theme"`
}

// Payload is a composed chat message. Text is always set; Card and Slides
// are optional.
type Payload struct {
	Text   string  `json:"text"`
	Card   *Card   `json:"card,omitempty"`
	Slides []Slide `json:"slides,omitempty"`
}

// NewPayload returns a payload with the given text and card.
func NewPayload(text string, card Card) Payload {
	return Payload{Text: text, Card: &card}
}

// Text returns a card-less payload.
func Text(text string) Payload {
	return Payload{Text: text}
}

// Urgent reports whether the payload carries the prompt theme.
func (p Payload) Urgent() bool {
	return p.Card != nil && p.Card.Theme == ThemePrompt
}

// Title returns the card title, or the first line of the text when the
// payload has no card.
func (p Payload) Title() string {
	if p.Card != nil && p.Card.Title != "" {
		return p.Card.Title
	}
	first, _, _ := strings.Cut(p.Text, "\n")
	return first
}

// Reply wraps a payload in the envelope expected by a Cliq response URL.
type Reply struct {
	Output Payload `json:"output"`
}
