package anim

import "github.com/ayusman/mudra/internal/hand"

// Selector picks the clip a hand should play each frame.
type Selector struct {
	// Manual is the clip chosen locally for the hand, "" meaning default.
	Manual string
}

// Select returns the tag from a fresh source when there is one, otherwise
// the manual choice.
func (s Selector) Select(external string, fresh bool) string {
	if fresh && external != "" {
		return external
	}
	if s.Manual == "" {
		return hand.DefaultAnimation
	}
	return s.Manual
}

// Reset returns the manual choice to the default clip.
func (s *Selector) Reset() {
	s.Manual = hand.DefaultAnimation
}
