// Package detector finds hands in camera frames. Detection itself runs in
// an external MediaPipe process; this package frames the exchange and
// routes results to avatar sides.
package detector

import "github.com/ayusman/mudra/internal/hand"

// HandLandmarks is one detected hand as reported by the model.
type HandLandmarks struct {
	Points     hand.Landmarks `json:"points"`
	Handedness string         `json:"handedness"` // "Left" or "Right", image-space
	Score      float64        `json:"score"`
}

// Side returns the avatar hand this detection drives.
func (h HandLandmarks) Side() (hand.Side, bool) {
	return hand.SideForHandedness(h.Handedness)
}

// BySide keeps the best scoring complete detection per avatar side. Hands
// with an unknown label or fewer than 21 points are dropped.
func BySide(hands []HandLandmarks) [len(hand.Sides)]*HandLandmarks {
	var out [len(hand.Sides)]*HandLandmarks
	for i := range hands {
		h := &hands[i]
		side, ok := h.Side()
		if !ok || !h.Points.Complete() {
			continue
		}
		if cur := out[side]; cur == nil || h.Score > cur.Score {
			out[side] = h
		}
	}
	return out
}
