package session

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// maxStrokes bounds brush accumulation; a runaway pointer stream drops the
// oldest strokes rather than growing without limit.
const maxStrokes = 256

// stroke is one brush gesture: the sampled pointer path and the world-space
// brush radius in effect while it was drawn.
type stroke struct {
	points []v3.Vec
	radius float64
}

// brushSession accumulates strokes between commits.
type brushSession struct {
	strokes []stroke
}

func (b *brushSession) add(points []v3.Vec, radius float64) {
	b.strokes = append(b.strokes, stroke{points: points, radius: radius})
	if len(b.strokes) > maxStrokes {
		b.strokes = b.strokes[len(b.strokes)-maxStrokes:]
	}
}

func (b *brushSession) clear() {
	b.strokes = nil
}

func (b *brushSession) count() int {
	return len(b.strokes)
}
