package session

import (
	"fmt"

	"signa/pkg/domain"
	"signa/pkg/platform/sentinel"
)

// controller holds the top-level interaction mode and the orthogonal label
// selection. Exactly one mode is active; entering a mode never clears the
// artifacts of other modes.
type controller struct {
	mode  domain.Mode
	label domain.Label
}

func newController() controller {
	return controller{mode: domain.ModeOrbit, label: domain.LabelSolid}
}

func (c *controller) setMode(m domain.Mode) {
	c.mode = m
}

func (c *controller) setLabel(l domain.Label) {
	c.label = l
}

func (c *controller) nextLabel() domain.Label {
	c.label = c.label.Next()
	return c.label
}

// require gates an intake operation on its mode. The error carries the
// expected and actual modes so the UI can explain the rejection.
func (c *controller) require(m domain.Mode) error {
	if c.mode != m {
		return fmt.Errorf("%w: requires %s mode, session is in %s", sentinel.ErrInvalidState, m, c.mode)
	}
	return nil
}
