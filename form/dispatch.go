package form

import (
	"github.com/pkg/errors"

	"github.com/mbolis/patrol-report/fields"
)

// Host owns the form data and receives normalized interactions.
type Host interface {
	Value(name string) any
	// Change merges a normalized update. Deferred blurs are the host's to
	// schedule.
	Change(u fields.Update)
	Blur(name string)
	ToggleAvailability(name string)
}

// Dispatch normalizes ev through the field's control and hands the result
// to h.
func (r *Renderer) Dispatch(h Host, ev fields.Event) error {
	f := r.schema.FieldByName(ev.Name)
	if f == nil {
		return errors.Wrapf(ErrUnknownField, "%q", ev.Name)
	}
	c, ok := r.registry.Lookup(f.Type)
	if !ok {
		return errors.Wrapf(ErrUnknownField, "%q: no control for type %q", ev.Name, f.Type)
	}

	switch ev.Action {
	case fields.ActionBlur:
		h.Blur(f.Name)
		return nil

	case fields.ActionAvailability:
		if !c.Interactive() {
			return errors.Wrapf(ErrRejectedEvent, "%s on %q", ev.Action, ev.Name)
		}
		h.ToggleAvailability(f.Name)
		return nil
	}

	u, ok := c.Normalize(f, ev, h.Value(f.Name))
	if !ok {
		return errors.Wrapf(ErrRejectedEvent, "%s on %q", ev.Action, ev.Name)
	}
	h.Change(u)
	if u.Blur == fields.BlurNow {
		h.Blur(f.Name)
	}
	return nil
}
