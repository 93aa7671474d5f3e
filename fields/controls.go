package fields

import (
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/mbolis/patrol-report/model"
	"github.com/mbolis/patrol-report/schema"
)

func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func validOption(f *schema.Field, value string) bool {
	for _, o := range f.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

type inputControl struct {
	inputType string
	// layout, when set, is the only accepted value format.
	layout string
}

func (c inputControl) Render(w io.Writer, p Props) error {
	v := newView(p)
	v.InputType = c.inputType
	return templates.ExecuteTemplate(w, "input", v)
}

func (c inputControl) Normalize(f *schema.Field, ev Event, _ any) (Update, bool) {
	if ev.Action != ActionChange {
		return Update{}, false
	}
	value := truncate(ev.Value, f.MaxLength)
	if c.layout != "" && value != "" {
		if _, err := time.Parse(c.layout, value); err != nil {
			return Update{}, false
		}
	}
	return Update{Name: f.Name, Value: value, Blur: BlurOnLeave}, true
}

func (inputControl) Interactive() bool { return true }

type textAreaControl struct{}

func (textAreaControl) Render(w io.Writer, p Props) error {
	v := newView(p)
	if v.Rows == 0 {
		v.Rows = 3
	}
	return templates.ExecuteTemplate(w, "textarea", v)
}

func (textAreaControl) Normalize(f *schema.Field, ev Event, _ any) (Update, bool) {
	if ev.Action != ActionChange {
		return Update{}, false
	}
	return Update{Name: f.Name, Value: truncate(ev.Value, f.MaxLength), Blur: BlurOnLeave}, true
}

func (textAreaControl) Interactive() bool { return true }

type radioControl struct{}

func (radioControl) Render(w io.Writer, p Props) error {
	return templates.ExecuteTemplate(w, "radio", newView(p))
}

func (radioControl) Normalize(f *schema.Field, ev Event, _ any) (Update, bool) {
	if ev.Action != ActionChange {
		return Update{}, false
	}
	if ev.Value != "" && !validOption(f, ev.Value) {
		return Update{}, false
	}
	return Update{Name: f.Name, Value: ev.Value, Blur: BlurDeferred}, true
}

func (radioControl) Interactive() bool { return true }

type checkboxControl struct{}

func (checkboxControl) Render(w io.Writer, p Props) error {
	return templates.ExecuteTemplate(w, "checkbox", newView(p))
}

// Normalize keeps earlier selections in the order they were made and
// appends new ones at the end.
func (checkboxControl) Normalize(f *schema.Field, ev Event, current any) (Update, bool) {
	if ev.Action != ActionToggle || !validOption(f, ev.Value) {
		return Update{}, false
	}
	return Update{Name: f.Name, Value: Toggle(model.ToStrings(current), ev.Value), Blur: BlurNow}, true
}

func (checkboxControl) Interactive() bool { return true }

// Toggle removes option from selected if present, else appends it.
// selected is never modified.
func Toggle(selected []string, option string) []string {
	out := make([]string, 0, len(selected)+1)
	found := false
	for _, s := range selected {
		if s == option {
			found = true
			continue
		}
		out = append(out, s)
	}
	if !found {
		out = append(out, option)
	}
	return out
}

type signatureControl struct{}

const imagePrefix = "data:image/"

// SignatureImage returns an encoded signature as a URL safe to use as an
// image source, or "" when value is not an encoded image.
func SignatureImage(value any) template.URL {
	s, _ := value.(string)
	if !strings.HasPrefix(s, imagePrefix) {
		return ""
	}
	return template.URL(s)
}

type signatureView struct {
	view
	Image template.URL
}

// Render draws the stored image back onto the pad before new strokes are
// taken.
func (signatureControl) Render(w io.Writer, p Props) error {
	return templates.ExecuteTemplate(w, "signature", signatureView{
		view:  newView(p),
		Image: SignatureImage(p.Value),
	})
}

func (signatureControl) Normalize(f *schema.Field, ev Event, _ any) (Update, bool) {
	switch ev.Action {
	case ActionRelease:
		if !strings.HasPrefix(ev.Value, imagePrefix) {
			return Update{}, false
		}
		return Update{Name: f.Name, Value: ev.Value, Blur: BlurNow}, true
	case ActionClear:
		return Update{Name: f.Name, Value: "", Blur: BlurOnLeave}, true
	}
	return Update{}, false
}

func (signatureControl) Interactive() bool { return true }

type readonlyControl struct{}

func (readonlyControl) Render(w io.Writer, p Props) error {
	return templates.ExecuteTemplate(w, "readonly", newView(p))
}

func (readonlyControl) Normalize(*schema.Field, Event, any) (Update, bool) {
	return Update{}, false
}

func (readonlyControl) Interactive() bool { return false }
