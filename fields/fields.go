// Package fields maps each schema field type to a control: how it renders
// bound to a value, and how a UI interaction on it becomes a canonical
// field update.
package fields

import (
	"embed"
	"html/template"
	"io"
	"strconv"

	"github.com/mbolis/patrol-report/model"
	"github.com/mbolis/patrol-report/schema"
)

//go:embed templates
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Action is the kind of UI interaction carried by an Event.
type Action string

const (
	// ActionChange sets the value outright (inputs, textareas, radios).
	ActionChange Action = "change"
	// ActionToggle flips one option of a checkbox group.
	ActionToggle Action = "toggle"
	// ActionRelease ends a signature stroke; Value is the encoded drawing.
	ActionRelease Action = "release"
	// ActionClear wipes a signature.
	ActionClear Action = "clear"
	// ActionBlur means focus left the control.
	ActionBlur Action = "blur"
	// ActionAvailability flips the field's "unavailable" mark.
	ActionAvailability Action = "availability"
)

// Event is a raw interaction as posted by the browser.
type Event struct {
	Name   string `json:"name"`
	Action Action `json:"action"`
	Value  string `json:"value,omitempty"`
}

// BlurPolicy tells the host when to validate after a change.
type BlurPolicy int

const (
	// BlurOnLeave waits for the control's own blur event.
	BlurOnLeave BlurPolicy = iota
	// BlurNow validates right after the change.
	BlurNow
	// BlurDeferred validates once another field is touched or the whole
	// form is validated, so a first click does not flash an error.
	BlurDeferred
)

// Update is a normalized value change.
type Update struct {
	Name  string
	Value any
	Blur  BlurPolicy
}

// Props binds a control to one field of the current form.
type Props struct {
	Field    *schema.Field
	Value    any
	Disabled bool
	Invalid  bool
}

type Control interface {
	Render(w io.Writer, p Props) error
	// Normalize turns ev into an update, given the field's current value.
	// ok is false when the event does not apply to this control.
	Normalize(f *schema.Field, ev Event, current any) (u Update, ok bool)
	// Interactive is false for display-only controls.
	Interactive() bool
}

type Registry struct {
	controls map[schema.FieldType]Control
}

// NewRegistry returns a registry with a control for every field type.
func NewRegistry() *Registry {
	return &Registry{controls: map[schema.FieldType]Control{
		schema.Text:      inputControl{inputType: "text"},
		schema.Number:    inputControl{inputType: "number"},
		schema.Date:      inputControl{inputType: "date", layout: "2006-01-02"},
		schema.Time:      inputControl{inputType: "time", layout: "15:04"},
		schema.TextArea:  textAreaControl{},
		schema.Radio:     radioControl{},
		schema.Checkbox:  checkboxControl{},
		schema.Signature: signatureControl{},
		schema.Readonly:  readonlyControl{},
	}}
}

// Register replaces the control used for t.
func (r *Registry) Register(t schema.FieldType, c Control) {
	r.controls[t] = c
}

func (r *Registry) Lookup(t schema.FieldType) (Control, bool) {
	c, ok := r.controls[t]
	return c, ok
}

// view is what control templates render.
type view struct {
	Name        string
	InputType   string
	Value       string
	Values      []string
	Options     []schema.Option
	Placeholder string
	MaxLength   int
	Rows        int
	Min         string
	Max         string
	Disabled    bool
	Invalid     bool
}

func newView(p Props) view {
	f := p.Field
	v := view{
		Name:        f.Name,
		Options:     f.Options,
		Placeholder: f.Placeholder,
		MaxLength:   f.MaxLength,
		Rows:        f.Rows,
		Disabled:    p.Disabled,
		Invalid:     p.Invalid,
	}
	if s, ok := p.Value.(string); ok {
		v.Value = s
	}
	v.Values = model.ToStrings(p.Value)
	if f.Min != nil {
		v.Min = strconv.FormatFloat(*f.Min, 'f', -1, 64)
	}
	if f.Max != nil {
		v.Max = strconv.FormatFloat(*f.Max, 'f', -1, 64)
	}
	return v
}

func (v view) Checked(option string) bool {
	if v.Value == option {
		return true
	}
	for _, s := range v.Values {
		if s == option {
			return true
		}
	}
	return false
}

// RangeHint describes the allowed number range, if any.
func (v view) RangeHint() string {
	switch {
	case v.Min != "" && v.Max != "":
		return "Range: " + v.Min + " - " + v.Max
	case v.Min != "":
		return "Min: " + v.Min
	case v.Max != "":
		return "Max: " + v.Max
	}
	return ""
}

func (v view) Length() int {
	return len([]rune(v.Value))
}
