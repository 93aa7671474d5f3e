package fields

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/patrol-report/schema"
)

func field(t *testing.T, name string) *schema.Field {
	t.Helper()
	f := schema.AccidentReport.FieldByName(name)
	require.NotNil(t, f, name)
	return f
}

func render(t *testing.T, r *Registry, p Props) string {
	t.Helper()
	c, ok := r.Lookup(p.Field.Type)
	require.True(t, ok)
	var buf bytes.Buffer
	require.NoError(t, c.Render(&buf, p))
	return buf.String()
}

func TestRegistry_EveryTypeHasAControl(t *testing.T) {
	r := NewRegistry()
	for _, f := range schema.AccidentReport.Fields() {
		_, ok := r.Lookup(f.Type)
		assert.True(t, ok, "no control for %s", f.Type)
	}
}

func TestToggle_KeepsSelectionOrder(t *testing.T) {
	sel := Toggle([]string{"a", "b"}, "c")
	assert.Equal(t, []string{"a", "b", "c"}, sel)

	sel = Toggle(sel, "a")
	assert.Equal(t, []string{"b", "c"}, sel)

	orig := []string{"x"}
	_ = Toggle(orig, "x")
	assert.Equal(t, []string{"x"}, orig)
}

func TestCheckbox_Normalize(t *testing.T) {
	r := NewRegistry()
	f := field(t, "injuryTypes")
	c, _ := r.Lookup(f.Type)

	u, ok := c.Normalize(f, Event{Name: f.Name, Action: ActionToggle, Value: "head"}, []any{"fracture"})
	require.True(t, ok)
	assert.Equal(t, []string{"fracture", "head"}, u.Value)
	assert.Equal(t, BlurNow, u.Blur)

	_, ok = c.Normalize(f, Event{Name: f.Name, Action: ActionToggle, Value: "spleen"}, nil)
	assert.False(t, ok, "unknown option")
}

func TestRadio_Normalize(t *testing.T) {
	r := NewRegistry()
	f := field(t, "patientGender")
	c, _ := r.Lookup(f.Type)

	u, ok := c.Normalize(f, Event{Name: f.Name, Action: ActionChange, Value: "female"}, nil)
	require.True(t, ok)
	assert.Equal(t, "female", u.Value)
	assert.Equal(t, BlurDeferred, u.Blur)

	_, ok = c.Normalize(f, Event{Name: f.Name, Action: ActionChange, Value: "robot"}, nil)
	assert.False(t, ok)
}

func TestInput_Normalize(t *testing.T) {
	r := NewRegistry()

	name := field(t, "patientName")
	c, _ := r.Lookup(name.Type)
	long := make([]byte, 150)
	for i := range long {
		long[i] = 'a'
	}
	u, ok := c.Normalize(name, Event{Action: ActionChange, Value: string(long)}, nil)
	require.True(t, ok)
	assert.Len(t, u.Value, 100, "truncated to maxLength")
	assert.Equal(t, BlurOnLeave, u.Blur)

	_, ok = c.Normalize(name, Event{Action: ActionToggle, Value: "x"}, nil)
	assert.False(t, ok)

	date := field(t, "patientBirthdate")
	c, _ = r.Lookup(date.Type)
	_, ok = c.Normalize(date, Event{Action: ActionChange, Value: "2001-02-03"}, nil)
	assert.True(t, ok)
	_, ok = c.Normalize(date, Event{Action: ActionChange, Value: ""}, nil)
	assert.True(t, ok, "clearing a date")
	_, ok = c.Normalize(date, Event{Action: ActionChange, Value: "03/02/2001"}, nil)
	assert.False(t, ok)

	tm := field(t, "timeOfIncident")
	c, _ = r.Lookup(tm.Type)
	_, ok = c.Normalize(tm, Event{Action: ActionChange, Value: "14:30"}, nil)
	assert.True(t, ok)
	_, ok = c.Normalize(tm, Event{Action: ActionChange, Value: "2pm"}, nil)
	assert.False(t, ok)
}

func TestSignature_Normalize(t *testing.T) {
	r := NewRegistry()
	f := field(t, "signature")
	c, _ := r.Lookup(f.Type)

	img := "data:image/png;base64,iVBORw0KGgo="
	u, ok := c.Normalize(f, Event{Action: ActionRelease, Value: img}, nil)
	require.True(t, ok)
	assert.Equal(t, img, u.Value)
	assert.Equal(t, BlurNow, u.Blur)

	u, ok = c.Normalize(f, Event{Action: ActionClear}, img)
	require.True(t, ok)
	assert.Equal(t, "", u.Value)

	_, ok = c.Normalize(f, Event{Action: ActionRelease, Value: "javascript:alert(1)"}, nil)
	assert.False(t, ok)
}

func TestReadonly_NeverEmits(t *testing.T) {
	r := NewRegistry()
	f := field(t, "reportId")
	c, _ := r.Lookup(f.Type)

	assert.False(t, c.Interactive())
	for _, a := range []Action{ActionChange, ActionToggle, ActionRelease, ActionClear} {
		_, ok := c.Normalize(f, Event{Action: a, Value: "x"}, "RPT-1")
		assert.False(t, ok, a)
	}
}

func TestRender_BindsValue(t *testing.T) {
	r := NewRegistry()

	out := render(t, r, Props{Field: field(t, "patientName"), Value: "Jane <Doe>"})
	assert.Contains(t, out, `value="Jane &lt;Doe&gt;"`)
	assert.Contains(t, out, `maxlength="100"`)
	assert.NotContains(t, out, "disabled")

	out = render(t, r, Props{Field: field(t, "patientAge"), Value: "", Disabled: true})
	assert.Contains(t, out, `min="0"`)
	assert.Contains(t, out, `max="120"`)
	assert.Contains(t, out, "Range: 0 - 120")
	assert.Contains(t, out, " disabled")

	out = render(t, r, Props{Field: field(t, "injuryTypes"), Value: []string{"head"}})
	assert.Contains(t, out, `value="head" data-field="injuryTypes" data-action="toggle" checked`)
	assert.Contains(t, out, "1 selected")

	out = render(t, r, Props{Field: field(t, "patientDescription"), Value: "abc"})
	assert.Contains(t, out, ">abc</textarea>")
	assert.Contains(t, out, "3/500")

	out = render(t, r, Props{Field: field(t, "signatureDate"), Value: ""})
	assert.Contains(t, out, "—")
}

func TestRender_Signature(t *testing.T) {
	r := NewRegistry()
	f := field(t, "patientSignature")

	out := render(t, r, Props{Field: f, Value: "data:image/png;base64,AAAA"})
	assert.Contains(t, out, `src="data:image/png;base64,AAAA"`)
	assert.Contains(t, out, "Signature captured")

	out = render(t, r, Props{Field: f, Value: "not an image"})
	assert.NotContains(t, out, "<img")
	assert.Contains(t, out, "Sign above")
}
