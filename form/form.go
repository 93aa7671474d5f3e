// Package form walks a schema against the current form state and produces
// the renderable tree of sections and bound field controls, and routes UI
// events back to the session that owns the data.
package form

import (
	"bytes"
	"embed"
	"html/template"
	"io"

	"github.com/pkg/errors"

	"github.com/mbolis/patrol-report/fields"
	"github.com/mbolis/patrol-report/model"
	"github.com/mbolis/patrol-report/schema"
	"github.com/mbolis/patrol-report/validation"
)

//go:embed templates
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

var (
	ErrUnknownField  = errors.New("unknown field")
	ErrRejectedEvent = errors.New("event rejected")
)

// State is what the renderer needs from a form session. Errors holds only
// the errors that should be visible.
type State struct {
	ReportID    string
	Data        model.FormData
	Errors      validation.Errors
	Unavailable model.FieldSet
	Status      model.Status
}

type Field struct {
	Name              string
	Label             string
	Type              schema.FieldType
	RequiredByPatient bool
	FullWidth         bool
	// Toggleable fields flip availability when their label is clicked.
	Toggleable  bool
	Error       string
	Unavailable bool
	Highlight   bool
	Control     template.HTML
}

type Section struct {
	ID     string
	Title  string
	Fields []Field
}

type Tree struct {
	ReportID string
	Title    string
	Sections []Section
}

type Renderer struct {
	schema   *schema.Schema
	registry *fields.Registry
}

func New(s *schema.Schema, r *fields.Registry) *Renderer {
	return &Renderer{schema: s, registry: r}
}

func (r *Renderer) Schema() *schema.Schema {
	return r.schema
}

// Build renders every control of the schema bound to st.
func (r *Renderer) Build(st State) (*Tree, error) {
	tree := &Tree{
		ReportID: st.ReportID,
		Title:    r.schema.Title,
		Sections: make([]Section, 0, len(r.schema.Sections)),
	}
	completed := st.Status == model.StatusCompleted

	for i := range r.schema.Sections {
		sec := &r.schema.Sections[i]
		out := Section{ID: sec.ID, Title: sec.Title, Fields: make([]Field, 0, len(sec.Fields))}

		for j := range sec.Fields {
			f := &sec.Fields[j]
			c, ok := r.registry.Lookup(f.Type)
			if !ok {
				return nil, errors.Errorf("field %q: no control for type %q", f.Name, f.Type)
			}

			value, set := st.Data[f.Name]
			if !set || value == nil {
				value = f.EmptyValue()
			}
			unavailable := st.Unavailable.Has(f.Name)
			msg := st.Errors[f.Name]

			var buf bytes.Buffer
			err := c.Render(&buf, fields.Props{
				Field:    f,
				Value:    value,
				Disabled: unavailable || !c.Interactive(),
				Invalid:  msg != "",
			})
			if err != nil {
				return nil, errors.Wrapf(err, "field %q", f.Name)
			}

			out.Fields = append(out.Fields, Field{
				Name:              f.Name,
				Label:             f.Label,
				Type:              f.Type,
				RequiredByPatient: f.RequiredByPatient,
				FullWidth:         f.FullWidth,
				Toggleable:        c.Interactive(),
				Error:             msg,
				Unavailable:       unavailable,
				Highlight:         highlight(f, value, unavailable, completed),
				Control:           template.HTML(buf.String()),
			})
		}
		tree.Sections = append(tree.Sections, out)
	}

	return tree, nil
}

// highlight flags a patient field left blank on a report marked completed.
func highlight(f *schema.Field, value any, unavailable, completed bool) bool {
	return completed && f.RequiredByPatient && model.IsEmpty(value) && !unavailable
}

// Highlighted lists the fields Build would highlight, in schema order.
func (r *Renderer) Highlighted(st State) []string {
	out := []string{}
	completed := st.Status == model.StatusCompleted
	for _, f := range r.schema.Fields() {
		if highlight(f, st.Data[f.Name], st.Unavailable.Has(f.Name), completed) {
			out = append(out, f.Name)
		}
	}
	return out
}

func (r *Renderer) Render(w io.Writer, st State) error {
	tree, err := r.Build(st)
	if err != nil {
		return err
	}
	return RenderTree(w, tree)
}

func RenderTree(w io.Writer, tree *Tree) error {
	return templates.ExecuteTemplate(w, "form", tree)
}

// RenderFields renders each field of tree on its own, keyed by name, so a
// client can swap single fields in place.
func RenderFields(tree *Tree) (map[string]string, error) {
	out := map[string]string{}
	var buf bytes.Buffer
	for _, sec := range tree.Sections {
		for _, f := range sec.Fields {
			buf.Reset()
			if err := templates.ExecuteTemplate(&buf, "field", f); err != nil {
				return nil, errors.Wrapf(err, "field %q", f.Name)
			}
			out[f.Name] = buf.String()
		}
	}
	return out, nil
}
