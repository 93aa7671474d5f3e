// Package printer renders a report as a static document for paper: the same
// schema walk as the form, no controls.
package printer

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/mbolis/patrol-report/fields"
	"github.com/mbolis/patrol-report/model"
	"github.com/mbolis/patrol-report/schema"
)

//go:embed templates
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Placeholder stands in for empty and unavailable values.
const Placeholder = "—"

const documentTitle = "Ski Patrol Accident Report"

type Field struct {
	Name        string
	Label       string
	Type        schema.FieldType
	Value       string
	Lines       []string
	Image       template.URL
	Empty       bool
	Unavailable bool
	FullWidth   bool
}

type Section struct {
	ID     string
	Title  string
	Fields []Field
}

type Document struct {
	Title       string
	ReportID    string
	Sections    []Section
	GeneratedAt time.Time
}

// Build lays out every printable field of s with its value from data.
func Build(s *schema.Schema, data model.FormData, unavailable model.FieldSet, reportID string, now time.Time) *Document {
	doc := &Document{
		Title:       documentTitle,
		ReportID:    reportID,
		GeneratedAt: now,
	}

	for i := range s.Sections {
		sec := &s.Sections[i]
		title := sec.PrintTitle
		if title == "" {
			title = sec.Title
		}
		out := Section{ID: sec.ID, Title: title}

		for j := range sec.Fields {
			f := &sec.Fields[j]
			if !f.Printable {
				continue
			}
			out.Fields = append(out.Fields, printField(f, data[f.Name], unavailable.Has(f.Name)))
		}
		if len(out.Fields) > 0 {
			doc.Sections = append(doc.Sections, out)
		}
	}

	return doc
}

func printField(f *schema.Field, value any, unavailable bool) Field {
	pf := Field{
		Name:        f.Name,
		Label:       f.Label,
		Type:        f.Type,
		Unavailable: unavailable,
		FullWidth:   f.FullWidth,
	}
	if unavailable || model.IsEmpty(value) {
		pf.Empty = true
		pf.Value = Placeholder
		return pf
	}

	switch f.Type {
	case schema.Checkbox:
		selected := model.ToStrings(value)
		labels := make([]string, len(selected))
		for i, v := range selected {
			labels[i] = f.OptionLabel(v)
		}
		pf.Value = strings.Join(labels, ", ")

	case schema.Signature:
		pf.Image = fields.SignatureImage(value)
		if pf.Image == "" {
			pf.Empty = true
			pf.Value = Placeholder
		}

	case schema.TextArea:
		s, _ := value.(string)
		pf.Value = s
		pf.Lines = strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")

	default:
		if s, ok := value.(string); ok {
			pf.Value = s
		} else {
			pf.Value = fmt.Sprint(value)
		}
	}
	return pf
}

func Render(w io.Writer, doc *Document) error {
	return templates.ExecuteTemplate(w, "document", doc)
}
