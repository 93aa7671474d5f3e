// Package schema describes a form as ordered sections of typed fields.
//
// A Schema is data only. It is built once (see AccidentReport or Load) and
// shared read-only by the validation engine, the form renderer and the
// print renderer; nothing may mutate it after startup.
package schema

import (
	"time"

	"github.com/mbolis/patrol-report/model"
)

type FieldType string

const (
	Text      FieldType = "text"
	TextArea  FieldType = "textarea"
	Number    FieldType = "number"
	Date      FieldType = "date"
	Time      FieldType = "time"
	Radio     FieldType = "radio"
	Checkbox  FieldType = "checkbox"
	Signature FieldType = "signature"
	Readonly  FieldType = "readonly"
)

var fieldTypes = map[FieldType]bool{
	Text: true, TextArea: true, Number: true, Date: true, Time: true,
	Radio: true, Checkbox: true, Signature: true, Readonly: true,
}

func (t FieldType) Valid() bool {
	return fieldTypes[t]
}

// HasOptions reports whether the type renders a choice list.
func (t FieldType) HasOptions() bool {
	return t == Radio || t == Checkbox
}

type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Validation rule types.
const (
	RulePhone    = "phone"
	RuleEmail    = "email"
	RuleRequired = "required"
	RuleCustom   = "custom"
)

// CustomFunc returns an error message for value, or "" when it is valid.
type CustomFunc func(value any, data model.FormData) string

type Validation struct {
	Type    string     `json:"type" yaml:"type"`
	Message string     `json:"message,omitempty" yaml:"message"`
	Custom  CustomFunc `json:"-" yaml:"-"`
}

type Field struct {
	Name              string      `json:"name" yaml:"name"`
	Type              FieldType   `json:"type" yaml:"type"`
	Label             string      `json:"label" yaml:"label"`
	RequiredByPatient bool        `json:"requiredByPatient" yaml:"requiredByPatient"`
	Options           []Option    `json:"options,omitempty" yaml:"options"`
	Validation        *Validation `json:"validation,omitempty" yaml:"validation"`
	MaxLength         int         `json:"maxLength,omitempty" yaml:"maxLength"`
	Min               *float64    `json:"min,omitempty" yaml:"min"`
	Max               *float64    `json:"max,omitempty" yaml:"max"`
	Rows              int         `json:"rows,omitempty" yaml:"rows"`
	Placeholder       string      `json:"placeholder,omitempty" yaml:"placeholder"`
	FullWidth         bool        `json:"fullWidth,omitempty" yaml:"fullWidth"`
	Printable         bool        `json:"printable" yaml:"printable"`

	// Default pre-fills the field when a report is created.
	Default string `json:"default,omitempty" yaml:"default"`
	// DefaultToday pre-fills a date field with the creation date.
	DefaultToday bool `json:"defaultToday,omitempty" yaml:"defaultToday"`
	// StampedBy names the field whose capture stamps this readonly field
	// with the current date.
	StampedBy string `json:"stampedBy,omitempty" yaml:"stampedBy"`
}

// OptionLabel maps an option value to its label, falling back to the value.
func (f *Field) OptionLabel(value string) string {
	for _, o := range f.Options {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}

// EmptyValue is the value an untouched control starts from.
func (f *Field) EmptyValue() any {
	if f.Type == Checkbox {
		return []string{}
	}
	return ""
}

type Section struct {
	ID         string  `json:"id" yaml:"id"`
	Title      string  `json:"title" yaml:"title"`
	PrintTitle string  `json:"printTitle" yaml:"printTitle"`
	Fields     []Field `json:"fields" yaml:"fields"`
}

type Schema struct {
	Title    string    `json:"title" yaml:"title"`
	Sections []Section `json:"sections" yaml:"sections"`
}

// Fields lists every field in schema order.
func (s *Schema) Fields() []*Field {
	var out []*Field
	for i := range s.Sections {
		for j := range s.Sections[i].Fields {
			out = append(out, &s.Sections[i].Fields[j])
		}
	}
	return out
}

// Names lists every field name in schema order.
func (s *Schema) Names() []string {
	var out []string
	for _, f := range s.Fields() {
		out = append(out, f.Name)
	}
	return out
}

// RequiredByPatient lists the names of fields counted in the patient tier.
func (s *Schema) RequiredByPatient() []string {
	var out []string
	for _, f := range s.Fields() {
		if f.RequiredByPatient {
			out = append(out, f.Name)
		}
	}
	return out
}

// FieldByName returns nil for names the schema does not declare, which is
// the normal case for stale keys in stored reports.
func (s *Schema) FieldByName(name string) *Field {
	for i := range s.Sections {
		for j := range s.Sections[i].Fields {
			if s.Sections[i].Fields[j].Name == name {
				return &s.Sections[i].Fields[j]
			}
		}
	}
	return nil
}

// InitialData builds the form data of a freshly created report.
func (s *Schema) InitialData(now time.Time) model.FormData {
	data := model.FormData{}
	for _, f := range s.Fields() {
		switch {
		case f.Type == Checkbox:
			data[f.Name] = []string{}
		case f.DefaultToday:
			data[f.Name] = now.Format("2006-01-02")
		case f.Default != "":
			data[f.Name] = f.Default
		}
	}
	return data
}
