// Package validation computes field errors and completion metrics from a
// schema, the current form data and the set of fields marked unavailable.
//
// Everything here is derived state: callers recompute it on demand instead
// of storing it next to the data it describes.
package validation

import (
	"math"

	"github.com/mbolis/patrol-report/check"
	"github.com/mbolis/patrol-report/model"
	"github.com/mbolis/patrol-report/schema"
)

const (
	defaultPhoneMessage = "Please enter a valid phone number"
	defaultEmailMessage = "Please enter a valid email address"
)

// Errors maps a field name to its message.
type Errors map[string]string

type Engine struct {
	schema *schema.Schema
}

func New(s *schema.Schema) *Engine {
	return &Engine{schema: s}
}

func (e *Engine) Schema() *schema.Schema {
	return e.schema
}

// ValidateField returns the error message for value, or "" when it is valid.
// An empty value is never an error here: filling a field is tracked as
// completion, not enforced. Unknown names are ignored.
func (e *Engine) ValidateField(data model.FormData, name string, value any) string {
	f := e.schema.FieldByName(name)
	if f == nil || f.Validation == nil {
		return ""
	}

	s, _ := value.(string)
	switch f.Validation.Type {
	case schema.RulePhone:
		if s != "" && !check.Phone(s) {
			return message(f.Validation, defaultPhoneMessage)
		}
	case schema.RuleEmail:
		if s != "" && !check.Email(s) {
			return message(f.Validation, defaultEmailMessage)
		}
	}

	if f.Validation.Custom != nil {
		if msg := f.Validation.Custom(value, data); msg != "" {
			return msg
		}
	}

	return ""
}

func message(v *schema.Validation, fallback string) string {
	if v.Message != "" {
		return v.Message
	}
	return fallback
}

// Validate runs ValidateField over every schema field and returns a fresh
// error map; valid reports whether it is empty.
func (e *Engine) Validate(data model.FormData) (errs Errors, valid bool) {
	errs = Errors{}
	for _, f := range e.schema.Fields() {
		if msg := e.ValidateField(data, f.Name, data[f.Name]); msg != "" {
			errs[f.Name] = msg
		}
	}
	return errs, len(errs) == 0
}

// ValidateOnBlur revalidates a single field and updates only its entry.
func (e *Engine) ValidateOnBlur(errs Errors, data model.FormData, name string) {
	if msg := e.ValidateField(data, name, data[name]); msg != "" {
		errs[name] = msg
	} else {
		delete(errs, name)
	}
}

type Metrics struct {
	OverallPercentage           int `json:"overallPercentage"`
	RequiredPercentage          int `json:"requiredPercentage"`
	NonRequiredPercentage       int `json:"nonRequiredPercentage"`
	RequiredThresholdPercentage int `json:"requiredThresholdPercentage"`
	CompletedRequired           int `json:"completedRequired"`
	TotalRequired               int `json:"totalRequired"`
	CompletedNonRequired        int `json:"completedNonRequired"`
	TotalNonRequired            int `json:"totalNonRequired"`
	TotalCompleted              int `json:"totalCompleted"`
	TotalFields                 int `json:"totalFields"`
}

func completed(data model.FormData, unavailable model.FieldSet, name string) bool {
	return unavailable.Has(name) || !model.IsEmpty(data[name])
}

// percent is n/total as a rounded percentage, 0 for an empty schema.
func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(n) / float64(total) * 100))
}

// CalculateCompletion splits the fields into the requiredByPatient tier and
// the rest. Each tier percentage is taken over all fields, so the two
// segments stack into the overall bar (rounding may drift by one).
func (e *Engine) CalculateCompletion(data model.FormData, unavailable model.FieldSet) Metrics {
	var m Metrics
	for _, f := range e.schema.Fields() {
		m.TotalFields++
		done := completed(data, unavailable, f.Name)
		if f.RequiredByPatient {
			m.TotalRequired++
			if done {
				m.CompletedRequired++
			}
		} else {
			m.TotalNonRequired++
			if done {
				m.CompletedNonRequired++
			}
		}
	}

	m.TotalCompleted = m.CompletedRequired + m.CompletedNonRequired
	m.OverallPercentage = percent(m.TotalCompleted, m.TotalFields)
	m.RequiredPercentage = percent(m.CompletedRequired, m.TotalFields)
	m.NonRequiredPercentage = percent(m.CompletedNonRequired, m.TotalFields)
	m.RequiredThresholdPercentage = percent(m.TotalRequired, m.TotalFields)
	return m
}

type FieldRef struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// IncompleteFields lists the requiredByPatient fields still empty and not
// marked unavailable, in schema order.
func (e *Engine) IncompleteFields(data model.FormData, unavailable model.FieldSet) []FieldRef {
	out := []FieldRef{}
	for _, f := range e.schema.Fields() {
		if f.RequiredByPatient && !completed(data, unavailable, f.Name) {
			label := f.Label
			if label == "" {
				label = f.Name
			}
			out = append(out, FieldRef{Name: f.Name, Label: label})
		}
	}
	return out
}
