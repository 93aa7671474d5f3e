package schema

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Check reports every structural problem of the schema at once. Name
// collisions in particular must be caught here: lookups by name would
// silently resolve to the first declaration.
func (s *Schema) Check() error {
	var result *multierror.Error

	sections := map[string]bool{}
	for _, sec := range s.Sections {
		if sec.ID == "" {
			result = multierror.Append(result, fmt.Errorf("section %q: missing id", sec.Title))
		} else if sections[sec.ID] {
			result = multierror.Append(result, fmt.Errorf("section %q: duplicate id", sec.ID))
		}
		sections[sec.ID] = true
	}

	names := map[string]bool{}
	for _, f := range s.Fields() {
		if f.Name == "" {
			result = multierror.Append(result, fmt.Errorf("field %q: missing name", f.Label))
			continue
		}
		if names[f.Name] {
			result = multierror.Append(result, fmt.Errorf("field %q: duplicate name", f.Name))
		}
		names[f.Name] = true

		if !f.Type.Valid() {
			result = multierror.Append(result, fmt.Errorf("field %q: unknown type %q", f.Name, f.Type))
		}
		if f.Type.HasOptions() && len(f.Options) == 0 {
			result = multierror.Append(result, fmt.Errorf("field %q: %s field without options", f.Name, f.Type))
		}
		if f.Validation != nil && f.Validation.Type == RuleCustom && f.Validation.Custom == nil {
			result = multierror.Append(result, fmt.Errorf("field %q: custom validation without a function", f.Name))
		}
	}

	for _, f := range s.Fields() {
		if f.StampedBy == "" {
			continue
		}
		if f.Type != Readonly {
			result = multierror.Append(result, fmt.Errorf("field %q: only readonly fields can be stamped", f.Name))
		}
		if !names[f.StampedBy] {
			result = multierror.Append(result, fmt.Errorf("field %q: stamped by unknown field %q", f.Name, f.StampedBy))
		}
	}

	return result.ErrorOrNil()
}
