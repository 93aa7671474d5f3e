package model

import (
	"strings"
)

// FormData maps a schema field name to its value. Values are strings,
// except checkbox groups which hold a list of strings. After a JSON round
// trip a list arrives as []any, so read values through String and Strings.
type FormData map[string]any

func (d FormData) String(name string) string {
	s, _ := d[name].(string)
	return s
}

func (d FormData) Strings(name string) []string {
	return ToStrings(d[name])
}

func (d FormData) Has(name, value string) bool {
	for _, v := range d.Strings(name) {
		if v == value {
			return true
		}
	}
	return false
}

// Clone returns a shallow copy with list values copied.
func (d FormData) Clone() FormData {
	out := make(FormData, len(d))
	for k, v := range d {
		if list, ok := v.([]string); ok {
			v = append([]string{}, list...)
		} else if list, ok := v.([]any); ok {
			v = ToStrings(list)
		}
		out[k] = v
	}
	return out
}

// ToStrings converts a list value to []string. Non-string items and
// non-list values yield nil.
func ToStrings(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// IsEmpty reports whether a value counts as unfilled: nil, a blank string,
// or an empty list.
func IsEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []string:
		return len(val) == 0
	case []any:
		return len(val) == 0
	default:
		return false
	}
}

// FieldSet is an insertion-ordered set of field names, persisted as a JSON
// array.
type FieldSet []string

func (s FieldSet) Has(name string) bool {
	for _, n := range s {
		if n == name {
			return true
		}
	}
	return false
}

func (s FieldSet) Add(name string) FieldSet {
	if s.Has(name) {
		return s
	}
	return append(s, name)
}

func (s FieldSet) Remove(name string) FieldSet {
	out := s[:0:0]
	for _, n := range s {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}
