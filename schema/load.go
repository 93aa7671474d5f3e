package schema

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// UnmarshalYAML makes printable default to true for fields read from a
// schema file.
func (f *Field) UnmarshalYAML(node *yaml.Node) error {
	type plain Field
	p := plain{Printable: true}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*f = Field(p)
	return nil
}

// Load reads a schema document. Custom validation functions cannot be
// expressed in YAML, so only the phone and required rules are available.
func Load(r io.Reader) (*Schema, error) {
	s := &Schema{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil {
		return nil, errors.Wrap(err, "decode schema")
	}
	if err := s.Check(); err != nil {
		return nil, errors.Wrap(err, "check schema")
	}
	return s, nil
}

func LoadFile(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open schema %s", path)
	}
	defer f.Close()
	return Load(f)
}
