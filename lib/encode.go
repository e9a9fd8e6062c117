package lib

import (
	"encoding/json"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/bindable/lang"
)

// toJSON encodes a value as compact JSON. An optional indent string
// pretty-prints it.
func toJSON(args ...any) (any, error) {
	if len(args) == 0 {
		return lang.Undefined, nil
	}

	var (
		b   []byte
		err error
	)

	if indent, ok := text(args, 1); ok {
		b, err = json.MarshalIndent(args[0], "", indent)
	} else {
		b, err = json.Marshal(args[0])
	}

	if err != nil {
		return nil, lang.ErrOperand.Wrap(err)
	}

	return string(b), nil
}

// toYAML encodes a value as a YAML document without the trailing newline.
func toYAML(args ...any) (any, error) {
	if len(args) == 0 {
		return lang.Undefined, nil
	}

	b, err := yaml.Marshal(args[0])
	if err != nil {
		return nil, lang.ErrOperand.Wrap(err)
	}

	return strings.TrimSuffix(string(b), "\n"), nil
}
