// Package jsonutil formats values as JSON for terminal output.
package jsonutil

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/fatih/structs"
	"github.com/hokaccha/go-prettyjson"
)

func newFormatter(color bool, indent int) *prettyjson.Formatter {
	f := prettyjson.NewFormatter()
	f.DisabledColor = !color
	f.Indent = indent
	if indent == 0 {
		f.Newline = ""
	}
	return f
}

// MarshalFields formats the exported fields of a struct one per line as "Name: value", sorted by name.
// Values are single line JSON, except fmt.Stringer values such as time.Duration, which are written as strings.
func MarshalFields(v any, color bool) ([]byte, error) {
	f := newFormatter(color, 0)
	m := structs.Map(v)
	names := structs.Names(v)
	sort.Strings(names)
	var buf bytes.Buffer
	for _, name := range names {
		val := m[name]
		if s, ok := val.(fmt.Stringer); ok {
			val = s.String()
		}
		b, err := f.Marshal(val)
		if err != nil {
			return nil, err
		}
		buf.WriteString(name)
		buf.WriteString(": ")
		buf.Write(b)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// MarshalPretty formats any value as indented JSON. Colors are disabled if color is false.
func MarshalPretty(v any, color bool) ([]byte, error) {
	return newFormatter(color, 2).Marshal(v)
}
