package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Table is an hour-of-day table. In YAML it is either a whitespace-delimited
// string ("0 0 50 120 ...") or a sequence of numbers.
type Table []float64

func (t *Table) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		fields := strings.Fields(node.Value)
		out := make(Table, 0, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return fmt.Errorf("line %d: entry %d: %q is not a number", node.Line, i, f)
			}
			out = append(out, v)
		}
		*t = out
	case yaml.SequenceNode:
		vals := make([]float64, 0, len(node.Content))
		if err := node.Decode(&vals); err != nil {
			return err
		}
		*t = vals
	default:
		return fmt.Errorf("line %d: table must be a string or a list of numbers", node.Line)
	}
	return nil
}

// String formats the table the way the string form is written.
func (t Table) String() string {
	parts := make([]string, len(t))
	for i, v := range t {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}
