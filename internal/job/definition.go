package job

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrInvalidJobDefinition = errors.New("invalid job definition")

// Section names inside a job definition, in the order they are compiled.
const (
	SectionSteps     = "steps"
	SectionSchedules = "schedules"
	SectionAlerts    = "alerts"
	SectionServers   = "servers"
)

var sections = []string{SectionSteps, SectionSchedules, SectionAlerts, SectionServers}

// Definition is a parsed job file: one job name and its entries per section.
// Each entry keeps its keys in the order they were written.
type Definition struct {
	Name      string
	Steps     []Params
	Schedules []Params
	Alerts    []Params
	Servers   []Params
}

func (d *Definition) section(name string) *[]Params {
	switch name {
	case SectionSteps:
		return &d.Steps
	case SectionSchedules:
		return &d.Schedules
	case SectionAlerts:
		return &d.Alerts
	case SectionServers:
		return &d.Servers
	}
	return nil
}

// LoadFile parses the job definition stored at path.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job %s: %w", path, err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Parse decodes a job definition of the form
//
//	job_name:
//	  steps: [...]
//	  schedules: [...]
//	  alerts: [...]
//	  servers: [...]
//
// The document must hold exactly one top-level key.
func Parse(data []byte) (*Definition, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJobDefinition, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidJobDefinition)
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level must be a mapping of job name to settings", ErrInvalidJobDefinition)
	}
	if n := len(root.Content) / 2; n != 1 {
		return nil, fmt.Errorf("%w: expected exactly one job name, found %d", ErrInvalidJobDefinition, n)
	}

	def := &Definition{Name: root.Content[0].Value}
	if strings.TrimSpace(def.Name) == "" {
		return nil, fmt.Errorf("%w: job name is empty", ErrInvalidJobDefinition)
	}

	settings := root.Content[1]
	switch settings.Kind {
	case yaml.MappingNode:
	case yaml.ScalarNode:
		if settings.Tag == "!!null" {
			return def, nil
		}
		fallthrough
	default:
		return nil, fmt.Errorf("%w: settings of %q must be a mapping", ErrInvalidJobDefinition, def.Name)
	}

	for i := 0; i < len(settings.Content); i += 2 {
		key, val := settings.Content[i].Value, settings.Content[i+1]
		target := def.section(key)
		if target == nil {
			return nil, fmt.Errorf("%w: unknown section %q (want one of %s)",
				ErrInvalidJobDefinition, key, strings.Join(sections, ", "))
		}
		entries, err := parseEntries(key, val)
		if err != nil {
			return nil, err
		}
		*target = entries
	}
	return def, nil
}

func parseEntries(section string, node *yaml.Node) ([]Params, error) {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: %s must be a list", ErrInvalidJobDefinition, section)
	}

	entries := make([]Params, 0, len(node.Content))
	for i, item := range node.Content {
		if item.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: %s[%d] must be a mapping", ErrInvalidJobDefinition, section, i)
		}
		var p Params
		for j := 0; j < len(item.Content); j += 2 {
			k, v := item.Content[j], item.Content[j+1]
			if v.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: %s[%d].%s must be a scalar", ErrInvalidJobDefinition, section, i, k.Value)
			}
			p.Set(k.Value, scalarValue(v))
		}
		entries = append(entries, p)
	}
	return entries, nil
}

// scalarValue types a YAML scalar. Integers are read in base 10 so a
// zero-padded time like 0700 stays 700.
func scalarValue(n *yaml.Node) Value {
	switch n.Tag {
	case "!!null":
		return Raw("NULL")
	case "!!bool":
		if b, err := strconv.ParseBool(strings.ToLower(n.Value)); err == nil && b {
			return Int(1)
		}
		return Int(0)
	case "!!int":
		plain := strings.ReplaceAll(n.Value, "_", "")
		if i, err := strconv.ParseInt(plain, 10, 64); err == nil {
			return Int(i)
		}
		if i, err := strconv.ParseInt(plain, 0, 64); err == nil {
			return Int(i)
		}
		return Raw(n.Value)
	case "!!float":
		return Raw(n.Value)
	}
	if isLiteral(n.Value) {
		return Raw(n.Value)
	}
	return String(n.Value)
}

// isLiteral reports whether s is already written as a T-SQL string literal.
func isLiteral(s string) bool {
	s = strings.TrimPrefix(s, "N")
	return len(s) >= 2 && strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'")
}
