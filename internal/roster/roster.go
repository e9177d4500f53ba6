// Package roster reads the starting residents of a world from YAML.
package roster

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/talgya/willow-creek/internal/agents"
)

//go:embed roster.schema.json
var schemaJSON []byte

const schemaURL = "roster.schema.json"

// Birthday is an optional fixed birthday.
type Birthday struct {
	Month int `yaml:"month"`
	Day   int `yaml:"day"`
}

// Resident is one roster entry as written in the file.
type Resident struct {
	Name        string             `yaml:"name"`
	Age         int                `yaml:"age"`
	Birthday    *Birthday          `yaml:"birthday"`
	Home        string             `yaml:"home"`
	Family      []string           `yaml:"family"`
	Personality map[string]float64 `yaml:"personality"`
	Needs       map[string]float64 `yaml:"needs"`
}

// File is the roster document.
type File struct {
	Residents []Resident `yaml:"residents"`
}

var schema = mustCompile()

func mustCompile() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		panic(fmt.Sprintf("roster schema: %v", err))
	}
	return c.MustCompile(schemaURL)
}

// Load reads and validates the roster at path.
func Load(path string) ([]agents.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	defs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("roster %s: %w", path, err)
	}
	return defs, nil
}

// Parse validates a YAML roster against the schema and converts it to agent
// definitions in file order.
func Parse(data []byte) ([]agents.Definition, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	// The validator works on JSON values, so round-trip through encoding/json.
	js, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("convert to json: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(js))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("convert to json: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return f.Definitions()
}

// Definitions converts the file to agent definitions. Family references must
// name residents of the same file.
func (f *File) Definitions() ([]agents.Definition, error) {
	names := make(map[string]bool, len(f.Residents))
	for _, r := range f.Residents {
		if names[r.Name] {
			return nil, fmt.Errorf("duplicate resident %q", r.Name)
		}
		names[r.Name] = true
	}

	defs := make([]agents.Definition, 0, len(f.Residents))
	for _, r := range f.Residents {
		def := agents.Definition{
			Name:     r.Name,
			Age:      r.Age,
			HomeName: r.Home,
			Family:   r.Family,
		}
		if r.Birthday != nil {
			def.BirthMonth, def.BirthDay = r.Birthday.Month, r.Birthday.Day
		}
		for _, kin := range r.Family {
			if !names[kin] {
				return nil, fmt.Errorf("resident %q: unknown family member %q", r.Name, kin)
			}
		}
		if len(r.Personality) > 0 {
			def.Personality = make(map[agents.Axis]float64, len(r.Personality))
			for _, name := range sortedKeys(r.Personality) {
				axis, ok := agents.AxisFromString(name)
				if !ok {
					return nil, fmt.Errorf("resident %q: unknown trait %q", r.Name, name)
				}
				def.Personality[axis] = r.Personality[name]
			}
		}
		if len(r.Needs) > 0 {
			def.Needs = make(map[agents.NeedKind]float64, len(r.Needs))
			for _, name := range sortedKeys(r.Needs) {
				k, ok := agents.NeedFromString(name)
				if !ok {
					return nil, fmt.Errorf("resident %q: unknown need %q", r.Name, name)
				}
				def.Needs[k] = r.Needs[name]
			}
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
