package shensha

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
)

// Names of the built-in rule sets
const (
	Traditional = "traditional"
	Legion      = "legion"
)

// ErrUnknownRuleSet is returned for a rule set name the registry does not hold
var ErrUnknownRuleSet = errors.New("unknown rule set")

//go:embed rules/*.yaml
var builtinRules embed.FS

// Registry holds the loaded rule sets by name
type Registry struct {
	sets map[string]*RuleSet
}

// LoadRegistry loads the built-in rule tables. overrides maps a rule set
// name to a YAML file on disk that replaces the built-in table of that name
// or adds a new one.
func LoadRegistry(overrides map[string]string) (*Registry, error) {
	sources := make(map[string][]byte)

	entries, err := builtinRules.ReadDir("rules")
	if err != nil {
		return nil, fmt.Errorf("reading built-in rules: %w", err)
	}
	for _, entry := range entries {
		data, err := builtinRules.ReadFile(path.Join("rules", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading built-in rules: %w", err)
		}
		sources[strings.TrimSuffix(entry.Name(), ".yaml")] = data
	}

	for name, file := range overrides {
		if file == "" {
			continue
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading rule set %s: %w", name, err)
		}
		sources[name] = data
	}

	defs := make(map[string]*ruleSetYAML, len(sources))
	for name, data := range sources {
		def, err := decodeRuleSet(data)
		if err != nil {
			return nil, fmt.Errorf("rule set %s: %w", name, err)
		}
		if def.Name != name {
			return nil, fmt.Errorf("%w: file for rule set %s declares name %q", ErrInvalidRule, name, def.Name)
		}
		defs[name] = def
	}

	r := &Registry{sets: make(map[string]*RuleSet, len(defs))}
	for name := range defs {
		if _, err := r.compile(name, defs, nil); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// compile builds a rule set after the set it extends. chain guards against
// cycles.
func (r *Registry) compile(name string, defs map[string]*ruleSetYAML, chain []string) (*RuleSet, error) {
	if rs, ok := r.sets[name]; ok {
		return rs, nil
	}
	for _, c := range chain {
		if c == name {
			return nil, fmt.Errorf("%w: rule sets extend each other: %s", ErrInvalidRule, strings.Join(append(chain, name), " -> "))
		}
	}
	def, ok := defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRuleSet, name)
	}

	var base *RuleSet
	if def.Extends != "" {
		var err error
		base, err = r.compile(def.Extends, defs, append(chain, name))
		if err != nil {
			return nil, fmt.Errorf("rule set %s: %w", name, err)
		}
	}
	rs, err := compileRuleSet(def, base)
	if err != nil {
		return nil, err
	}
	r.sets[name] = rs
	return rs, nil
}

// Get returns a rule set by name
func (r *Registry) Get(name string) (*RuleSet, error) {
	rs, ok := r.sets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRuleSet, name)
	}
	return rs, nil
}

// Names lists the loaded rule sets in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sets))
	for name := range r.sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
