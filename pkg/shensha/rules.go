package shensha

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v2"
)

// ErrInvalidRule is returned when a rule table fails validation
var ErrInvalidRule = errors.New("invalid shensha rule")

// Category classifies a star
type Category string

const (
	Auspicious   Category = "auspicious"
	Inauspicious Category = "inauspicious"
	Neutral      Category = "neutral"
)

// Kind selects how the evaluator reads a rule
type Kind string

const (
	// KindLookup maps the value at each source position to the values that
	// trigger the star on the target positions
	KindLookup Kind = "lookup"
	// KindPillarSet matches when a source pillar is one of the listed pairs
	KindPillarSet Kind = "pillar_set"
	// KindBranchOffset matches a target branch that sits a fixed number of
	// steps from the source branch
	KindBranchOffset Kind = "branch_offset"
	// KindVoid matches target branches in the void (xun kong) of the source
	// pillar's decade
	KindVoid Kind = "void"
	// KindCoOccur matches when every branch of a listed set appears among
	// the target positions
	KindCoOccur Kind = "co_occur"
)

// Rule is one compiled star definition
type Rule struct {
	Key      string
	Name     string
	English  string
	Category Category
	Kind     Kind
	Clause   string
	Sources  []Position
	Targets  []Position
	Offset   int
	Excludes []string

	table  [numSymbols][]symbol
	set    [numSymbols]bool
	groups [][]symbol
}

// RuleSet is a named, validated rule table
type RuleSet struct {
	Name        string
	Description string
	Rules       []*Rule
}

// Keys lists the rule keys in evaluation order
func (rs *RuleSet) Keys() []string {
	keys := make([]string, len(rs.Rules))
	for i, r := range rs.Rules {
		keys[i] = r.Key
	}
	return keys
}

// Rule returns the rule with the given key, or nil
func (rs *RuleSet) Rule(key string) *Rule {
	for _, r := range rs.Rules {
		if r.Key == key {
			return r
		}
	}
	return nil
}

type ruleSetYAML struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Extends     string     `yaml:"extends,omitempty"`
	Rules       []ruleYAML `yaml:"rules"`
}

type ruleYAML struct {
	Key      string              `yaml:"key"`
	Name     string              `yaml:"name"`
	English  string              `yaml:"english,omitempty"`
	Category string              `yaml:"category"`
	Kind     string              `yaml:"kind"`
	Clause   string              `yaml:"clause,omitempty"`
	Source   []string            `yaml:"source,omitempty"`
	Targets  []string            `yaml:"targets,omitempty"`
	Table    map[string][]string `yaml:"table,omitempty"`
	Pairs    []string            `yaml:"pairs,omitempty"`
	Offset   int                 `yaml:"offset,omitempty"`
	Sets     [][]string          `yaml:"sets,omitempty"`
	Excludes []string            `yaml:"excludes,omitempty"`
}

func decodeRuleSet(data []byte) (*ruleSetYAML, error) {
	var def ruleSetYAML
	if err := yaml.UnmarshalStrict(data, &def); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	if def.Name == "" {
		return nil, fmt.Errorf("%w: rule set has no name", ErrInvalidRule)
	}
	return &def, nil
}

// ParseRuleSet parses and validates a standalone YAML rule table. Tables
// that extend another set must be loaded through a Registry.
func ParseRuleSet(data []byte) (*RuleSet, error) {
	def, err := decodeRuleSet(data)
	if err != nil {
		return nil, err
	}
	if def.Extends != "" {
		return nil, fmt.Errorf("%w: rule set %q extends %q and needs a registry", ErrInvalidRule, def.Name, def.Extends)
	}
	return compileRuleSet(def, nil)
}

// compileRuleSet builds a rule set, placing the rules of base first. A rule
// whose key already exists in base replaces it in place.
func compileRuleSet(def *ruleSetYAML, base *RuleSet) (*RuleSet, error) {
	rs := &RuleSet{Name: def.Name, Description: def.Description}
	index := make(map[string]int)
	if base != nil {
		for _, r := range base.Rules {
			index[r.Key] = len(rs.Rules)
			rs.Rules = append(rs.Rules, r)
		}
	}

	own := make(map[string]bool)
	for i := range def.Rules {
		r, err := compileRule(&def.Rules[i])
		if err != nil {
			return nil, fmt.Errorf("rule set %s: %w", def.Name, err)
		}
		if own[r.Key] {
			return nil, fmt.Errorf("%w: rule set %s: duplicate key %q", ErrInvalidRule, def.Name, r.Key)
		}
		own[r.Key] = true
		if at, ok := index[r.Key]; ok {
			rs.Rules[at] = r
			continue
		}
		index[r.Key] = len(rs.Rules)
		rs.Rules = append(rs.Rules, r)
	}

	if len(rs.Rules) == 0 {
		return nil, fmt.Errorf("%w: rule set %s is empty", ErrInvalidRule, def.Name)
	}
	for _, r := range rs.Rules {
		for _, ex := range r.Excludes {
			if ex == r.Key {
				return nil, fmt.Errorf("%w: %s excludes itself", ErrInvalidRule, r.Key)
			}
			if _, ok := index[ex]; !ok {
				return nil, fmt.Errorf("%w: %s excludes unknown rule %q", ErrInvalidRule, r.Key, ex)
			}
		}
	}
	return rs, nil
}

func compileRule(y *ruleYAML) (*Rule, error) {
	if y.Key == "" {
		return nil, fmt.Errorf("%w: rule %q has no key", ErrInvalidRule, y.Name)
	}
	fail := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s: %s", ErrInvalidRule, y.Key, fmt.Sprintf(format, args...))
	}

	r := &Rule{
		Key:      y.Key,
		Name:     y.Name,
		English:  y.English,
		Category: Category(y.Category),
		Kind:     Kind(y.Kind),
		Clause:   strings.TrimSpace(y.Clause),
		Offset:   y.Offset,
		Excludes: y.Excludes,
	}
	if r.Name == "" {
		return nil, fail("missing name")
	}
	switch r.Category {
	case Auspicious, Inauspicious, Neutral:
	default:
		return nil, fail("unknown category %q", y.Category)
	}

	var err error
	if r.Sources, err = parsePositions(y.Source); err != nil {
		return nil, fail("%v", err)
	}
	if r.Targets, err = parsePositions(y.Targets); err != nil {
		return nil, fail("%v", err)
	}

	switch r.Kind {
	case KindLookup:
		err = r.compileLookup(y)
	case KindPillarSet:
		err = r.compilePillarSet(y)
	case KindBranchOffset:
		err = r.compileBranchOffset()
	case KindVoid:
		err = r.compileVoid()
	case KindCoOccur:
		err = r.compileCoOccur(y)
	default:
		return nil, fail("unknown kind %q", y.Kind)
	}
	if err != nil {
		return nil, fail("%v", err)
	}

	if r.Clause == "" {
		r.Clause = r.defaultClause()
	}
	return r, nil
}

func requireKind(positions []Position, role string, kinds ...valueKind) error {
	if len(positions) == 0 {
		return fmt.Errorf("no %s positions", role)
	}
	for _, p := range positions {
		ok := false
		for _, k := range kinds {
			if p.kind() == k {
				ok = true
			}
		}
		if !ok {
			return fmt.Errorf("%s position %s is not a %s", role, p, kinds[0])
		}
	}
	return nil
}

func (r *Rule) compileLookup(y *ruleYAML) error {
	if len(y.Table) == 0 {
		return errors.New("empty lookup table")
	}
	if len(r.Sources) == 0 {
		return errors.New("no source positions")
	}
	if err := requireKind(r.Sources, "source", r.Sources[0].kind()); err != nil {
		return err
	}
	if len(r.Targets) == 0 {
		return errors.New("no target positions")
	}
	sourceKind := r.Sources[0].kind()
	targetKinds := make(map[valueKind]bool)
	for _, t := range r.Targets {
		targetKinds[t.kind()] = true
	}

	for key, values := range y.Table {
		if len(values) == 0 {
			return fmt.Errorf("table entry %q has no values", key)
		}
		for _, k := range strings.Fields(key) {
			from, err := parseSymbol(k)
			if err != nil {
				return err
			}
			if from.kind() != sourceKind {
				return fmt.Errorf("table key %s is a %s, sources are %s positions", k, from.kind(), sourceKind)
			}
			if r.table[from] != nil {
				return fmt.Errorf("table key %s listed twice", k)
			}
			for _, v := range values {
				to, err := parseSymbol(v)
				if err != nil {
					return err
				}
				if !targetKinds[to.kind()] {
					return fmt.Errorf("table value %s is a %s, no target position holds one", v, to.kind())
				}
				r.table[from] = append(r.table[from], to)
			}
		}
	}
	return nil
}

func (r *Rule) compilePillarSet(y *ruleYAML) error {
	if err := requireKind(r.Sources, "source", pairValue); err != nil {
		return err
	}
	if len(y.Pairs) == 0 {
		return errors.New("empty pair set")
	}
	for _, p := range y.Pairs {
		s, err := parseSymbol(p)
		if err != nil {
			return err
		}
		if s.kind() != pairValue {
			return fmt.Errorf("%s is not a stem-branch pair", p)
		}
		r.set[s] = true
	}
	r.Targets = r.Sources
	return nil
}

func (r *Rule) compileBranchOffset() error {
	if err := requireKind(r.Sources, "source", branchValue); err != nil {
		return err
	}
	if err := requireKind(r.Targets, "target", branchValue); err != nil {
		return err
	}
	if r.Offset%12 == 0 {
		return fmt.Errorf("offset %d maps a branch onto itself", r.Offset)
	}
	return nil
}

func (r *Rule) compileVoid() error {
	if err := requireKind(r.Sources, "source", pairValue); err != nil {
		return err
	}
	return requireKind(r.Targets, "target", branchValue)
}

func (r *Rule) compileCoOccur(y *ruleYAML) error {
	if len(r.Targets) == 0 {
		r.Targets = []Position{YearBranch, MonthBranch, DayBranch, HourBranch}
	}
	if err := requireKind(r.Targets, "target", branchValue); err != nil {
		return err
	}
	if len(y.Sets) == 0 {
		return errors.New("no branch sets")
	}
	for _, set := range y.Sets {
		if len(set) < 2 {
			return fmt.Errorf("branch set %v needs at least two members", set)
		}
		group := make([]symbol, 0, len(set))
		for _, v := range set {
			s, err := parseSymbol(v)
			if err != nil {
				return err
			}
			if s.kind() != branchValue {
				return fmt.Errorf("%s is not a branch", v)
			}
			group = append(group, s)
		}
		r.groups = append(r.groups, group)
	}
	return nil
}

func (r *Rule) defaultClause() string {
	switch r.Kind {
	case KindLookup:
		return fmt.Sprintf("%s: %s finds its star value on %s", r.Name, joinPositions(r.Sources), joinPositions(r.Targets))
	case KindPillarSet:
		return fmt.Sprintf("%s: %s is one of the listed pillars", r.Name, joinPositions(r.Sources))
	case KindBranchOffset:
		return fmt.Sprintf("%s: a branch %+d steps from %s", r.Name, r.Offset, joinPositions(r.Sources))
	case KindVoid:
		return fmt.Sprintf("%s: a branch missing from the decade of %s", r.Name, joinPositions(r.Sources))
	default:
		return fmt.Sprintf("%s: all branches of a set appear together", r.Name)
	}
}

func joinPositions(ps []Position) string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.String()
	}
	return strings.Join(names, "/")
}
