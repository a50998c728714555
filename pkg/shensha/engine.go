// Package shensha matches auspicious and inauspicious stars against a chart.
// Stars are declared as data in YAML rule tables and read by one generic
// evaluator, so rule sets can be swapped without touching code.
package shensha

import (
	"errors"

	"go.uber.org/zap"

	"github.com/chrissnell/bazi/pkg/sexagenary"
)

// Evidence records the positions and values that satisfied a rule
type Evidence struct {
	Source      Position `json:"source"`
	SourceValue string   `json:"sourceValue"`
	Target      Position `json:"target"`
	TargetValue string   `json:"targetValue"`
	Clause      string   `json:"clause"`
}

// Match is a star found on a chart. Evidence is never empty.
type Match struct {
	Key      string              `json:"key"`
	Name     string              `json:"name"`
	English  string              `json:"english,omitempty"`
	Category Category            `json:"category"`
	Pillars  []sexagenary.Pillar `json:"pillars"`
	Evidence []Evidence          `json:"evidence"`
}

// Engine evaluates rule sets
type Engine struct {
	logger *zap.SugaredLogger
}

// NewEngine creates an engine. A nil logger disables logging.
func NewEngine(logger *zap.SugaredLogger) *Engine {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Engine{logger: logger}
}

// Calculate evaluates every rule of rs against chart and returns the
// matches in rule order. A rule listed in the excludes clause of another
// matching rule is dropped.
func (e *Engine) Calculate(chart Chart, rs *RuleSet) ([]Match, error) {
	if rs == nil {
		return nil, errors.New("no rule set")
	}

	var matches []Match
	excluded := make(map[string]string)
	for _, r := range rs.Rules {
		evidence := r.evaluate(chart)
		if len(evidence) == 0 {
			continue
		}
		matches = append(matches, newMatch(r, evidence))
		for _, ex := range r.Excludes {
			excluded[ex] = r.Key
		}
	}

	if len(excluded) == 0 {
		return matches, nil
	}
	kept := matches[:0]
	for _, m := range matches {
		if by, ok := excluded[m.Key]; ok {
			e.logger.Debugw("shensha match excluded", "rule", m.Key, "by", by, "ruleset", rs.Name)
			continue
		}
		kept = append(kept, m)
	}
	return kept, nil
}

func newMatch(r *Rule, evidence []Evidence) Match {
	var attached [4]bool
	for _, ev := range evidence {
		attached[ev.Target.Pillar()] = true
	}
	m := Match{
		Key:      r.Key,
		Name:     r.Name,
		English:  r.English,
		Category: r.Category,
		Evidence: evidence,
	}
	for _, p := range sexagenary.Pillars {
		if attached[p] {
			m.Pillars = append(m.Pillars, p)
		}
	}
	return m
}

func (r *Rule) evaluate(c Chart) []Evidence {
	var out []Evidence
	found := func(src, dst Position) {
		out = append(out, Evidence{
			Source:      src,
			SourceValue: c.at(src).String(),
			Target:      dst,
			TargetValue: c.at(dst).String(),
			Clause:      r.Clause,
		})
	}

	switch r.Kind {
	case KindLookup:
		for _, src := range r.Sources {
			want := r.table[c.at(src)]
			if len(want) == 0 {
				continue
			}
			for _, dst := range r.Targets {
				if dst != src && containsSymbol(want, c.at(dst)) {
					found(src, dst)
				}
			}
		}

	case KindPillarSet:
		for _, src := range r.Sources {
			if r.set[c.at(src)] {
				found(src, src)
			}
		}

	case KindBranchOffset:
		for _, src := range r.Sources {
			want := branchSymbol(c.at(src).branch().Add(r.Offset))
			for _, dst := range r.Targets {
				if dst != src && c.at(dst) == want {
					found(src, dst)
				}
			}
		}

	case KindVoid:
		for _, src := range r.Sources {
			void := c.at(src).pair().Void()
			for _, dst := range r.Targets {
				if dst.Pillar() == src.Pillar() {
					continue
				}
				if b := c.at(dst).branch(); b == void[0] || b == void[1] {
					found(src, dst)
				}
			}
		}

	case KindCoOccur:
		for _, group := range r.groups {
			var hits []Position
			complete := true
			for _, want := range group {
				matched := false
				for _, dst := range r.Targets {
					if c.at(dst) == want {
						hits = append(hits, dst)
						matched = true
					}
				}
				if !matched {
					complete = false
					break
				}
			}
			if complete {
				for _, dst := range hits {
					found(dst, dst)
				}
			}
		}
	}
	return out
}

func containsSymbol(list []symbol, s symbol) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// NamesByPillar groups match names by the pillar they attach to
func NamesByPillar(matches []Match) [4][]string {
	var out [4][]string
	for _, m := range matches {
		for _, p := range m.Pillars {
			out[p] = append(out[p], m.Name)
		}
	}
	return out
}
