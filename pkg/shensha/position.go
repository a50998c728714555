package shensha

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/chrissnell/bazi/pkg/ganzhi"
	"github.com/chrissnell/bazi/pkg/sexagenary"
)

// Position is a place on the chart a rule can read: one of the four stems,
// one of the four branches, or a whole pillar
type Position int

const (
	YearStem Position = iota
	MonthStem
	DayStem
	HourStem
	YearBranch
	MonthBranch
	DayBranch
	HourBranch
	YearPillar
	MonthPillar
	DayPillar
	HourPillar

	numPositions = 12
)

type valueKind int

const (
	stemValue valueKind = iota
	branchValue
	pairValue
)

func (k valueKind) String() string {
	return [...]string{"stem", "branch", "pillar"}[k]
}

// Pillar returns the pillar the position belongs to
func (p Position) Pillar() sexagenary.Pillar { return sexagenary.Pillar(p % 4) }

func (p Position) kind() valueKind { return valueKind(p / 4) }

func (p Position) String() string {
	if p < 0 || p >= numPositions {
		return fmt.Sprintf("position(%d)", int(p))
	}
	switch p.kind() {
	case stemValue:
		return p.Pillar().String() + ".stem"
	case branchValue:
		return p.Pillar().String() + ".branch"
	default:
		return p.Pillar().String()
	}
}

// MarshalText renders the position as "day.stem", "year.branch" or "hour"
func (p Position) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// ParsePosition parses "<pillar>.stem", "<pillar>.branch" or "<pillar>"
func ParsePosition(s string) (Position, error) {
	name, part, _ := strings.Cut(strings.TrimSpace(s), ".")
	pillar, err := sexagenary.ParsePillar(name)
	if err != nil {
		return 0, fmt.Errorf("invalid position %q: %w", s, err)
	}
	switch part {
	case "stem":
		return Position(pillar), nil
	case "branch":
		return Position(pillar) + 4, nil
	case "":
		return Position(pillar) + 8, nil
	default:
		return 0, fmt.Errorf("invalid position %q", s)
	}
}

// parsePositions expands the groups "stems", "branches" and "pillars" and
// rejects duplicates
func parsePositions(names []string) ([]Position, error) {
	var out []Position
	seen := make(map[Position]bool)
	add := func(p Position) error {
		if seen[p] {
			return fmt.Errorf("position %s listed twice", p)
		}
		seen[p] = true
		out = append(out, p)
		return nil
	}
	for _, name := range names {
		var group []Position
		switch name {
		case "stems":
			group = []Position{YearStem, MonthStem, DayStem, HourStem}
		case "branches":
			group = []Position{YearBranch, MonthBranch, DayBranch, HourBranch}
		case "pillars":
			group = []Position{YearPillar, MonthPillar, DayPillar, HourPillar}
		default:
			p, err := ParsePosition(name)
			if err != nil {
				return nil, err
			}
			group = []Position{p}
		}
		for _, p := range group {
			if err := add(p); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// symbol is a value found at a position. Stems, branches and pairs share
// one index space so rule tables can be fixed-size arrays.
type symbol int

const (
	stemBase   = 0
	branchBase = 10
	pairBase   = 22
	numSymbols = 82
)

func stemSymbol(s ganzhi.Stem) symbol { return symbol(stemBase + int(s)) }
func branchSymbol(b ganzhi.Branch) symbol { return symbol(branchBase + int(b)) }
func pairSymbol(sb ganzhi.StemBranch) symbol { return symbol(pairBase + sb.Index()) }

func (s symbol) kind() valueKind {
	switch {
	case s < branchBase:
		return stemValue
	case s < pairBase:
		return branchValue
	default:
		return pairValue
	}
}

func (s symbol) branch() ganzhi.Branch { return ganzhi.Branch(s - branchBase) }

func (s symbol) pair() ganzhi.StemBranch { return ganzhi.FromIndex(int(s - pairBase)) }

func (s symbol) String() string {
	switch s.kind() {
	case stemValue:
		return ganzhi.Stem(s - stemBase).String()
	case branchValue:
		return s.branch().String()
	default:
		return s.pair().String()
	}
}

// parseSymbol accepts a single stem or branch character, or a two-character
// stem-branch pair
func parseSymbol(s string) (symbol, error) {
	switch utf8.RuneCountInString(s) {
	case 1:
		if stem, err := ganzhi.ParseStem(s); err == nil {
			return stemSymbol(stem), nil
		}
		if branch, err := ganzhi.ParseBranch(s); err == nil {
			return branchSymbol(branch), nil
		}
	case 2:
		sb, err := ganzhi.ParseStemBranch(s)
		if err != nil {
			return 0, err
		}
		return pairSymbol(sb), nil
	}
	return 0, fmt.Errorf("unknown symbol %q", s)
}

// Chart is the eight stem and branch positions of a resolved chart
type Chart struct {
	pillars sexagenary.FourPillars
}

// NewChart wraps resolved pillars for rule evaluation
func NewChart(fp sexagenary.FourPillars) Chart {
	return Chart{pillars: fp}
}

// Pillars returns the underlying four pillars
func (c Chart) Pillars() sexagenary.FourPillars { return c.pillars }

func (c Chart) at(p Position) symbol {
	sb := c.pillars.Get(p.Pillar())
	switch p.kind() {
	case stemValue:
		return stemSymbol(sb.Stem())
	case branchValue:
		return branchSymbol(sb.Branch())
	default:
		return pairSymbol(sb)
	}
}
