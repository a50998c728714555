package ganzhi

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// StemBranch is one member of the sexagenary cycle. The zero value is 甲子.
// Values can only be built through NewStemBranch or FromIndex, so a
// StemBranch with mismatched parity cannot exist.
type StemBranch struct {
	stem   Stem
	branch Branch
}

// NewStemBranch validates and builds a pair
func NewStemBranch(s Stem, b Branch) (StemBranch, error) {
	if !s.Valid() || !b.Valid() {
		return StemBranch{}, fmt.Errorf("%w: stem %d, branch %d out of range", ErrInvalidStemBranchPair, s, b)
	}
	if s.Polarity() != b.Polarity() {
		return StemBranch{}, fmt.Errorf("%w: %s%s", ErrInvalidStemBranchPair, s, b)
	}
	return StemBranch{stem: s, branch: b}, nil
}

// MustStemBranch is NewStemBranch that panics on an invalid pair. It is
// meant for tables and tests.
func MustStemBranch(s Stem, b Branch) StemBranch {
	sb, err := NewStemBranch(s, b)
	if err != nil {
		panic(err)
	}
	return sb
}

// FromIndex returns the n-th member of the cycle (0 = 甲子, 59 = 癸亥).
// Any integer is accepted and reduced modulo 60.
func FromIndex(n int) StemBranch {
	n = mod(n, 60)
	return StemBranch{stem: Stem(n % 10), branch: Branch(n % 12)}
}

// ParseStemBranch parses a two-character pair such as "甲子"
func ParseStemBranch(s string) (StemBranch, error) {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size == len(s) {
		return StemBranch{}, fmt.Errorf("malformed stem-branch %q", s)
	}
	stem, err := ParseStem(s[:size])
	if err != nil {
		return StemBranch{}, err
	}
	branch, err := ParseBranch(s[size:])
	if err != nil {
		return StemBranch{}, err
	}
	return NewStemBranch(stem, branch)
}

// Stem returns the pair's Heavenly Stem
func (sb StemBranch) Stem() Stem { return sb.stem }

// Branch returns the pair's Earthly Branch
func (sb StemBranch) Branch() Branch { return sb.branch }

// Index returns the position of the pair in the cycle, 0..59. It solves
// i ≡ stem (mod 10), i ≡ branch (mod 12).
func (sb StemBranch) Index() int {
	return mod(6*int(sb.stem)-5*int(sb.branch), 60)
}

// Add moves n steps along the sexagenary cycle
func (sb StemBranch) Add(n int) StemBranch { return FromIndex(sb.Index() + n) }

// Xun returns the decade (旬) the pair belongs to, identified by its first member
func (sb StemBranch) Xun() StemBranch { return FromIndex(sb.Index() - int(sb.stem)) }

// Void returns the two branches left uncovered by the pair's decade (旬空)
func (sb StemBranch) Void() [2]Branch {
	head := sb.Xun().branch
	return [2]Branch{head.Add(10), head.Add(11)}
}

func (sb StemBranch) String() string {
	return sb.stem.String() + sb.branch.String()
}

// MarshalText renders the pair as its two hanzi
func (sb StemBranch) MarshalText() ([]byte, error) {
	return []byte(sb.String()), nil
}

// UnmarshalText parses and validates a pair
func (sb *StemBranch) UnmarshalText(b []byte) error {
	parsed, err := ParseStemBranch(string(b))
	if err != nil {
		return err
	}
	*sb = parsed
	return nil
}

// MarshalJSON renders a stem as its hanzi
func (s Stem) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

// MarshalJSON renders a branch as its hanzi
func (b Branch) MarshalJSON() ([]byte, error) { return json.Marshal(b.String()) }

// MarshalJSON renders an element by name
func (e Element) MarshalJSON() ([]byte, error) { return json.Marshal(e.String()) }

// MarshalText renders an element by name, which lets it key JSON maps
func (e Element) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

// MarshalJSON renders a polarity by name
func (p Polarity) MarshalJSON() ([]byte, error) { return json.Marshal(p.String()) }
