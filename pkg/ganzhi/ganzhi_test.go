package ganzhi

import (
	"errors"
	"testing"
)

func TestNewStemBranch(t *testing.T) {
	tests := []struct {
		name    string
		stem    Stem
		branch  Branch
		wantErr bool
	}{
		{"jia zi", Jia, Rat, false},
		{"gui hai", Gui, Pig, false},
		{"wu wu", Wu, Horse, false},
		{"jia chou parity mismatch", Jia, Ox, true},
		{"yi zi parity mismatch", Yi, Rat, true},
		{"stem out of range", Stem(10), Rat, true},
		{"branch out of range", Jia, Branch(-1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStemBranch(tt.stem, tt.branch)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidStemBranchPair) {
					t.Errorf("expected ErrInvalidStemBranchPair, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCycleClosure(t *testing.T) {
	seen := make(map[string]bool)
	valid := 0
	for s := Jia; s <= Gui; s++ {
		for b := Rat; b <= Pig; b++ {
			sb, err := NewStemBranch(s, b)
			if err != nil {
				continue
			}
			valid++
			if got := FromIndex(sb.Index()); got != sb {
				t.Errorf("FromIndex(%d) = %s, expected %s", sb.Index(), got, sb)
			}
			seen[sb.String()] = true
		}
	}
	if valid != 60 {
		t.Errorf("valid pairs = %d, expected 60", valid)
	}
	if len(seen) != 60 {
		t.Errorf("distinct pairs = %d, expected 60", len(seen))
	}
}

func TestFromIndex(t *testing.T) {
	tests := []struct {
		index    int
		expected string
	}{
		{0, "甲子"},
		{1, "乙丑"},
		{10, "甲戌"},
		{54, "戊午"},
		{59, "癸亥"},
		{60, "甲子"},
		{-1, "癸亥"},
	}

	for _, tt := range tests {
		if got := FromIndex(tt.index).String(); got != tt.expected {
			t.Errorf("FromIndex(%d) = %s, expected %s", tt.index, got, tt.expected)
		}
	}
}

func TestParseStemBranch(t *testing.T) {
	sb, err := ParseStemBranch("戊寅")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sb.Stem() != Wu || sb.Branch() != Tiger {
		t.Errorf("parsed %s, expected 戊寅", sb)
	}
	if sb.Index() != 14 {
		t.Errorf("Index() = %d, expected 14", sb.Index())
	}

	for _, bad := range []string{"", "甲", "甲丑", "子甲", "甲子子"} {
		if _, err := ParseStemBranch(bad); err == nil {
			t.Errorf("ParseStemBranch(%q) succeeded, expected error", bad)
		}
	}
}

func TestVoid(t *testing.T) {
	tests := []struct {
		pair     string
		expected [2]Branch
	}{
		{"甲子", [2]Branch{Dog, Pig}},
		{"癸酉", [2]Branch{Dog, Pig}},
		{"甲戌", [2]Branch{Monkey, Rooster}},
		{"戊寅", [2]Branch{Monkey, Rooster}},
		{"甲寅", [2]Branch{Rat, Ox}},
		{"癸亥", [2]Branch{Rat, Ox}},
	}

	for _, tt := range tests {
		sb, err := ParseStemBranch(tt.pair)
		if err != nil {
			t.Fatalf("ParseStemBranch(%q): %v", tt.pair, err)
		}
		if got := sb.Void(); got != tt.expected {
			t.Errorf("%s void = %v, expected %v", tt.pair, got, tt.expected)
		}
	}
}

func TestElementCycles(t *testing.T) {
	if Wood.Generates() != Fire || Water.Generates() != Wood {
		t.Error("generating cycle is wrong")
	}
	if Wood.Controls() != Earth || Metal.Controls() != Wood || Water.Controls() != Fire {
		t.Error("controlling cycle is wrong")
	}
	if Geng.Element() != Metal || Gui.Polarity() != Yin || Bing.Polarity() != Yang {
		t.Error("stem attributes are wrong")
	}
	if Ox.Element() != Earth || Snake.Polarity() != Yin || Horse.Element() != Fire {
		t.Error("branch attributes are wrong")
	}
}
