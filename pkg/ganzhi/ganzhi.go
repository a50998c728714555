// Package ganzhi provides the Heavenly Stems, Earthly Branches and the
// sixty-term sexagenary cycle they combine into.
package ganzhi

import (
	"errors"
	"fmt"
)

// ErrInvalidStemBranchPair is returned when a stem and branch of different
// polarity are combined. Only 60 of the 120 pairings exist in the cycle.
var ErrInvalidStemBranchPair = errors.New("invalid stem-branch pair")

// Element is one of the five phases (wuxing)
type Element int

const (
	Wood Element = iota
	Fire
	Earth
	Metal
	Water
)

// Elements lists the five phases in generating order
var Elements = [5]Element{Wood, Fire, Earth, Metal, Water}

var elementNames = [5]string{"wood", "fire", "earth", "metal", "water"}
var elementHanzi = [5]string{"木", "火", "土", "金", "水"}

func (e Element) String() string { return elementNames[e] }

// Hanzi returns the single-character name of the element
func (e Element) Hanzi() string { return elementHanzi[e] }

// Generates returns the element this one produces (wood feeds fire, ...)
func (e Element) Generates() Element { return (e + 1) % 5 }

// Controls returns the element this one overcomes (wood parts earth, ...)
func (e Element) Controls() Element { return (e + 2) % 5 }

// Polarity is yin or yang
type Polarity int

const (
	Yang Polarity = iota
	Yin
)

func (p Polarity) String() string {
	if p == Yin {
		return "yin"
	}
	return "yang"
}

// Stem is a Heavenly Stem, 0 (甲) through 9 (癸)
type Stem int

const (
	Jia Stem = iota
	Yi
	Bing
	Ding
	Wu
	Ji
	Geng
	Xin
	Ren
	Gui
)

var stemHanzi = [10]string{"甲", "乙", "丙", "丁", "戊", "己", "庚", "辛", "壬", "癸"}
var stemPinyin = [10]string{"jia", "yi", "bing", "ding", "wu", "ji", "geng", "xin", "ren", "gui"}

func (s Stem) String() string { return stemHanzi[s] }

// Pinyin returns the romanized name of the stem
func (s Stem) Pinyin() string { return stemPinyin[s] }

// Element of a stem: each element owns a consecutive yang/yin pair
func (s Stem) Element() Element { return Element(s / 2) }

// Polarity of a stem: even indices are yang
func (s Stem) Polarity() Polarity { return Polarity(s % 2) }

// Valid reports whether s is one of the ten stems
func (s Stem) Valid() bool { return s >= 0 && s < 10 }

// Add moves n steps along the stem cycle (n may be negative)
func (s Stem) Add(n int) Stem { return Stem(mod(int(s)+n, 10)) }

// Branch is an Earthly Branch, 0 (子) through 11 (亥)
type Branch int

const (
	Rat Branch = iota // 子
	Ox                // 丑
	Tiger             // 寅
	Rabbit            // 卯
	Dragon            // 辰
	Snake             // 巳
	Horse             // 午
	Goat              // 未
	Monkey            // 申
	Rooster           // 酉
	Dog               // 戌
	Pig               // 亥
)

var branchHanzi = [12]string{"子", "丑", "寅", "卯", "辰", "巳", "午", "未", "申", "酉", "戌", "亥"}
var branchPinyin = [12]string{"zi", "chou", "yin", "mao", "chen", "si", "wu", "wei", "shen", "you", "xu", "hai"}

// Native element of each branch
var branchElement = [12]Element{Water, Earth, Wood, Wood, Earth, Fire, Fire, Earth, Metal, Metal, Earth, Water}

func (b Branch) String() string { return branchHanzi[b] }

// Pinyin returns the romanized name of the branch
func (b Branch) Pinyin() string { return branchPinyin[b] }

// Element returns the branch's native element
func (b Branch) Element() Element { return branchElement[b] }

// Polarity of a branch: even indices are yang
func (b Branch) Polarity() Polarity { return Polarity(b % 2) }

// Valid reports whether b is one of the twelve branches
func (b Branch) Valid() bool { return b >= 0 && b < 12 }

// Add moves n steps along the branch cycle (n may be negative)
func (b Branch) Add(n int) Branch { return Branch(mod(int(b)+n, 12)) }

// ParseStem accepts a stem as hanzi or pinyin
func ParseStem(s string) (Stem, error) {
	for i := range stemHanzi {
		if s == stemHanzi[i] || s == stemPinyin[i] {
			return Stem(i), nil
		}
	}
	return 0, fmt.Errorf("unknown heavenly stem %q", s)
}

// ParseBranch accepts a branch as hanzi or pinyin
func ParseBranch(s string) (Branch, error) {
	for i := range branchHanzi {
		if s == branchHanzi[i] || s == branchPinyin[i] {
			return Branch(i), nil
		}
	}
	return 0, fmt.Errorf("unknown earthly branch %q", s)
}

func mod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}
