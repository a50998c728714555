// Package annotate derives the static annotations of a chart: hidden stems,
// Na Yin, Ten Gods, the five-element score and the yin-yang tally.
package annotate

import (
	"encoding/json"

	"github.com/chrissnell/bazi/pkg/ganzhi"
)

// HiddenStems are the stems contained in a branch, ordered by dominance.
// The first is the main qi.
type HiddenStems struct {
	stems [3]ganzhi.Stem
	count int
}

// HiddenStem is one entry of a branch's hidden stems
type HiddenStem struct {
	Stem    ganzhi.Stem    `json:"stem"`
	Element ganzhi.Element `json:"element"`
	MainQi  bool           `json:"mainQi"`
}

func hidden(stems ...ganzhi.Stem) HiddenStems {
	var h HiddenStems
	h.count = copy(h.stems[:], stems)
	return h
}

var hiddenStemTable = [12]HiddenStems{
	ganzhi.Rat:     hidden(ganzhi.Gui),
	ganzhi.Ox:      hidden(ganzhi.Ji, ganzhi.Gui, ganzhi.Xin),
	ganzhi.Tiger:   hidden(ganzhi.Jia, ganzhi.Bing, ganzhi.Wu),
	ganzhi.Rabbit:  hidden(ganzhi.Yi),
	ganzhi.Dragon:  hidden(ganzhi.Wu, ganzhi.Yi, ganzhi.Gui),
	ganzhi.Snake:   hidden(ganzhi.Bing, ganzhi.Geng, ganzhi.Wu),
	ganzhi.Horse:   hidden(ganzhi.Ding, ganzhi.Ji),
	ganzhi.Goat:    hidden(ganzhi.Ji, ganzhi.Ding, ganzhi.Yi),
	ganzhi.Monkey:  hidden(ganzhi.Geng, ganzhi.Ren, ganzhi.Wu),
	ganzhi.Rooster: hidden(ganzhi.Xin),
	ganzhi.Dog:     hidden(ganzhi.Wu, ganzhi.Xin, ganzhi.Ding),
	ganzhi.Pig:     hidden(ganzhi.Ren, ganzhi.Jia),
}

// HiddenStemsOf returns the hidden stems of a branch
func HiddenStemsOf(b ganzhi.Branch) HiddenStems {
	return hiddenStemTable[b]
}

// Main returns the main qi
func (h HiddenStems) Main() ganzhi.Stem { return h.stems[0] }

// Len returns the number of hidden stems, 1 to 3
func (h HiddenStems) Len() int { return h.count }

// Stems returns the hidden stems, main qi first
func (h HiddenStems) Stems() []ganzhi.Stem {
	out := make([]ganzhi.Stem, h.count)
	copy(out, h.stems[:h.count])
	return out
}

// Entries returns the hidden stems with their element and main-qi flag
func (h HiddenStems) Entries() []HiddenStem {
	out := make([]HiddenStem, h.count)
	for i := 0; i < h.count; i++ {
		out[i] = HiddenStem{Stem: h.stems[i], Element: h.stems[i].Element(), MainQi: i == 0}
	}
	return out
}

func (h HiddenStems) String() string {
	s := ""
	for _, stem := range h.stems[:h.count] {
		s += stem.String()
	}
	return s
}

// MarshalJSON encodes the entries list
func (h HiddenStems) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Entries())
}
