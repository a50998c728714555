package annotate

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/chrissnell/bazi/pkg/ganzhi"
	"github.com/chrissnell/bazi/pkg/sexagenary"
)

// Each pillar carries one unit for its stem and one unit split across the
// hidden stems of its branch
var (
	stemWeight    = decimal.NewFromInt(1)
	hiddenWeights = [4][]decimal.Decimal{
		1: {decimal.NewFromInt(1)},
		2: {decimal.RequireFromString("0.7"), decimal.RequireFromString("0.3")},
		3: {decimal.RequireFromString("0.6"), decimal.RequireFromString("0.3"), decimal.RequireFromString("0.1")},
	}
)

// WuxingBudget is the total weight of every chart
var WuxingBudget = decimal.NewFromInt(8)

// WuxingScore is the five-element distribution of a chart
type WuxingScore struct {
	weights [5]decimal.Decimal
}

// WuxingOf scores a chart
func WuxingOf(fp sexagenary.FourPillars) WuxingScore {
	var w WuxingScore
	for i := range w.weights {
		w.weights[i] = decimal.Zero
	}
	for _, sb := range fp.Array() {
		w.add(sb.Stem().Element(), stemWeight)

		h := HiddenStemsOf(sb.Branch())
		for i, stem := range h.Stems() {
			w.add(stem.Element(), hiddenWeights[h.Len()][i])
		}
	}
	return w
}

func (w *WuxingScore) add(e ganzhi.Element, d decimal.Decimal) {
	w.weights[e] = w.weights[e].Add(d)
}

// Get returns the weight of one element
func (w WuxingScore) Get(e ganzhi.Element) decimal.Decimal { return w.weights[e] }

// Total is the sum of all five weights
func (w WuxingScore) Total() decimal.Decimal {
	return decimal.Sum(w.weights[0], w.weights[1:]...)
}

// Dominant returns the heaviest element; ties go to the earlier element in
// generating order
func (w WuxingScore) Dominant() ganzhi.Element {
	best := ganzhi.Wood
	for _, e := range ganzhi.Elements[1:] {
		if w.weights[e].GreaterThan(w.weights[best]) {
			best = e
		}
	}
	return best
}

// Missing lists the elements with zero weight
func (w WuxingScore) Missing() []ganzhi.Element {
	var out []ganzhi.Element
	for _, e := range ganzhi.Elements {
		if w.weights[e].IsZero() {
			out = append(out, e)
		}
	}
	return out
}

// MarshalJSON encodes the weights as exact JSON numbers keyed by element
func (w WuxingScore) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.Number, 5)
	for _, e := range ganzhi.Elements {
		out[e.String()] = json.Number(w.weights[e].String())
	}
	return json.Marshal(out)
}

// YinYang counts the polarity of the eight stem and branch positions
type YinYang struct {
	Yin  int `json:"yin"`
	Yang int `json:"yang"`
}

// YinYangOf tallies a chart
func YinYangOf(fp sexagenary.FourPillars) YinYang {
	var yy YinYang
	for _, sb := range fp.Array() {
		for _, p := range [2]ganzhi.Polarity{sb.Stem().Polarity(), sb.Branch().Polarity()} {
			if p == ganzhi.Yin {
				yy.Yin++
			} else {
				yy.Yang++
			}
		}
	}
	return yy
}
