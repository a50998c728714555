package annotate

import (
	"encoding/json"
	"fmt"

	"github.com/chrissnell/bazi/pkg/ganzhi"
	"github.com/chrissnell/bazi/pkg/sexagenary"
)

// TenGod is the relation of a stem to the day master
type TenGod int

const (
	DayMaster        TenGod = iota // 日主
	Friend                         // 比肩: same element, same polarity
	RobWealth                      // 劫财: same element, other polarity
	EatingGod                      // 食神: produced by the day master, same polarity
	HurtingOfficer                 // 伤官: produced by the day master, other polarity
	IndirectWealth                 // 偏财: controlled by the day master, same polarity
	DirectWealth                   // 正财: controlled by the day master, other polarity
	SevenKillings                  // 七杀: controls the day master, same polarity
	DirectOfficer                  // 正官: controls the day master, other polarity
	IndirectResource               // 偏印: produces the day master, same polarity
	DirectResource                 // 正印: produces the day master, other polarity
)

var tenGodHanzi = [11]string{"日主", "比肩", "劫财", "食神", "伤官", "偏财", "正财", "七杀", "正官", "偏印", "正印"}

var tenGodNames = [11]string{
	"day_master", "friend", "rob_wealth", "eating_god", "hurting_officer",
	"indirect_wealth", "direct_wealth", "seven_killings", "direct_officer",
	"indirect_resource", "direct_resource",
}

func (g TenGod) String() string {
	if g < DayMaster || g > DirectResource {
		return fmt.Sprintf("tengod(%d)", int(g))
	}
	return tenGodHanzi[g]
}

// Key returns the stable machine name of the label
func (g TenGod) Key() string { return tenGodNames[g] }

// MarshalJSON encodes the hanzi label
func (g TenGod) MarshalJSON() ([]byte, error) { return json.Marshal(g.String()) }

// TenGodOf labels stem relative to dayMaster. It never returns DayMaster;
// the day stem position is labelled by TenGodsOf.
func TenGodOf(dayMaster, stem ganzhi.Stem) TenGod {
	dm, other := dayMaster.Element(), stem.Element()

	var base TenGod
	switch {
	case other == dm:
		base = Friend
	case dm.Generates() == other:
		base = EatingGod
	case dm.Controls() == other:
		base = IndirectWealth
	case other.Controls() == dm:
		base = SevenKillings
	default:
		// the only element left is the one that produces dm
		base = IndirectResource
	}

	if dayMaster.Polarity() != stem.Polarity() {
		base++
	}
	return base
}

// TenGods holds the labels of the four stems and the main qi of the four
// branches, in pillar order
type TenGods struct {
	Stems    [4]TenGod `json:"stems"`
	Branches [4]TenGod `json:"branches"`
}

// TenGodsOf labels a chart. The day stem is always DayMaster.
func TenGodsOf(fp sexagenary.FourPillars) TenGods {
	var tg TenGods
	dm := fp.DayMaster()
	for i, sb := range fp.Array() {
		tg.Stems[i] = TenGodOf(dm, sb.Stem())
		tg.Branches[i] = TenGodOf(dm, HiddenStemsOf(sb.Branch()).Main())
	}
	tg.Stems[sexagenary.DayPillar] = DayMaster
	return tg
}

// HiddenTenGods labels every hidden stem of a branch relative to dayMaster
func HiddenTenGods(dayMaster ganzhi.Stem, b ganzhi.Branch) []TenGod {
	stems := HiddenStemsOf(b).Stems()
	out := make([]TenGod, len(stems))
	for i, s := range stems {
		out[i] = TenGodOf(dayMaster, s)
	}
	return out
}
