package annotate

import (
	"github.com/chrissnell/bazi/pkg/ganzhi"
)

// NaYin is one of the thirty melodic elements. Each covers two consecutive
// members of the sexagenary cycle.
type NaYin struct {
	Name    string         `json:"name"`
	English string         `json:"english"`
	Element ganzhi.Element `json:"element"`
}

func (n NaYin) String() string { return n.Name }

var naYinTable = [30]NaYin{
	{"海中金", "Gold in the Sea", ganzhi.Metal},
	{"炉中火", "Fire in the Furnace", ganzhi.Fire},
	{"大林木", "Wood of the Great Forest", ganzhi.Wood},
	{"路旁土", "Earth by the Roadside", ganzhi.Earth},
	{"剑锋金", "Metal of the Sword Edge", ganzhi.Metal},
	{"山头火", "Fire on the Mountain Top", ganzhi.Fire},
	{"涧下水", "Water in the Ravine", ganzhi.Water},
	{"城头土", "Earth on the City Wall", ganzhi.Earth},
	{"白蜡金", "White Wax Metal", ganzhi.Metal},
	{"杨柳木", "Willow Wood", ganzhi.Wood},
	{"泉中水", "Water in the Spring", ganzhi.Water},
	{"屋上土", "Earth on the Roof", ganzhi.Earth},
	{"霹雳火", "Thunderbolt Fire", ganzhi.Fire},
	{"松柏木", "Pine and Cypress Wood", ganzhi.Wood},
	{"长流水", "Long Flowing Water", ganzhi.Water},
	{"沙中金", "Gold in the Sand", ganzhi.Metal},
	{"山下火", "Fire at the Foot of the Mountain", ganzhi.Fire},
	{"平地木", "Wood of the Plain", ganzhi.Wood},
	{"壁上土", "Earth on the Wall", ganzhi.Earth},
	{"金箔金", "Gold Leaf Metal", ganzhi.Metal},
	{"覆灯火", "Lamp Fire", ganzhi.Fire},
	{"天河水", "Water of the Milky Way", ganzhi.Water},
	{"大驿土", "Earth of the Great Post Road", ganzhi.Earth},
	{"钗钏金", "Hairpin Gold", ganzhi.Metal},
	{"桑柘木", "Mulberry Wood", ganzhi.Wood},
	{"大溪水", "Water of the Great Stream", ganzhi.Water},
	{"沙中土", "Earth in the Sand", ganzhi.Earth},
	{"天上火", "Fire in the Sky", ganzhi.Fire},
	{"石榴木", "Pomegranate Wood", ganzhi.Wood},
	{"大海水", "Water of the Great Sea", ganzhi.Water},
}

// NaYinOf returns the Na Yin of a stem-branch pair
func NaYinOf(sb ganzhi.StemBranch) NaYin {
	return naYinTable[sb.Index()/2]
}
