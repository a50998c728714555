package annotate

import (
	"github.com/chrissnell/bazi/pkg/sexagenary"
)

// Annotations are everything derived from a chart without rules
type Annotations struct {
	HiddenStems [4]HiddenStems `json:"hiddenStems"`
	NaYin       [4]NaYin       `json:"naYin"`
	TenGods     TenGods        `json:"tenGods"`
	Wuxing      WuxingScore    `json:"wuxing"`
	YinYang     YinYang        `json:"yinYang"`
}

// Annotate computes all annotations of a chart
func Annotate(fp sexagenary.FourPillars) Annotations {
	a := Annotations{
		TenGods: TenGodsOf(fp),
		Wuxing:  WuxingOf(fp),
		YinYang: YinYangOf(fp),
	}
	for i, sb := range fp.Array() {
		a.HiddenStems[i] = HiddenStemsOf(sb.Branch())
		a.NaYin[i] = NaYinOf(sb)
	}
	return a
}
