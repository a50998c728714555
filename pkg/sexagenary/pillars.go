// Package sexagenary resolves a corrected birth time into the four
// stem-branch pillars of year, month, day and hour.
package sexagenary

import (
	"fmt"
	"strings"

	"github.com/chrissnell/bazi/pkg/ganzhi"
)

// Pillar names one of the four pillars
type Pillar int

const (
	YearPillar Pillar = iota
	MonthPillar
	DayPillar
	HourPillar
)

// Pillars lists the four pillars in chart order
var Pillars = [4]Pillar{YearPillar, MonthPillar, DayPillar, HourPillar}

var pillarNames = [4]string{"year", "month", "day", "hour"}

func (p Pillar) String() string {
	if p < 0 || p > HourPillar {
		return fmt.Sprintf("pillar(%d)", int(p))
	}
	return pillarNames[p]
}

// MarshalText renders the pillar by name
func (p Pillar) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// ParsePillar accepts year, month, day or hour
func ParsePillar(s string) (Pillar, error) {
	for i, name := range pillarNames {
		if s == name {
			return Pillar(i), nil
		}
	}
	return 0, fmt.Errorf("unknown pillar %q", s)
}

// FourPillars is a resolved BaZi chart
type FourPillars struct {
	Year  ganzhi.StemBranch `json:"year"`
	Month ganzhi.StemBranch `json:"month"`
	Day   ganzhi.StemBranch `json:"day"`
	Hour  ganzhi.StemBranch `json:"hour"`
}

// Get returns one pillar
func (fp FourPillars) Get(p Pillar) ganzhi.StemBranch {
	switch p {
	case YearPillar:
		return fp.Year
	case MonthPillar:
		return fp.Month
	case DayPillar:
		return fp.Day
	default:
		return fp.Hour
	}
}

// Array returns the pillars in chart order
func (fp FourPillars) Array() [4]ganzhi.StemBranch {
	return [4]ganzhi.StemBranch{fp.Year, fp.Month, fp.Day, fp.Hour}
}

// DayMaster is the day stem, the reference point for Ten Gods
func (fp FourPillars) DayMaster() ganzhi.Stem { return fp.Day.Stem() }

// String renders the chart as four space-separated pairs, e.g. "乙丑 乙酉 戊寅 壬戌"
func (fp FourPillars) String() string {
	parts := make([]string, 0, 4)
	for _, sb := range fp.Array() {
		parts = append(parts, sb.String())
	}
	return strings.Join(parts, " ")
}
