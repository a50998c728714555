// Package solarterm provides the UTC instants of the 24 solar terms for the
// years 1850 through 2100. Term instants are the moments the Sun's apparent
// ecliptic longitude crosses a multiple of 15 degrees.
package solarterm

import (
	"errors"
	"fmt"
)

const (
	// MinYear and MaxYear bound the supported range, inclusive
	MinYear = 1850
	MaxYear = 2100

	// NumTerms is the number of solar terms in a year
	NumTerms = 24
)

var (
	// ErrOutOfRangeYear is returned for years outside MinYear..MaxYear
	ErrOutOfRangeYear = errors.New("year outside supported solar term range")

	// ErrMissingSolarTermData is returned when no source has data for a
	// supported year. It indicates a packaging defect.
	ErrMissingSolarTermData = errors.New("no solar term data for year")
)

// Term identifies one of the 24 solar terms. Terms are numbered in civil
// calendar order, starting from Minor Cold in early January.
type Term int

const (
	MinorCold          Term = iota // 小寒 285°
	MajorCold                      // 大寒 300°
	StartOfSpring                  // 立春 315°
	RainWater                      // 雨水 330°
	AwakeningOfInsects             // 惊蛰 345°
	SpringEquinox                  // 春分 0°
	PureBrightness                 // 清明 15°
	GrainRain                      // 谷雨 30°
	StartOfSummer                  // 立夏 45°
	GrainBuds                      // 小满 60°
	GrainInEar                     // 芒种 75°
	SummerSolstice                 // 夏至 90°
	MinorHeat                      // 小暑 105°
	MajorHeat                      // 大暑 120°
	StartOfAutumn                  // 立秋 135°
	EndOfHeat                      // 处暑 150°
	WhiteDew                       // 白露 165°
	AutumnEquinox                  // 秋分 180°
	ColdDew                        // 寒露 195°
	FrostDescent                   // 霜降 210°
	StartOfWinter                  // 立冬 225°
	MinorSnow                      // 小雪 240°
	MajorSnow                      // 大雪 255°
	WinterSolstice                 // 冬至 270°
)

var termHanzi = [NumTerms]string{
	"小寒", "大寒", "立春", "雨水", "惊蛰", "春分",
	"清明", "谷雨", "立夏", "小满", "芒种", "夏至",
	"小暑", "大暑", "立秋", "处暑", "白露", "秋分",
	"寒露", "霜降", "立冬", "小雪", "大雪", "冬至",
}

var termEnglish = [NumTerms]string{
	"Minor Cold", "Major Cold", "Start of Spring", "Rain Water", "Awakening of Insects", "Spring Equinox",
	"Pure Brightness", "Grain Rain", "Start of Summer", "Grain Buds", "Grain in Ear", "Summer Solstice",
	"Minor Heat", "Major Heat", "Start of Autumn", "End of Heat", "White Dew", "Autumn Equinox",
	"Cold Dew", "Frost Descent", "Start of Winter", "Minor Snow", "Major Snow", "Winter Solstice",
}

func (t Term) String() string { return termHanzi[t] }

// English returns the translated term name
func (t Term) English() string { return termEnglish[t] }

// Valid reports whether t names one of the 24 terms
func (t Term) Valid() bool { return t >= 0 && t < NumTerms }

// Longitude returns the apparent solar longitude of the term in degrees
func (t Term) Longitude() float64 {
	return float64((285 + 15*int(t)) % 360)
}

// IsMonthBoundary reports whether the term opens a sexagenary month (节).
// The other twelve (中气) fall mid-month.
func (t Term) IsMonthBoundary() bool { return t%2 == 0 }

func checkYear(year int) error {
	if year < MinYear || year > MaxYear {
		return fmt.Errorf("%w: %d (supported %d-%d)", ErrOutOfRangeYear, year, MinYear, MaxYear)
	}
	return nil
}
