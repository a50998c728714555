package sexagenary

import (
	"fmt"
	"strings"
	"time"

	"github.com/chrissnell/bazi/pkg/ganzhi"
	"github.com/chrissnell/bazi/pkg/solarterm"
	"github.com/chrissnell/bazi/pkg/solartime"
)

// ZiHourMode decides which day the 23:00-23:59 half of the zi hour belongs to
type ZiHourMode int

const (
	// Early (早子时): the zi hour opens the next day, so 23:xx advances the
	// day pillar
	Early ZiHourMode = iota
	// Late (晚子时): 23:xx stays on the current day
	Late
)

func (m ZiHourMode) String() string {
	if m == Late {
		return "late"
	}
	return "early"
}

// MarshalText renders the mode by name
func (m ZiHourMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// ParseZiHourMode accepts early or late in any case. The empty string is Early.
func ParseZiHourMode(s string) (ZiHourMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "early":
		return Early, nil
	case "late":
		return Late, nil
	default:
		return Early, fmt.Errorf("unknown zi hour mode %q", s)
	}
}

// The day pillar epoch: 2000-01-01 is 戊午, index 54 of the cycle
var (
	dayEpoch      = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	dayEpochIndex = 54
)

// Resolution is a resolved chart along with the boundaries that produced it
type Resolution struct {
	Pillars FourPillars

	// PillarDate is the calendar date the day pillar was taken from
	PillarDate time.Time
	// DayAdvanced is true when an Early zi hour moved the day forward
	DayAdvanced bool
	// EvaluatedAt is the instant used against the solar terms
	EvaluatedAt time.Time
	// MonthTerm is the month-opening term in effect and its instant
	MonthTerm   solarterm.Term
	MonthTermAt time.Time
	// StartOfSpring is the Start of Spring EvaluatedAt was compared against
	StartOfSpring time.Time
	// SexagenaryYear is the Gregorian year whose Start of Spring opened the year pillar
	SexagenaryYear int
}

// Resolver maps corrected birth times onto the sexagenary calendar
type Resolver struct {
	table *solarterm.Table
}

// NewResolver creates a resolver over a solar term table
func NewResolver(table *solarterm.Table) *Resolver {
	return &Resolver{table: table}
}

// Resolve returns the four pillars for a corrected birth time
func (r *Resolver) Resolve(st solartime.Result, mode ZiHourMode) (FourPillars, error) {
	res, err := r.ResolveDetailed(st, mode)
	if err != nil {
		return FourPillars{}, err
	}
	return res.Pillars, nil
}

// ResolveDetailed is Resolve with the boundaries that were applied
func (r *Resolver) ResolveDetailed(st solartime.Result, mode ZiHourMode) (Resolution, error) {
	if st.Year < solarterm.MinYear || st.Year > solarterm.MaxYear {
		return Resolution{}, fmt.Errorf("%w: %d", solarterm.ErrOutOfRangeYear, st.Year)
	}

	res := Resolution{
		PillarDate:  st.Date(),
		EvaluatedAt: st.Instant.UTC(),
	}

	hour := st.Hour()
	if mode == Early && hour == 23 {
		res.DayAdvanced = true
		res.PillarDate = res.PillarDate.AddDate(0, 0, 1)
		// The advanced day starts when the corrected clock reaches midnight,
		// and month and year are evaluated from that moment too. This lets
		// the zi-hour mode move the year and month pillars when a term falls
		// inside 23:00-24:00: 1984-02-04 23:00 is 甲子 in Early mode and 癸亥
		// in Late mode, since Start of Spring 1984 is at 23:19.
		res.EvaluatedAt = res.EvaluatedAt.Add(time.Duration(86400-st.SecondsOfDay) * time.Second)
	}

	day := DayPillarOf(res.PillarDate)

	// The 23:xx hour is always the zi hour of the following day, whichever
	// day pillar it is filed under.
	hourDayStem := day.Stem()
	if mode == Late && hour == 23 {
		hourDayStem = DayPillarOf(res.PillarDate.AddDate(0, 0, 1)).Stem()
	}
	hourPillar, err := HourPillarOf(hourDayStem, hour)
	if err != nil {
		return Resolution{}, err
	}

	boundary, err := r.table.LastBoundary(res.EvaluatedAt)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolving month pillar: %w", err)
	}
	res.MonthTerm = boundary.Term
	res.MonthTermAt = boundary.At

	calendarYear := res.EvaluatedAt.Year()
	if calendarYear < solarterm.MinYear {
		// Early January births of the first year can fall on the last UTC
		// day of the year before; they are still ahead of its Start of Spring.
		calendarYear = solarterm.MinYear
	}
	res.StartOfSpring, err = r.table.Lookup(calendarYear, solarterm.StartOfSpring)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolving year pillar: %w", err)
	}
	res.SexagenaryYear = calendarYear
	if res.EvaluatedAt.Before(res.StartOfSpring) {
		res.SexagenaryYear--
	}
	year := YearPillarOf(res.SexagenaryYear)

	month, err := MonthPillarOf(year.Stem(), MonthBranchOf(boundary.Term))
	if err != nil {
		return Resolution{}, err
	}

	res.Pillars = FourPillars{Year: year, Month: month, Day: day, Hour: hourPillar}
	return res, nil
}

// DayPillarOf returns the day pillar of a calendar date. Only the date
// fields of d are used.
func DayPillarOf(d time.Time) ganzhi.StemBranch {
	y, m, dd := d.Date()
	date := time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
	days := int((date.Unix() - dayEpoch.Unix()) / 86400)
	return ganzhi.FromIndex(dayEpochIndex + days)
}

// YearPillarOf returns the pillar of a sexagenary year; 1984 is 甲子
func YearPillarOf(year int) ganzhi.StemBranch {
	return ganzhi.FromIndex(year - 4)
}

// HourBranchOf maps a clock hour to its two-hour branch. 23:00-00:59 is 子.
func HourBranchOf(hour int) ganzhi.Branch {
	return ganzhi.Branch(((hour + 1) / 2) % 12)
}

// HourPillarOf applies the five-rat rule: the day stem fixes the stem of the
// 子 hour and the rest follow in order.
func HourPillarOf(dayStem ganzhi.Stem, hour int) (ganzhi.StemBranch, error) {
	if hour < 0 || hour > 23 {
		return ganzhi.StemBranch{}, fmt.Errorf("hour %d out of range", hour)
	}
	branch := HourBranchOf(hour)
	first := ganzhi.Stem((int(dayStem) % 5) * 2)
	return ganzhi.NewStemBranch(first.Add(int(branch)), branch)
}

// MonthBranchOf returns the branch of the month a month-opening term starts:
// Minor Cold opens 丑, Start of Spring opens 寅, ... Major Snow opens 子.
func MonthBranchOf(t solarterm.Term) ganzhi.Branch {
	return ganzhi.Branch((int(t)/2 + 1) % 12)
}

// MonthPillarOf applies the five-tiger rule: the year stem fixes the stem of
// the 寅 month and the rest follow in order.
func MonthPillarOf(yearStem ganzhi.Stem, branch ganzhi.Branch) (ganzhi.StemBranch, error) {
	first := ganzhi.Stem((int(yearStem)%5)*2 + 2)
	offset := int(branch.Add(-int(ganzhi.Tiger)))
	return ganzhi.NewStemBranch(first.Add(offset), branch)
}
